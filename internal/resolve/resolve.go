// Package resolve looks up reverse DNS names for scanned hosts.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/anstrom/netscan/internal/logging"
)

const (
	defaultResolvConf  = "/etc/resolv.conf"
	defaultTimeout     = 2 * time.Second
	defaultConcurrency = 16
)

var (
	// ErrNoServer is returned when no DNS server is configured or found.
	ErrNoServer = errors.New("no DNS server available")
	// ErrEmptyRecords is returned when the server has no PTR record.
	ErrEmptyRecords = errors.New("no PTR record returned")
	// ErrInvalidIP is returned for addresses that cannot be reversed.
	ErrInvalidIP = errors.New("invalid format for IP address")
)

// HostnameResolver maps addresses to hostnames.
type HostnameResolver interface {
	LookupAll(ctx context.Context, addresses []string) map[string]string
}

// Resolver performs PTR lookups against a single DNS server.
type Resolver struct {
	client      *dns.Client
	server      string
	concurrency int
	logger      *logging.Logger
}

// New returns a resolver querying server (host:port). An empty server uses
// the first nameserver from /etc/resolv.conf.
func New(server string, timeout time.Duration, concurrency int) (*Resolver, error) {
	if server == "" {
		var err error
		server, err = systemServer(defaultResolvConf)
		if err != nil {
			return nil, err
		}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	return &Resolver{
		client:      &dns.Client{Net: "udp", Timeout: timeout},
		server:      server,
		concurrency: concurrency,
		logger:      logging.Default().WithComponent("resolve"),
	}, nil
}

func systemServer(path string) (string, error) {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoServer, err)
	}
	if len(cfg.Servers) == 0 {
		return "", ErrNoServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}

// Server returns the DNS server address in use.
func (r *Resolver) Server() string {
	return r.server
}

// LookupAddr returns the first PTR name for ip without the trailing dot.
func (r *Resolver) LookupAddr(ctx context.Context, ip string) (string, error) {
	name, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", ErrInvalidIP
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypePTR)

	result, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", err
	}
	for _, answer := range result.Answer {
		if ptr, ok := answer.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", ErrEmptyRecords
}

// LookupAll resolves addresses concurrently. Addresses without a name are
// absent from the result.
func (r *Resolver) LookupAll(ctx context.Context, addresses []string) map[string]string {
	names := make(map[string]string, len(addresses))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, addr := range addresses {
		addr := addr
		g.Go(func() error {
			name, err := r.LookupAddr(gctx, addr)
			if err != nil {
				r.logger.Debug("Reverse lookup failed", "address", addr, "error", err)
				return nil
			}
			mu.Lock()
			names[addr] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return names
}
