package scanning

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/netscan/internal/errors"
	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/metrics"
	"github.com/anstrom/netscan/internal/ports"
	"github.com/anstrom/netscan/internal/probe"
	"github.com/anstrom/netscan/internal/resolve"
	"github.com/anstrom/netscan/internal/targets"
	"github.com/anstrom/netscan/internal/workers"
)

// Scanner expands targets, gates hosts on reachability and probes ports
// with a bounded worker pool. A Scanner is safe for concurrent use.
type Scanner struct {
	config   Config
	pinger   probe.Pinger
	prober   probe.Prober
	grabber  probe.Grabber
	resolver resolve.HostnameResolver
	recorder metrics.Recorder
	slots    ResourceManager
	logger   *logging.Logger
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithPinger replaces the ICMP reachability check.
func WithPinger(p probe.Pinger) Option {
	return func(s *Scanner) { s.pinger = p }
}

// WithProber replaces the TCP connect probe.
func WithProber(p probe.Prober) Option {
	return func(s *Scanner) { s.prober = p }
}

// WithGrabber replaces the banner grabber.
func WithGrabber(g probe.Grabber) Option {
	return func(s *Scanner) { s.grabber = g }
}

// WithResolver sets the reverse DNS resolver used when Config.Resolve is set.
func WithResolver(r resolve.HostnameResolver) Option {
	return func(s *Scanner) { s.resolver = r }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Scanner) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithResourceManager sets the limiter for concurrent scans.
func WithResourceManager(rm ResourceManager) Option {
	return func(s *Scanner) { s.slots = rm }
}

// New creates a Scanner. Probes not supplied as options are built from cfg.
func New(cfg Config, opts ...Option) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	s := &Scanner{config: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.pinger == nil {
		s.pinger = probe.NewICMPPinger(cfg.PingTimeout, cfg.PingAttempts)
	}
	if s.prober == nil {
		s.prober = probe.NewTCPProber(cfg.ConnectTimeout)
	}
	if s.grabber == nil {
		s.grabber = probe.NewBannerGrabber(cfg.BannerTimeout)
	}
	if s.recorder == nil {
		s.recorder = metrics.Nop{}
	}
	if s.slots == nil {
		s.slots = NewFixedResourceManager(cfg.MaxConcurrentScans)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	s.logger = s.logger.WithComponent("scanner")

	return s
}

// Config returns the scanner settings.
func (s *Scanner) Config() Config {
	return s.config
}

// Scan probes portSet on every host of target.
//
// A malformed or oversized target yields an empty report together with an
// input error. When the scan deadline passes or ctx is canceled, the hosts
// completed so far are returned with a timeout or canceled error.
func (s *Scanner) Scan(ctx context.Context, target string, portSet ports.Set) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Target:    target,
		Ports:     portSet.String(),
		StartTime: time.Now(),
		Hosts:     []HostResult{},
	}
	logger := s.logger.WithScanID(report.ID).WithTarget(target)

	err := s.run(ctx, report, portSet, logger)

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	s.recorder.RecordScanDuration(report.Duration)

	if err != nil {
		s.recorder.IncrementScansTotal("error")
		s.recorder.IncrementScanErrors(string(errors.GetCode(err)))
		s.logger.WithScanID(report.ID).ErrorScan("Scan failed", target, err, "hosts_found", len(report.Hosts))
		return report, err
	}

	s.recorder.IncrementScansTotal("success")
	s.logger.WithScanID(report.ID).InfoScan("Scan completed", target,
		"hosts_total", report.Stats.HostsTotal,
		"hosts_alive", report.Stats.HostsAlive,
		"ports_open", report.Stats.PortsOpen,
		"duration", report.Duration)
	return report, nil
}

func (s *Scanner) run(ctx context.Context, report *Report, portSet ports.Set, logger *logging.Logger) error {
	rng, err := targets.Parse(report.Target)
	if err != nil {
		return err
	}
	if s.config.MaxHosts > 0 && rng.Len() > uint64(s.config.MaxHosts) {
		return errors.ErrTargetTooLarge(report.Target, rng.Len(), s.config.MaxHosts)
	}

	if err := s.slots.Acquire(ctx, report.ID); err != nil {
		return contextError(err)
	}
	defer s.slots.Release(report.ID)

	if s.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScanTimeout)
		defer cancel()
	}

	report.Stats.HostsTotal = int(rng.Len())
	if err := ctx.Err(); err != nil {
		return contextError(err)
	}
	logger.Debug("Scan started", "hosts", rng.Len(), "ports", len(portSet), "workers", s.config.Workers)

	alive := s.gateHosts(ctx, rng, logger)
	report.Stats.HostsAlive = alive.count(rng.Len())

	found, probed := s.probePorts(ctx, rng, alive, portSet, logger)
	report.Stats.PortsProbed = probed

	offsets := make([]uint64, 0, len(found))
	for off := range found {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	var names map[string]string
	if s.config.Resolve && s.resolver != nil && ctx.Err() == nil && len(offsets) > 0 {
		addrs := make([]string, len(offsets))
		for i, off := range offsets {
			addrs[i] = found[off].Address
		}
		names = s.resolver.LookupAll(ctx, addrs)
	}

	for _, off := range offsets {
		host := found[off]
		host.Hostname = names[host.Address]
		report.Stats.PortsOpen += len(host.Ports)
		report.Hosts = append(report.Hosts, *host)
	}

	return contextError(ctx.Err())
}

// aliveSet holds the offsets of reachable hosts within a range.
type aliveSet struct {
	all     bool
	offsets []uint64 // ascending
}

func (a aliveSet) count(total uint64) int {
	if a.all {
		return int(total)
	}
	return len(a.offsets)
}

// each calls fn for every reachable host of rng in ascending order until fn
// returns false.
func (a aliveSet) each(rng targets.Range, fn func(off uint64, addr netip.Addr) bool) {
	if a.all {
		var off uint64
		rng.Each(func(addr netip.Addr) bool {
			ok := fn(off, addr)
			off++
			return ok
		})
		return
	}
	for _, off := range a.offsets {
		addr, ok := rng.At(off)
		if !ok || !fn(off, addr) {
			return
		}
	}
}

// gateHosts checks reachability of every host in rng. Hosts are submitted
// as the range is walked, so only reachable hosts are kept in memory.
func (s *Scanner) gateHosts(ctx context.Context, rng targets.Range, logger *logging.Logger) aliveSet {
	if s.config.SkipPing {
		s.recorder.IncrementHostsScanned(hostAlive, int(rng.Len()))
		return aliveSet{all: true}
	}

	up := make(chan uint64, s.config.Workers)
	var alive aliveSet
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for off := range up {
			alive.offsets = append(alive.offsets, off)
		}
	}()

	pool := s.newPool()
	pool.Start(ctx)

	var gated uint64
	rng.Each(func(addr netip.Addr) bool {
		if ctx.Err() != nil {
			return false
		}
		off, host := gated, addr.String()
		job := workers.NewFuncJob(host, "host", func(ctx context.Context) error {
			start := time.Now()
			reachable := s.pinger.IsReachable(ctx, host)
			s.recorder.RecordProbeDuration("ping", time.Since(start))
			if reachable {
				up <- off
			}
			return nil
		})
		if pool.Submit(ctx, job) != nil {
			return false
		}
		gated++
		return true
	})
	pool.Close()
	close(up)
	<-collected

	sort.Slice(alive.offsets, func(i, j int) bool { return alive.offsets[i] < alive.offsets[j] })

	n := len(alive.offsets)
	s.recorder.IncrementHostsScanned(hostAlive, n)
	s.recorder.IncrementHostsScanned(hostUnreachable, int(gated)-n)
	logger.Debug("Reachability gate finished", "alive", n, "unreachable", int(gated)-n)

	return alive
}

type finding struct {
	host    uint64
	address string
	port    uint16
	banner  string
}

// probePorts connects to every port of every alive host. Findings are
// collected by a single goroutine and grouped per host offset; hosts
// without open ports are never stored.
func (s *Scanner) probePorts(
	ctx context.Context, rng targets.Range, alive aliveSet, portSet ports.Set, logger *logging.Logger,
) (map[uint64]*HostResult, int) {
	found := make(map[uint64]*HostResult)
	results := make(chan finding, s.config.Workers)
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for f := range results {
			host, ok := found[f.host]
			if !ok {
				host = &HostResult{Address: f.address, Ports: make(map[uint16]string)}
				found[f.host] = host
			}
			host.Ports[f.port] = f.banner
		}
	}()

	var probed, open atomic.Int64
	pool := s.newPool()
	pool.Start(ctx)

	alive.each(rng, func(i uint64, addr netip.Addr) bool {
		host := addr.String()
		for _, port := range portSet {
			port := port
			if ctx.Err() != nil {
				return false
			}
			id := net.JoinHostPort(host, strconv.Itoa(int(port)))
			job := workers.NewFuncJob(id, "port", func(ctx context.Context) error {
				probed.Add(1)
				banner, ok := s.probePort(ctx, host, port)
				if !ok {
					return nil
				}
				open.Add(1)
				logger.DebugProbe("Port open", host, port, "banner", banner)
				results <- finding{host: i, address: host, port: port, banner: banner}
				return nil
			})
			if pool.Submit(ctx, job) != nil {
				return false
			}
		}
		return true
	})

	pool.Close()
	close(results)
	<-collected

	s.recorder.IncrementPortsScanned(portOpen, int(open.Load()))
	s.recorder.IncrementPortsScanned(portClosed, int(probed.Load()-open.Load()))

	return found, int(probed.Load())
}

func (s *Scanner) probePort(ctx context.Context, host string, port uint16) (string, bool) {
	start := time.Now()
	conn, ok := s.prober.Probe(ctx, host, port)
	s.recorder.RecordProbeDuration("connect", time.Since(start))
	if !ok {
		return "", false
	}
	defer conn.Close()

	if !s.config.GrabBanners {
		return probe.Placeholder, true
	}
	start = time.Now()
	banner := s.grabber.Grab(conn)
	s.recorder.RecordProbeDuration("banner", time.Since(start))
	return banner, true
}

func (s *Scanner) newPool() *workers.Pool {
	return workers.New(workers.Config{
		Size:      s.config.Workers,
		QueueSize: s.config.QueueSize,
		RateLimit: s.config.RateLimit,
	}, s.recorder)
}

func contextError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.WrapScanError(errors.CodeTimeout, "scan deadline exceeded", err)
	case stderrors.Is(err, context.Canceled):
		return errors.WrapScanError(errors.CodeCanceled, "scan canceled", err)
	default:
		return fmt.Errorf("scan aborted: %w", err)
	}
}
