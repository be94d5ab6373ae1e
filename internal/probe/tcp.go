package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultConnectTimeout bounds a single TCP connect attempt.
const DefaultConnectTimeout = 3 * time.Second

// Prober attempts a connection to one port of one host.
type Prober interface {
	// Probe returns an open connection when the port accepted the
	// connection. The caller owns and must close the connection.
	Probe(ctx context.Context, address string, port uint16) (net.Conn, bool)
}

// TCPProber performs full TCP connects. Closed and filtered ports are not
// distinguished.
type TCPProber struct {
	Timeout time.Duration
}

// NewTCPProber returns a prober with the given connect timeout.
func NewTCPProber(timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &TCPProber{Timeout: timeout}
}

// Probe implements Prober.
func (p *TCPProber) Probe(ctx context.Context, address string, port uint16) (net.Conn, bool) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(int(port))))
	if err != nil {
		return nil, false
	}
	return conn, true
}
