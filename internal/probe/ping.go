package probe

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// DefaultPingTimeout bounds a single echo attempt.
	DefaultPingTimeout = time.Second
	// DefaultPingAttempts is the number of echo requests sent before a
	// host is considered unreachable.
	DefaultPingAttempts = 3

	protocolICMP   = 1
	protocolICMPv6 = 58

	echoTTL       = 166
	maxPacketSize = 1500
)

var (
	errNoReply = errors.New("no echo reply")

	echoPayload = []byte("netscan")
	echoSeq     atomic.Uint32
)

// Pinger decides whether a host is alive before its ports are probed.
type Pinger interface {
	IsReachable(ctx context.Context, address string) bool
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context, address string) bool

// IsReachable calls f.
func (f PingerFunc) IsReachable(ctx context.Context, address string) bool {
	return f(ctx, address)
}

// ICMPPinger checks liveness with ICMP echo requests. It prefers a raw
// socket and falls back to an unprivileged datagram socket where the
// platform allows it. Hosts that drop ICMP are reported as unreachable
// even when they have open TCP ports.
type ICMPPinger struct {
	Timeout  time.Duration
	Attempts uint

	// sendEcho performs one echo exchange; nil uses the ICMP socket.
	sendEcho func(ctx context.Context, addr netip.Addr) error
}

// NewICMPPinger returns a pinger with the given per-attempt timeout and
// attempt count, substituting defaults for zero values.
func NewICMPPinger(timeout time.Duration, attempts uint) *ICMPPinger {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	if attempts == 0 {
		attempts = DefaultPingAttempts
	}
	return &ICMPPinger{Timeout: timeout, Attempts: attempts}
}

// IsReachable reports whether address answered any echo request. Every
// failure, including a malformed address or missing privileges, yields false.
func (p *ICMPPinger) IsReachable(ctx context.Context, address string) bool {
	if ctx.Err() != nil {
		return false
	}
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	attempts := p.Attempts
	if attempts == 0 {
		attempts = DefaultPingAttempts
	}

	send := p.sendEcho
	if send == nil {
		send = p.echo
	}
	err = retry.Do(
		func() error { return send(ctx, addr) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(0),
		retry.LastErrorOnly(true),
	)
	return err == nil
}

type echoSocket struct {
	conn       *icmp.PacketConn
	dst        net.Addr
	privileged bool
}

func (p *ICMPPinger) echo(ctx context.Context, addr netip.Addr) error {
	sock, err := openEchoSocket(addr)
	if err != nil {
		return err
	}
	defer sock.conn.Close()

	requestType, replyType, proto := icmp.Type(ipv4.ICMPTypeEcho), icmp.Type(ipv4.ICMPTypeEchoReply), protocolICMP
	if addr.Is6() {
		requestType, replyType, proto = ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply, protocolICMPv6
	}

	id := os.Getpid() & 0xffff
	seq := int(echoSeq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: requestType,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: echoPayload},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := sock.conn.SetDeadline(deadline); err != nil {
		return err
	}

	if _, err := sock.conn.WriteTo(wire, sock.dst); err != nil {
		return err
	}

	buf := make([]byte, maxPacketSize)
	for {
		n, peer, err := sock.conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		if peerAddr(peer) != addr {
			continue
		}
		reply, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil || reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok || body.Seq != seq {
			continue
		}
		// Datagram sockets have their identifier rewritten by the kernel.
		if sock.privileged && body.ID != id {
			continue
		}
		return nil
	}
}

func openEchoSocket(addr netip.Addr) (*echoSocket, error) {
	rawNetwork, dgramNetwork, listen := "ip4:icmp", "udp4", "0.0.0.0"
	if addr.Is6() {
		rawNetwork, dgramNetwork, listen = "ip6:ipv6-icmp", "udp6", "::"
	}
	ip := net.IP(addr.AsSlice())

	if conn, err := icmp.ListenPacket(rawNetwork, listen); err == nil {
		setHopLimit(conn)
		return &echoSocket{conn: conn, dst: &net.IPAddr{IP: ip}, privileged: true}, nil
	}

	conn, err := icmp.ListenPacket(dgramNetwork, listen)
	if err != nil {
		return nil, err
	}
	setHopLimit(conn)
	return &echoSocket{conn: conn, dst: &net.UDPAddr{IP: ip}}, nil
}

func setHopLimit(conn *icmp.PacketConn) {
	if pc := conn.IPv4PacketConn(); pc != nil {
		_ = pc.SetTTL(echoTTL)
	}
	if pc := conn.IPv6PacketConn(); pc != nil {
		_ = pc.SetHopLimit(echoTTL)
	}
}

func peerAddr(peer net.Addr) netip.Addr {
	var ip net.IP
	switch a := peer.(type) {
	case *net.IPAddr:
		ip = a.IP
	case *net.UDPAddr:
		ip = a.IP
	default:
		return netip.Addr{}
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}
	}
	return addr.Unmap()
}
