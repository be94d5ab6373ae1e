package probe

import (
	"io"
	"net"
	"strings"
	"time"
)

const (
	// Placeholder is reported for open ports whose service could not be
	// identified.
	Placeholder = "Service info not available."

	// DefaultBannerTimeout bounds the write and read of a banner exchange.
	DefaultBannerTimeout = 2 * time.Second
	// DefaultBannerSize is the read buffer for a banner response.
	DefaultBannerSize = 1024

	bannerRequest = "GET / HTTP/1.1\r\n\r\n"
)

// Grabber extracts a service identity from an open connection.
type Grabber interface {
	Grab(conn net.Conn) string
}

// BannerGrabber sends a minimal HTTP request and identifies the service from
// the first response chunk. It never closes the connection.
type BannerGrabber struct {
	ReadTimeout time.Duration
	BufferSize  int
}

// NewBannerGrabber returns a grabber with the given read timeout.
func NewBannerGrabber(timeout time.Duration) *BannerGrabber {
	if timeout <= 0 {
		timeout = DefaultBannerTimeout
	}
	return &BannerGrabber{ReadTimeout: timeout, BufferSize: DefaultBannerSize}
}

// Grab implements Grabber. I/O failures yield Placeholder.
func (g *BannerGrabber) Grab(conn net.Conn) string {
	timeout := g.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultBannerTimeout
	}
	size := g.BufferSize
	if size <= 0 {
		size = DefaultBannerSize
	}

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Placeholder
	}
	if _, err := io.WriteString(conn, bannerRequest); err != nil {
		return Placeholder
	}

	buf := make([]byte, size)
	// A single read, partial data is still worth parsing.
	n, _ := conn.Read(buf)
	if n <= 0 {
		return Placeholder
	}
	return ParseBanner(string(buf[:n]))
}

// ParseBanner extracts a service identity from a raw response.
//
// A Server header (case-insensitive key) wins. Short responses of at most
// two non-blank lines are treated as greetings, so the first line without a
// colon is used when no Server header is present. A line starting with a NUL
// byte ends parsing.
func ParseBanner(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	greeting := len(lines) <= 2
	identity := ""
	for _, line := range lines {
		if line[0] == 0 {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			if greeting && identity == "" {
				identity = line
			}
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "server") {
			return strings.TrimSpace(value)
		}
	}

	if identity != "" {
		return identity
	}
	return Placeholder
}
