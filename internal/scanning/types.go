package scanning

import (
	"runtime"
	"sort"
	"time"

	"github.com/anstrom/netscan/internal/probe"
)

// Host gate outcomes used for metrics labels.
const (
	hostAlive       = "alive"
	hostUnreachable = "unreachable"
	portOpen        = "open"
	portClosed      = "closed"
)

// Config holds the explicit settings for a Scanner.
type Config struct {
	// Workers is the number of concurrent probes.
	Workers int
	// QueueSize is the number of probe jobs buffered ahead of the workers.
	QueueSize int

	// SkipPing treats every expanded host as reachable.
	SkipPing bool
	// GrabBanners identifies the service behind open ports.
	GrabBanners bool
	// Resolve adds reverse DNS names to reported hosts.
	Resolve bool

	PingTimeout    time.Duration
	PingAttempts   uint
	ConnectTimeout time.Duration
	BannerTimeout  time.Duration

	// ScanTimeout bounds a whole scan (0 = none).
	ScanTimeout time.Duration
	// RateLimit caps probes started per second (0 = unlimited).
	RateLimit float64
	// MaxHosts rejects larger targets before probing (0 = unlimited).
	MaxHosts int
	// MaxConcurrentScans bounds parallel Scan calls on one Scanner.
	MaxConcurrentScans int
}

// DefaultConfig returns the default scanner settings.
func DefaultConfig() Config {
	workers := runtime.NumCPU() * 8
	return Config{
		Workers:            workers,
		QueueSize:          workers * 2,
		GrabBanners:        true,
		PingTimeout:        probe.DefaultPingTimeout,
		PingAttempts:       probe.DefaultPingAttempts,
		ConnectTimeout:     probe.DefaultConnectTimeout,
		BannerTimeout:      probe.DefaultBannerTimeout,
		MaxHosts:           65536,
		MaxConcurrentScans: 1,
	}
}

// HostResult holds the open ports found on one live host. It is built once
// the host's probes have finished and is not modified afterwards.
type HostResult struct {
	Address  string `json:"address" yaml:"address"`
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	// Ports maps each open port to the identified service.
	Ports map[uint16]string `json:"ports" yaml:"ports"`
}

// SortedPorts returns the open ports in ascending order.
func (h HostResult) SortedPorts() []uint16 {
	out := make([]uint16, 0, len(h.Ports))
	for p := range h.Ports {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stats summarizes a scan.
type Stats struct {
	HostsTotal  int `json:"hosts_total" yaml:"hosts_total"`
	HostsAlive  int `json:"hosts_alive" yaml:"hosts_alive"`
	PortsProbed int `json:"ports_probed" yaml:"ports_probed"`
	PortsOpen   int `json:"ports_open" yaml:"ports_open"`
}

// Report is the outcome of one scan. Hosts are in expansion order, which is
// ascending address order for CIDR targets.
type Report struct {
	ID        string        `json:"id" yaml:"id"`
	Target    string        `json:"target" yaml:"target"`
	Ports     string        `json:"ports" yaml:"ports"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Hosts     []HostResult  `json:"hosts" yaml:"hosts"`
	Stats     Stats         `json:"stats" yaml:"stats"`
}

// Empty reports whether the scan found no hosts with open ports.
func (r *Report) Empty() bool {
	return r == nil || len(r.Hosts) == 0
}
