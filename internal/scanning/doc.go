// Package scanning runs host discovery and TCP port scans.
//
// A scan walks its target as an ordered range of IPv4 addresses, checks
// each host for reachability with an ICMP echo, and then connects to every
// requested port on the hosts that answered. Open ports are identified by a
// short banner exchange.
//
// # Pipeline
//
//   - targets.Parse validates a single address or a CIDR block.
//   - The reachability gate walks the range and runs one pool job per host,
//     keeping only the hosts that answered.
//   - Port probes run one pool job per (host, port) pair.
//   - A single collector goroutine groups findings by host.
//   - Optional reverse DNS fills in hostnames for reported hosts.
//
// Both phases share the bounded worker pool from the workers package, so the
// pool size limits how many sockets are open at once and never changes the
// result. Hosts are reported in expansion order and only when at least one
// port is open.
//
// # Errors
//
// Malformed targets produce an empty report together with a typed input
// error from the errors package. When the scan deadline passes or the caller
// cancels, hosts completed so far are returned with a timeout or canceled
// error.
//
// # Usage
//
//	scanner := scanning.New(scanning.DefaultConfig())
//	report, err := scanner.Scan(ctx, "192.168.1.0/24", ports.MustParse("22,80,443"))
package scanning
