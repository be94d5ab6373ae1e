// Package probe contains the network primitives used by the scanner: an
// ICMP echo liveness check, a TCP connect probe, and a banner grabber that
// identifies the service behind an open port.
//
// Each primitive is bounded by its own timeout and reports failure as an
// absent result rather than an error, so a single misbehaving host never
// aborts a scan.
package probe
