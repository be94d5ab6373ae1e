// Package targets expands scan targets into the concrete addresses they denote.
//
// A target is either a single IP literal (IPv4 or IPv6, without zone) or an
// IPv4 CIDR block. CIDR blocks expand to every address from the network
// address to the broadcast address inclusive, in ascending order.
package targets

import (
	"encoding/binary"
	"net/netip"
	"strconv"
	"strings"

	"github.com/anstrom/netscan/internal/errors"
)

const (
	minPrefix = 1
	maxPrefix = 32
)

// Range is a validated, contiguous block of addresses.
type Range struct {
	first netip.Addr
	last  netip.Addr
	// size is stored separately since a /1 holds 2^31 addresses.
	size uint64
}

// First returns the lowest address in the range.
func (r Range) First() netip.Addr { return r.first }

// Last returns the highest address in the range.
func (r Range) Last() netip.Addr { return r.last }

// Len returns the number of addresses in the range.
func (r Range) Len() uint64 { return r.size }

// Each calls fn for every address in ascending order until fn returns false.
func (r Range) Each(fn func(netip.Addr) bool) {
	if r.size == 0 {
		return
	}
	for addr := r.first; ; addr = addr.Next() {
		if !fn(addr) || addr == r.last {
			return
		}
	}
}

// At returns the address at offset off from the start of the range. The
// second result is false when off is outside the range.
func (r Range) At(off uint64) (netip.Addr, bool) {
	if off >= r.size {
		return netip.Addr{}, false
	}
	if off == 0 {
		return r.first, true
	}
	raw := r.first.As4()
	return fromUint32(binary.BigEndian.Uint32(raw[:]) + uint32(off)), true
}

// Addresses materializes the range as dotted strings.
func (r Range) Addresses() []string {
	out := make([]string, 0, r.size)
	r.Each(func(a netip.Addr) bool {
		out = append(out, a.String())
		return true
	})
	return out
}

// Parse validates target and returns the address range it denotes without
// materializing it.
func Parse(target string) (Range, error) {
	if !strings.Contains(target, "/") {
		addr, err := parseLiteral(target)
		if err != nil {
			return Range{}, err
		}
		return Range{first: addr, last: addr, size: 1}, nil
	}
	return parseCIDR(target)
}

// Expand returns every address denoted by target, in ascending order.
func Expand(target string) ([]string, error) {
	r, err := Parse(target)
	if err != nil {
		return nil, err
	}
	return r.Addresses(), nil
}

// ExpandCIDR expands target which must be in CIDR notation. A bare address
// is rejected with an invalid CIDR format error.
func ExpandCIDR(target string) ([]string, error) {
	r, err := parseCIDR(target)
	if err != nil {
		return nil, err
	}
	return r.Addresses(), nil
}

func parseLiteral(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, errors.NewInputError(errors.CodeInvalidAddress, s)
	}
	return addr, nil
}

func parseCIDR(target string) (Range, error) {
	parts := strings.Split(target, "/")
	if len(parts) != 2 {
		return Range{}, errors.NewInputError(errors.CodeInvalidCIDRFormat, target)
	}

	addr, err := netip.ParseAddr(parts[0])
	if err != nil || !addr.Is4() {
		return Range{}, errors.NewInputError(errors.CodeInvalidCIDRAddress, target)
	}

	// Atoi rejects surrounding whitespace and suffixes such as "1k".
	prefix, err := strconv.Atoi(parts[1])
	if err != nil || prefix < minPrefix || prefix > maxPrefix {
		return Range{}, errors.NewInputError(errors.CodeInvalidCIDRSize, target)
	}

	raw := addr.As4()
	ip := binary.BigEndian.Uint32(raw[:])
	mask := ^uint32((uint64(1) << (32 - prefix)) - 1)
	network := ip & mask
	broadcast := network | ^mask

	return Range{
		first: fromUint32(network),
		last:  fromUint32(broadcast),
		size:  uint64(broadcast-network) + 1,
	}, nil
}

func fromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}
