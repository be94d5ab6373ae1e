// Package ports parses port specifications into ordered, deduplicated sets.
//
// The grammar accepts a single port ("80"), a comma separated list
// ("22,80,443"), an inclusive range ("20-25"), or a list mixing both
// ("22,8000-8010"). An empty specification selects the default range.
package ports

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/anstrom/netscan/internal/errors"
)

const (
	MinPort = 1
	MaxPort = 65535

	// DefaultSpec is used when neither the caller nor configuration
	// supplies a port specification.
	DefaultSpec = "1-1024"
)

// Set is an ascending, duplicate free list of ports.
type Set []uint16

// Len returns the number of ports in the set.
func (s Set) Len() int { return len(s) }

// String renders the set compactly, collapsing consecutive runs into ranges.
func (s Set) String() string {
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	start := s[0]
	prev := s[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			fmt.Fprintf(&b, "%d", start)
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, p := range s[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		start, prev = p, p
	}
	flush()
	return b.String()
}

// Parse parses spec into a Set. When spec is blank, defaultSpec is parsed
// instead, falling back to DefaultSpec when that is blank too.
func Parse(spec, defaultSpec string) (Set, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = strings.TrimSpace(defaultSpec)
	}
	if spec == "" {
		spec = DefaultSpec
	}

	seen := make(map[uint16]struct{})
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, errors.NewInputError(errors.CodeInvalidPortFormat, spec)
		}
		start, end, err := parseItem(item)
		if err != nil {
			return nil, err
		}
		for p := start; ; p++ {
			seen[uint16(p)] = struct{}{}
			if p == end {
				break
			}
		}
	}

	set := make(Set, 0, len(seen))
	for p := range seen {
		set = append(set, p)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(spec string) Set {
	s, err := Parse(spec, "")
	if err != nil {
		panic(err)
	}
	return s
}

func parseItem(item string) (start, end int, err error) {
	if !strings.Contains(item, "-") {
		p, err := parseNumber(item)
		if err != nil {
			return 0, 0, err
		}
		if !inRange(p) {
			return 0, 0, errors.NewInputError(errors.CodeInvalidPortValue, item)
		}
		return p, p, nil
	}

	bounds := strings.Split(item, "-")
	if len(bounds) != 2 {
		return 0, 0, errors.NewInputError(errors.CodeInvalidPortFormat, item)
	}
	start, err = parseNumber(strings.TrimSpace(bounds[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err = parseNumber(strings.TrimSpace(bounds[1]))
	if err != nil {
		return 0, 0, err
	}
	if !inRange(start) || !inRange(end) || start > end {
		return 0, 0, errors.NewInputError(errors.CodeInvalidPortValue, item)
	}
	return start, end, nil
}

func parseNumber(s string) (int, error) {
	if s == "" {
		return 0, errors.NewInputError(errors.CodeInvalidPortFormat, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.NewInputError(errors.CodeInvalidPortFormat, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Only overflow reaches here; the digits themselves were valid.
		return 0, errors.NewInputError(errors.CodeInvalidPortValue, s)
	}
	return n, nil
}

func inRange(p int) bool {
	return p >= MinPort && p <= MaxPort
}
