package engine

import (
	"fmt"
	"net/netip"
	"strings"
)

// OfficeNetwork is the allow-list used by from_office_ip policies. Entries are
// single addresses or CIDR prefixes.
type OfficeNetwork struct {
	addrs    map[netip.Addr]struct{}
	prefixes []netip.Prefix
}

func NewOfficeNetwork(entries []string) (*OfficeNetwork, error) {
	n := &OfficeNetwork{addrs: make(map[netip.Addr]struct{}, len(entries))}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid office network %q: %w", entry, err)
			}
			n.prefixes = append(n.prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid office address %q: %w", entry, err)
		}
		n.addrs[a.Unmap()] = struct{}{}
	}
	return n, nil
}

// Contains reports whether addr is on the allow-list. IPv4-mapped IPv6
// addresses (::ffff:10.0.0.1) match their IPv4 form. A nil network or an
// unparsable address never matches.
func (n *OfficeNetwork) Contains(addr string) bool {
	if n == nil {
		return false
	}
	a, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return false
	}
	a = a.Unmap()
	if _, ok := n.addrs[a]; ok {
		return true
	}
	for _, p := range n.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
