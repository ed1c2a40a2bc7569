// Package resolve turns a host name into the set of IPv4 addresses it points at.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/idna"
)

var ErrResolve = errors.New("resolution failed")

// Resolver looks up the addresses of a host. *net.Resolver implements it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// IPv4 resolves host and returns its distinct IPv4 addresses in no particular
// order. IPv6 answers are dropped.
func IPv4(ctx context.Context, r Resolver, host string) ([]netip.Addr, error) {
	name, err := idna.Punycode.ToASCII(host)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid host name %q: %w", ErrResolve, host, err)
	}

	addrs, err := r.LookupIPAddr(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}

	set := make(map[netip.Addr]struct{}, len(addrs))
	for _, a := range addrs {
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			continue
		}

		// net returns IPv4 answers in their 16 byte form
		ip = ip.Unmap()
		if !ip.Is4() {
			continue
		}

		set[ip] = struct{}{}
	}

	out := make([]netip.Addr, 0, len(set))
	for ip := range set {
		out = append(out, ip)
	}

	return out, nil
}
