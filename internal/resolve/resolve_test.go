package resolve_test

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasB/diggeo/internal/resolve"
)

type mockResolver struct {
	addrs []net.IPAddr
	err   error
	host  string
}

func (m *mockResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	m.host = host
	return m.addrs, m.err
}

func ipAddrs(ips ...string) []net.IPAddr {
	out := make([]net.IPAddr, 0, len(ips))
	for _, ip := range ips {
		out = append(out, net.IPAddr{IP: net.ParseIP(ip)})
	}

	return out
}

func addrs(ips ...string) []netip.Addr {
	out := make([]netip.Addr, 0, len(ips))
	for _, ip := range ips {
		out = append(out, netip.MustParseAddr(ip))
	}

	return out
}

func TestIPv4(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		addrs []net.IPAddr
		want  []netip.Addr
	}{
		{
			name:  "ipv4 only",
			addrs: ipAddrs("9.9.9.9", "9.9.9.10"),
			want:  addrs("9.9.9.9", "9.9.9.10"),
		},
		{
			name:  "ipv6 dropped",
			addrs: ipAddrs("9.9.9.9", "2620:fe::fe", "9.9.9.10"),
			want:  addrs("9.9.9.9", "9.9.9.10"),
		},
		{
			name:  "duplicates collapsed",
			addrs: ipAddrs("9.9.9.9", "9.9.9.9", "::ffff:9.9.9.9"),
			want:  addrs("9.9.9.9"),
		},
		{
			name:  "only ipv6",
			addrs: ipAddrs("2620:fe::fe", "2620:fe::9"),
			want:  addrs(),
		},
		{
			name:  "no answers",
			addrs: nil,
			want:  addrs(),
		},
		{
			name:  "four byte form",
			addrs: []net.IPAddr{{IP: net.IPv4(1, 2, 3, 4).To4()}},
			want:  addrs("1.2.3.4"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolve.IPv4(context.Background(), &mockResolver{addrs: tt.addrs}, "dns.quad9.net")
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestIPv4_LookupError(t *testing.T) {
	t.Parallel()

	cause := &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}

	got, err := resolve.IPv4(context.Background(), &mockResolver{err: cause}, "nope.invalid")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, resolve.ErrResolve)

	var dnsErr *net.DNSError
	require.True(t, errors.As(err, &dnsErr))
	assert.True(t, dnsErr.IsNotFound)
}

func TestIPv4_InternationalName(t *testing.T) {
	t.Parallel()

	r := &mockResolver{addrs: ipAddrs("1.2.3.4")}

	_, err := resolve.IPv4(context.Background(), r, "bücher.example")
	require.NoError(t, err)
	assert.Equal(t, "xn--bcher-kva.example", r.host)
}

func TestIPv4_SystemResolverImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ resolve.Resolver = net.DefaultResolver
	var _ resolve.Resolver = resolve.NewDNSClient("127.0.0.1:53", 0)
}
