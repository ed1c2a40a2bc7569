package resolve_test

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasB/diggeo/internal/resolve"
)

// startDNSServer serves a fixed zone on a random local udp port.
//
//	quad9.test.    A    9.9.9.9, 9.9.9.10, 9.9.9.9
//	quad9.test.    AAAA 2620:fe::fe
//	v6only.test.   AAAA 2620:fe::9
//	everything else: NXDOMAIN
func startDNSServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	records := map[string]map[uint16][]string{
		"quad9.test.": {
			dns.TypeA:    {"9.9.9.9", "9.9.9.10", "9.9.9.9"},
			dns.TypeAAAA: {"2620:fe::fe"},
		},
		"v6only.test.": {
			dns.TypeAAAA: {"2620:fe::9"},
		},
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		q := r.Question[0]

		zone, ok := records[q.Name]
		if !ok {
			m.SetRcode(r, dns.RcodeNameError)
			_ = w.WriteMsg(m)
			return
		}

		m.SetReply(r)
		for _, ip := range zone[q.Qtype] {
			hdr := dns.RR_Header{Name: q.Name, Rrtype: q.Qtype, Class: dns.ClassINET, Ttl: 60}
			switch q.Qtype {
			case dns.TypeA:
				m.Answer = append(m.Answer, &dns.A{Hdr: hdr, A: net.ParseIP(ip).To4()})
			case dns.TypeAAAA:
				m.Answer = append(m.Answer, &dns.AAAA{Hdr: hdr, AAAA: net.ParseIP(ip)})
			}
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}

	go func() {
		_ = srv.ActivateAndServe()
	}()
	<-started

	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSClient_LookupIPAddr(t *testing.T) {
	t.Parallel()

	client := resolve.NewDNSClient(startDNSServer(t), 2*time.Second)

	got, err := client.LookupIPAddr(context.Background(), "quad9.test")
	require.NoError(t, err)

	ips := make([]string, 0, len(got))
	for _, a := range got {
		ips = append(ips, a.IP.String())
	}
	assert.ElementsMatch(t, []string{"9.9.9.9", "9.9.9.10", "9.9.9.9", "2620:fe::fe"}, ips)
}

func TestDNSClient_NXDomain(t *testing.T) {
	t.Parallel()

	client := resolve.NewDNSClient(startDNSServer(t), 2*time.Second)

	_, err := client.LookupIPAddr(context.Background(), "missing.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NXDOMAIN")
}

func TestDNSClient_Unreachable(t *testing.T) {
	t.Parallel()

	// grab a free port and release it so nothing answers there
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	client := resolve.NewDNSClient(addr, 200*time.Millisecond)

	_, err = client.LookupIPAddr(context.Background(), "quad9.test")
	assert.Error(t, err)
}

func TestIPv4_WithDNSClient(t *testing.T) {
	t.Parallel()

	client := resolve.NewDNSClient(startDNSServer(t), 2*time.Second)

	t.Run("ipv4 deduplicated, ipv6 dropped", func(t *testing.T) {
		t.Parallel()

		got, err := resolve.IPv4(context.Background(), client, "quad9.test")
		require.NoError(t, err)
		assert.ElementsMatch(t, []netip.Addr{
			netip.MustParseAddr("9.9.9.9"),
			netip.MustParseAddr("9.9.9.10"),
		}, got)
	})

	t.Run("no ipv4 records", func(t *testing.T) {
		t.Parallel()

		got, err := resolve.IPv4(context.Background(), client, "v6only.test")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()

		_, err := resolve.IPv4(context.Background(), client, "missing.test")
		assert.ErrorIs(t, err, resolve.ErrResolve)
	})
}
