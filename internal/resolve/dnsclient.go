package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

var errRcode = errors.New("dns server returned error")

// DNSClient resolves names by querying a single DNS server directly,
// bypassing the system resolver configuration.
type DNSClient struct {
	server string
	client *dns.Client
}

// NewDNSClient returns a DNSClient that sends its queries to server (host:port).
// A zero timeout keeps the miekg/dns default.
func NewDNSClient(server string, timeout time.Duration) *DNSClient {
	return &DNSClient{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// LookupIPAddr queries the A and AAAA records of host. It fails only if
// neither query could be answered.
func (c *DNSClient) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	var (
		addrs []net.IPAddr
		errs  []error
	)

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		answer, err := c.query(ctx, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		addrs = append(addrs, answer...)
	}

	if len(errs) == 2 {
		return nil, fmt.Errorf("lookup %s on %s: %w", host, c.server, errors.Join(errs...))
	}

	return addrs, nil
}

func (c *DNSClient) query(ctx context.Context, host string, qtype uint16) ([]net.IPAddr, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)

	in, _, err := c.client.ExchangeContext(ctx, m, c.server)
	if err == nil && in.Truncated {
		// answer did not fit into a datagram, ask again over tcp
		tcp := &dns.Client{Net: "tcp", Timeout: c.client.Timeout}
		in, _, err = tcp.ExchangeContext(ctx, m, c.server)
	}
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", dns.TypeToString[qtype], err)
	}

	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: %s query: %s", errRcode, dns.TypeToString[qtype], dns.RcodeToString[in.Rcode])
	}

	var addrs []net.IPAddr
	for _, rr := range in.Answer {
		switch r := rr.(type) {
		case *dns.A:
			addrs = append(addrs, net.IPAddr{IP: r.A})
		case *dns.AAAA:
			addrs = append(addrs, net.IPAddr{IP: r.AAAA})
		}
	}

	return addrs, nil
}
