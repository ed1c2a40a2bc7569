// Package input decides which IP addresses a run looks up.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/TomasB/diggeo/internal/resolve"
)

var (
	ErrNoInput   = errors.New("no input given")
	ErrNoIPv4    = errors.New("no IPv4 addresses found")
	ErrReadInput = errors.New("failed to read piped input")
)

// Mode names the source an IP list was taken from.
type Mode string

const (
	ModeDomain Mode = "domain"
	ModeDirect Mode = "direct"
	ModePiped  Mode = "piped"
	ModeNone   Mode = "none"
)

// Source describes where the IP list may come from. Exactly one source is
// used, checked in this order: domain, positional IPs, piped stdin.
type Source struct {
	// Domain is resolved when DomainSet is true, even if it is empty.
	Domain    string
	DomainSet bool

	IPs []string

	Stdin           io.Reader
	StdinIsTerminal bool
}

// Mode reports which source Collect will use.
func (s Source) Mode() Mode {
	switch {
	case s.DomainSet:
		return ModeDomain
	case len(s.IPs) > 0:
		return ModeDirect
	case !s.StdinIsTerminal && s.Stdin != nil:
		return ModePiped
	default:
		return ModeNone
	}
}

// Collect returns the IP addresses to look up. The resolver is only used
// for the domain source.
func Collect(ctx context.Context, src Source, r resolve.Resolver) ([]string, error) {
	mode := src.Mode()
	slog.Debug("collecting input", "mode", mode)

	switch mode {
	case ModeDomain:
		return fromDomain(ctx, r, src.Domain)
	case ModeDirect:
		return src.IPs, nil
	case ModePiped:
		return fromLines(src.Stdin)
	default:
		return nil, ErrNoInput
	}
}

func fromDomain(ctx context.Context, r resolve.Resolver, domain string) ([]string, error) {
	addrs, err := resolve.IPv4(ctx, r, domain)
	if err != nil {
		return nil, err
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w for domain: %s", ErrNoIPv4, domain)
	}

	ips := make([]string, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.String())
	}

	slog.Debug("domain resolved", "domain", domain, "count", len(ips))

	return ips, nil
}

// fromLines reads one entry per line, skipping blank lines.
func fromLines(r io.Reader) ([]string, error) {
	var out []string

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
	}
}
