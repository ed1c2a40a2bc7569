package lookup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/TomasB/diggeo/internal/data"
)

// Summary counts the outcome of a run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Handler looks up IP addresses one after another and prints the results.
type Handler struct {
	lookup data.CountryLookup
}

// NewHandler creates a new lookup handler with the given CountryLookup.
func NewHandler(lookup data.CountryLookup) *Handler {
	return &Handler{lookup: lookup}
}

// Run looks up every IP in order. Results go to stdout as `ip:country`.
// A failed lookup is reported on stderr and does not stop the run.
func (h *Handler) Run(ctx context.Context, ips []string, stdout, stderr io.Writer) Summary {
	sum := Summary{Total: len(ips)}

	for _, ip := range ips {
		country, err := h.lookup.LookupCountry(ctx, ip)
		if err != nil {
			slog.Debug("country lookup failed", "ip", ip, "error", err)
			fmt.Fprintf(stderr, "Error fetching geolocation for %s: %v\n", ip, err)
			sum.Failed++
			continue
		}

		fmt.Fprintf(stdout, "%s:%s\n", ip, country)
		sum.Succeeded++
	}

	return sum
}
