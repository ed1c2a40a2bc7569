package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/TomasB/diggeo/internal/config"
)

// DefaultEndpoint is the ipgeolocation.io lookup endpoint.
const DefaultEndpoint = "https://api.ipgeolocation.io/ipgeo"

// UnknownCountry is reported when the response carries no usable country name.
const UnknownCountry = "Unknown"

// redactedKey replaces the API key in URLs that end up in error messages.
const redactedKey = "REDACTED"

var ErrLookup = errors.New("geolocation lookup failed")

// IPGeolocation implements CountryLookup using the ipgeolocation.io HTTP API.
type IPGeolocation struct {
	endpoint *url.URL
	apiKey   config.Secret
	client   *http.Client
}

// NewIPGeolocation creates a client for the API at endpoint.
// A zero timeout means requests are not bounded.
func NewIPGeolocation(endpoint string, apiKey config.Secret, timeout time.Duration) (*IPGeolocation, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	return &IPGeolocation{
		endpoint: u,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// countryField is the response key holding the country. It is matched
// exactly, unlike struct tags which encoding/json matches case-insensitively.
const countryField = "country_name"

// countryName accepts any JSON value and only keeps it if it is a string.
type countryName struct {
	value string
	valid bool
}

func (c *countryName) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}

	c.value, c.valid = s, true

	return nil
}

func (c countryName) String() string {
	if !c.valid {
		return UnknownCountry
	}

	return c.value
}

// LookupCountry fetches the country name for ip.
func (g *IPGeolocation) LookupCountry(ctx context.Context, ip string) (string, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.requestURL(ip, g.apiKey.Secret()), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookup, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = g.requestURL(ip, redactedKey)
		}

		return "", fmt.Errorf("%w: %w", ErrLookup, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrLookup, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("geolocation api returned non-success status", "ip", ip, "status", resp.StatusCode)
	}

	name, err := parseCountry(body)
	if err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrLookup, err)
	}

	country := name.String()

	slog.Debug("geolocation lookup completed",
		"ip", ip,
		"country", country,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return country, nil
}

// parseCountry reads the top-level country_name of a response body.
func parseCountry(body []byte) (countryName, error) {
	var name countryName

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// valid JSON, but not an object
			return name, nil
		}
		return name, err
	}

	raw, ok := fields[countryField]
	if !ok {
		return name, nil
	}

	if err := name.UnmarshalJSON(raw); err != nil {
		return name, err
	}

	return name, nil
}

func (g *IPGeolocation) requestURL(ip, apiKey string) string {
	u := *g.endpoint

	q := u.Query()
	q.Set("apiKey", apiKey)
	q.Set("ip", ip)
	u.RawQuery = q.Encode()

	return u.String()
}

// Close releases idle connections held by the HTTP client.
func (g *IPGeolocation) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
