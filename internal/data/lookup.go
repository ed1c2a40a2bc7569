package data

import "context"

// CountryLookup defines the interface for IP-to-country lookups.
type CountryLookup interface {
	// LookupCountry returns the country name for the given IP address.
	// The address is passed through as given, so host names work as far as
	// the provider accepts them.
	LookupCountry(ctx context.Context, ip string) (string, error)

	// Close releases any resources held by the lookup implementation.
	Close() error
}
