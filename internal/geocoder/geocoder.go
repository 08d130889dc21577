// Package geocoder turns coordinates into street and municipality names.
package geocoder

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/bissquit/firemap/internal/geo"
)

// ErrNoResult is returned when the provider knows nothing about a position.
var ErrNoResult = errors.New("no geocoding result")

// Address is the part of a reverse geocoding result firemap displays.
type Address struct {
	Street       string `json:"street,omitempty"`
	Municipality string `json:"municipality,omitempty"`
}

// IsZero reports whether nothing was resolved.
func (a Address) IsZero() bool {
	return a.Street == "" && a.Municipality == ""
}

// Geocoder resolves a position to an address.
type Geocoder interface {
	Reverse(ctx context.Context, p geo.LatLng) (Address, error)
}

// Noop never resolves anything. It backs the "none" provider.
type Noop struct{}

// Reverse returns an empty address.
func (Noop) Reverse(context.Context, geo.LatLng) (Address, error) {
	return Address{}, nil
}

var ignoredRegions = map[string]struct{}{
	"catalunya": {},
	"españa":    {},
}

// MunicipalityFromDisplayName guesses the municipality from a comma separated
// full address: the last part that has no digits, is longer than two
// characters and is not the region or country name.
func MunicipalityFromDisplayName(displayName string) string {
	parts := strings.Split(displayName, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.TrimSpace(parts[i])
		if len([]rune(p)) <= 2 || strings.ContainsFunc(p, unicode.IsDigit) {
			continue
		}
		if _, ignored := ignoredRegions[strings.ToLower(p)]; ignored {
			continue
		}
		return p
	}
	return ""
}

// FirstNonEmpty returns the first non-empty value.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
