// Package google reverse geocodes with the Google Maps Geocoding API.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/geocoder"
	"googlemaps.github.io/maps"
)

// ProviderName labels this provider in logs and metrics.
const ProviderName = "google"

// Config holds Google Maps client settings.
type Config struct {
	APIKey    string
	Language  string
	RateLimit float64 // requests per second, 0 keeps the client default
	BaseURL   string
}

// Geocoder calls the reverse geocoding endpoint.
type Geocoder struct {
	client   *maps.Client
	language string
}

// New creates a Google geocoder.
func New(config Config) (*Geocoder, error) {
	if config.APIKey == "" {
		return nil, errors.New("google geocoder: api key is required")
	}

	opts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(int(math.Ceil(config.RateLimit))))
	}
	if config.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(config.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create google maps client: %w", err)
	}

	slog.Info("google geocoder configured", "language", config.Language, "rate_limit", config.RateLimit)

	return &Geocoder{client: client, language: config.Language}, nil
}

// Reverse resolves p using the first result that names a street or a place.
func (g *Geocoder) Reverse(ctx context.Context, p geo.LatLng) (geocoder.Address, error) {
	start := time.Now()
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
		Language: g.language,
	})
	geocoder.RecordRequest(ProviderName, err, time.Since(start))
	if err != nil {
		return geocoder.Address{}, fmt.Errorf("google reverse %s: %w", p, err)
	}
	if len(results) == 0 {
		return geocoder.Address{}, nil
	}

	return addressFrom(results[0]), nil
}

func addressFrom(result maps.GeocodingResult) geocoder.Address {
	var street, building, locality, town, county string
	for _, c := range result.AddressComponents {
		switch {
		case has(c, "route"):
			street = c.LongName
		case has(c, "premise"), has(c, "establishment"):
			building = c.LongName
		case has(c, "locality"):
			locality = c.LongName
		case has(c, "postal_town"):
			town = c.LongName
		case has(c, "administrative_area_level_2"):
			county = c.LongName
		}
	}

	addr := geocoder.Address{
		Street:       geocoder.FirstNonEmpty(street, building),
		Municipality: geocoder.FirstNonEmpty(locality, town, county),
	}
	if addr.Municipality == "" {
		addr.Municipality = geocoder.MunicipalityFromDisplayName(result.FormattedAddress)
	}
	return addr
}

func has(c maps.AddressComponent, kind string) bool {
	return slices.Contains(c.Types, kind)
}
