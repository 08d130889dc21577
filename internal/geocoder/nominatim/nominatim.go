// Package nominatim reverse geocodes with an OpenStreetMap Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Songmu/retry"
	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/geocoder"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ProviderName labels this provider in logs and metrics.
const ProviderName = "nominatim"

// Config holds Nominatim client settings.
type Config struct {
	BaseURL    string
	UserAgent  string
	Language   string
	RateLimit  float64 // requests per second, 0 means unlimited
	Timeout    time.Duration
	RetryCount uint
	RetryWait  time.Duration
}

// Geocoder calls GET /reverse.
type Geocoder struct {
	config  Config
	client  *resty.Client
	limiter *rate.Limiter
}

// New creates a Nominatim geocoder. The public server requires a
// descriptive user agent and at most one request per second.
func New(config Config) (*Geocoder, error) {
	if config.BaseURL == "" {
		return nil, errors.New("nominatim: base url is required")
	}
	if config.UserAgent == "" {
		return nil, errors.New("nominatim: user agent is required")
	}
	if config.RetryWait == 0 {
		config.RetryWait = time.Second
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json")

	slog.Info("nominatim geocoder configured",
		"base_url", config.BaseURL,
		"rate_limit", config.RateLimit,
		"language", config.Language,
	)

	return &Geocoder{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Reverse resolves p, retrying failed requests.
func (g *Geocoder) Reverse(ctx context.Context, p geo.LatLng) (geocoder.Address, error) {
	start := time.Now()

	var addr geocoder.Address
	err := retry.Retry(g.config.RetryCount+1, g.config.RetryWait, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		addr, err = g.reverse(ctx, p)
		if errors.Is(err, geocoder.ErrNoResult) {
			return nil
		}
		return err
	})
	geocoder.RecordRequest(ProviderName, err, time.Since(start))
	if err != nil {
		return geocoder.Address{}, fmt.Errorf("nominatim reverse %s: %w", p, err)
	}
	return addr, nil
}

func (g *Geocoder) reverse(ctx context.Context, p geo.LatLng) (geocoder.Address, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return geocoder.Address{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":         "jsonv2",
			"lat":            strconv.FormatFloat(p.Lat, 'f', -1, 64),
			"lon":            strconv.FormatFloat(p.Lng, 'f', -1, 64),
			"addressdetails": "1",
		})
	if g.config.Language != "" {
		req.SetQueryParam("accept-language", g.config.Language)
	}

	resp, err := req.Get("/reverse")
	if err != nil {
		return geocoder.Address{}, fmt.Errorf("request: %w", err)
	}
	if !resp.IsSuccess() {
		return geocoder.Address{}, fmt.Errorf("unexpected status: %d", resp.StatusCode())
	}

	var body reverseResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return geocoder.Address{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != "" {
		return geocoder.Address{}, fmt.Errorf("%w: %s", geocoder.ErrNoResult, body.Error)
	}

	return addressFrom(body), nil
}

func addressFrom(body reverseResponse) geocoder.Address {
	a := body.Address
	addr := geocoder.Address{
		Street:       geocoder.FirstNonEmpty(a["road"], a["building"], a["amenity"]),
		Municipality: geocoder.FirstNonEmpty(a["city"], a["town"], a["village"], a["county"]),
	}
	if addr.Municipality == "" {
		addr.Municipality = geocoder.MunicipalityFromDisplayName(body.DisplayName)
	}
	return addr
}
