package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bissquit/firemap/internal/arcgis"
	"github.com/bissquit/firemap/internal/archive"
	archivepostgres "github.com/bissquit/firemap/internal/archive/postgres"
	"github.com/bissquit/firemap/internal/config"
	"github.com/bissquit/firemap/internal/feed"
	"github.com/bissquit/firemap/internal/geocoder"
	"github.com/bissquit/firemap/internal/geocoder/google"
	"github.com/bissquit/firemap/internal/geocoder/nominatim"
	"github.com/bissquit/firemap/internal/pkg/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Feed is the incident feed together with the resources it owns.
type Feed struct {
	Service *feed.Service
	cache   *geocoder.Cached
}

// Close releases the geocode cache.
func (f *Feed) Close() {
	if f.cache != nil {
		f.cache.Stop()
	}
}

// NewFeed wires the ArcGIS client, the configured geocoder and the feed
// service. recorder may be nil.
func NewFeed(cfg *config.Config, recorder feed.Recorder) (*Feed, error) {
	loc, err := time.LoadLocation(cfg.Feed.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Feed.Timezone, err)
	}

	client := arcgis.NewClient(arcgis.Config{
		LayerURL:     cfg.ArcGIS.LayerURL,
		APIKey:       cfg.ArcGIS.APIKey,
		Limit:        cfg.ArcGIS.Limit,
		Timeout:      cfg.ArcGIS.Timeout,
		RetryCount:   cfg.ArcGIS.RetryCount,
		RetryWait:    cfg.ArcGIS.RetryWait,
		RetryMaxWait: cfg.ArcGIS.RetryMaxWait,
	})

	gc, err := newGeocoder(cfg.Geocoder)
	if err != nil {
		return nil, err
	}

	f := &Feed{}
	if cfg.Geocoder.CacheTTL > 0 && cfg.Geocoder.Provider != "none" {
		f.cache = geocoder.NewCached(gc, cfg.Geocoder.CacheTTL)
		gc = f.cache
	}

	f.Service = feed.NewService(feed.Config{
		MinCrewCount: cfg.Feed.MinCrewCount,
		Location:     loc,
		CacheTTL:     cfg.Feed.CacheTTL,
	}, client, gc, recorder)

	return f, nil
}

func newGeocoder(cfg config.GeocoderConfig) (geocoder.Geocoder, error) {
	switch cfg.Provider {
	case nominatim.ProviderName:
		gc, err := nominatim.New(nominatim.Config{
			BaseURL:    cfg.NominatimURL,
			UserAgent:  cfg.UserAgent,
			Language:   cfg.Language,
			RateLimit:  cfg.RateLimit,
			Timeout:    cfg.Timeout,
			RetryCount: cfg.RetryCount,
		})
		if err != nil {
			return nil, fmt.Errorf("create nominatim geocoder: %w", err)
		}
		return gc, nil
	case google.ProviderName:
		gc, err := google.New(google.Config{
			APIKey:    cfg.GoogleAPIKey,
			Language:  cfg.Language,
			RateLimit: cfg.RateLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("create google geocoder: %w", err)
		}
		return gc, nil
	case "none", "":
		slog.Info("reverse geocoding disabled")
		return geocoder.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.Provider)
	}
}

// openArchive connects to the database, applies migrations and returns the
// archive service backed by it.
func openArchive(cfg config.DatabaseConfig) (*pgxpool.Pool, *archive.Service, error) {
	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectAttempts: cfg.ConnectAttempts,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := archivepostgres.Migrate(cfg.URL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate archive: %w", err)
	}

	return db, archive.NewService(archivepostgres.NewRepository(db)), nil
}
