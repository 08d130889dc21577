// Package config loads firemap configuration from defaults, an optional YAML
// file and FIREMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Sections are separated
// by a double underscore: FIREMAP_SERVER__METRICS_PORT -> server.metrics_port.
const EnvPrefix = "FIREMAP_"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	CORS      CORSConfig      `koanf:"cors"`
	Database  DatabaseConfig  `koanf:"database"`
	ArcGIS    ArcGISConfig    `koanf:"arcgis"`
	Feed      FeedConfig      `koanf:"feed"`
	Geocoder  GeocoderConfig  `koanf:"geocoder"`
	Dashboard DashboardConfig `koanf:"dashboard"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required,numeric"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required,numeric,nefield=Port"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// CORSConfig holds allowed origins for browser clients.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// DatabaseConfig holds the optional incident archive database settings.
// An empty URL disables the archive.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"gte=1"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"gt=0"`
}

// ArcGISConfig holds the upstream FeatureServer settings.
type ArcGISConfig struct {
	LayerURL     string        `koanf:"layer_url" validate:"required,url"`
	APIKey       string        `koanf:"api_key"`
	Limit        int           `koanf:"limit" validate:"min=1,max=2000"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	RetryCount   int           `koanf:"retry_count" validate:"gte=0"`
	RetryWait    time.Duration `koanf:"retry_wait" validate:"gte=0"`
	RetryMaxWait time.Duration `koanf:"retry_max_wait" validate:"gtefield=RetryWait"`
}

// FeedConfig controls how upstream features become feed incidents.
type FeedConfig struct {
	MinCrewCount int           `koanf:"min_crew_count" validate:"gte=0"`
	Timezone     string        `koanf:"timezone" validate:"required,timezone"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// GeocoderConfig selects and tunes the reverse geocoding provider.
type GeocoderConfig struct {
	Provider     string        `koanf:"provider" validate:"oneof=nominatim google none"`
	UserAgent    string        `koanf:"user_agent" validate:"required_if=Provider nominatim"`
	NominatimURL string        `koanf:"nominatim_url" validate:"required_if=Provider nominatim,omitempty,url"`
	GoogleAPIKey string        `koanf:"google_api_key" validate:"required_if=Provider google"`
	Language     string        `koanf:"language"`
	RateLimit    float64       `koanf:"rate_limit" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	RetryCount   uint          `koanf:"retry_count"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// DashboardConfig controls the dashboard controller and its map.
type DashboardConfig struct {
	SourceURL          string        `koanf:"source_url" validate:"omitempty,url"`
	RefreshInterval    time.Duration `koanf:"refresh_interval" validate:"gte=0"`
	RequestTimeout     time.Duration `koanf:"request_timeout" validate:"gt=0"`
	CenterLat          float64       `koanf:"center_lat" validate:"latitude"`
	CenterLon          float64       `koanf:"center_lon" validate:"longitude"`
	Zoom               int           `koanf:"zoom" validate:"min=0,max=19"`
	MaxZoom            int           `koanf:"max_zoom" validate:"gtefield=Zoom,max=19"`
	TileURL            string        `koanf:"tile_url" validate:"required"`
	TileAttribution    string        `koanf:"tile_attribution"`
	FitPadding         int           `koanf:"fit_padding" validate:"gte=0"`
	ViewportWidth      int           `koanf:"viewport_width" validate:"gt=0"`
	ViewportHeight     int           `koanf:"viewport_height" validate:"gt=0"`
	ResetMapOnAppError bool          `koanf:"reset_map_on_app_error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			ConnectAttempts: 5,
			ConnectTimeout:  60 * time.Second,
		},
		ArcGIS: ArcGISConfig{
			LayerURL: "https://services7.arcgis.com/ZCqVt1fRXwwK6GF4/arcgis/rest/services/" +
				"ACTUACIONS_URGENTS_online_PRO_AMB_FASE_VIEW/FeatureServer/0",
			Limit:        50,
			Timeout:      30 * time.Second,
			RetryCount:   3,
			RetryWait:    2 * time.Second,
			RetryMaxWait: 16 * time.Second,
		},
		Feed: FeedConfig{
			MinCrewCount: 1,
			Timezone:     "Europe/Madrid",
			CacheTTL:     60 * time.Second,
		},
		Geocoder: GeocoderConfig{
			Provider:     "nominatim",
			UserAgent:    "bombers_web_app",
			NominatimURL: "https://nominatim.openstreetmap.org",
			Language:     "ca",
			RateLimit:    1,
			Timeout:      15 * time.Second,
			RetryCount:   2,
			CacheTTL:     24 * time.Hour,
		},
		Dashboard: DashboardConfig{
			RequestTimeout:  45 * time.Second,
			CenterLat:       41.3851,
			CenterLon:       2.1734,
			Zoom:            8,
			MaxZoom:         18,
			TileURL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			TileAttribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
			FitPadding:      50,
			ViewportWidth:   1024,
			ViewportHeight:  600,
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env is fine.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded", "file", path, "keys", len(k.Keys()))
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DashboardSourceURL returns the feed URL the dashboard polls. When not set
// explicitly it points at this server's own feed endpoint.
func (c *Config) DashboardSourceURL() string {
	if c.Dashboard.SourceURL != "" {
		return c.Dashboard.SourceURL
	}
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%s", host, c.Server.Port)
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
