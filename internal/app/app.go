// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bissquit/firemap/internal/archive"
	"github.com/bissquit/firemap/internal/config"
	"github.com/bissquit/firemap/internal/dashboard"
	"github.com/bissquit/firemap/internal/feed"
	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/leaflet"
	"github.com/bissquit/firemap/internal/pkg/ctxlog"
	"github.com/bissquit/firemap/internal/pkg/httputil"
	"github.com/bissquit/firemap/internal/pkg/metrics"
	"github.com/bissquit/firemap/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc

	feed       *Feed
	archive    *archive.Service
	controller *dashboard.Controller
	hub        *dashboard.Hub
	poller     *dashboard.Poller

	// warming is set while the first feed build runs; readiness fails meanwhile.
	warming atomic.Bool
}

// New creates a new application instance. The archive database is only
// connected when database.url is set.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)
	metrics.SetBuildInfo(version.Version, version.GitCommit)

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		metricsCancel: metricsCancel,
	}

	if cfg.Database.URL != "" {
		db, archiveService, err := openArchive(cfg.Database)
		if err != nil {
			metricsCancel()
			return nil, err
		}
		app.db = db
		app.archive = archiveService
		go metrics.CollectDBPoolMetrics(metricsCtx, db, 15*time.Second)
	} else {
		logger.Info("incident archive disabled", "reason", "database.url is empty")
	}

	var recorder feed.Recorder
	if app.archive != nil {
		recorder = app.archive
	}
	f, err := NewFeed(cfg, recorder)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("setup feed: %w", err)
	}
	app.feed = f

	router, err := app.setupRouter()
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers and the dashboard poller.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.startBackground(context.Background())

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"dashboard_source", a.config.DashboardSourceURL(),
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// startBackground builds the feed once, then starts the poller. Readiness
// fails until the first build finishes.
func (a *App) startBackground(ctx context.Context) {
	a.warming.Store(true)
	go a.warmUp(ctx)
}

func (a *App) warmUp(ctx context.Context) {
	start := time.Now()
	a.logger.Info("warming up incident feed")

	resp := a.feed.Service.Incidents(ctx)
	a.warming.Store(false)

	a.logger.Info("incident feed warmed up",
		"incidents", len(resp.Incidents),
		"feed_error", resp.Error,
		"duration", time.Since(start),
	)

	// The poller reads our own feed, which is now cached.
	a.poller.Start(ctx)
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Stop background refreshes first, then drop websocket clients: the
	// HTTP server does not track hijacked connections.
	a.poller.Stop()
	a.hub.Close()

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.closeResources()

	return errors.Join(errs...)
}

func (a *App) closeResources() {
	a.metricsCancel()
	if a.feed != nil {
		a.feed.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Controller returns the dashboard controller. Used in tests to drive refreshes.
func (a *App) Controller() *dashboard.Controller {
	return a.controller
}

// Hub returns the websocket hub.
func (a *App) Hub() *dashboard.Hub {
	return a.hub
}

func (a *App) setupRouter() (*chi.Mux, error) {
	renderer, err := dashboard.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create dashboard renderer: %w", err)
	}
	a.setupDashboard(renderer)

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Dashboard refreshes carry their own timeout and websocket
	// connections outlive any request timeout.
	dashboard.NewHandler(a.controller, renderer, a.hub).RegisterRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", a.healthzHandler)
		r.Get("/readyz", a.readyzHandler)
		r.Get("/version", a.versionHandler)

		r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/x-yaml")
			http.ServeFile(w, r, "api/openapi/openapi.yaml")
		})

		feed.NewHandler(a.feed.Service).RegisterRoutes(r)

		if a.archive != nil {
			archive.NewHandler(a.archive).RegisterRoutes(r)
		}
	})

	return r, nil
}

func (a *App) setupDashboard(renderer *dashboard.Renderer) {
	dc := a.config.Dashboard

	list := dashboard.NewList(renderer)
	maps := dashboard.NewMapRenderer(dashboard.MapConfig{
		Container:       dashboard.MapContainerID,
		Center:          geo.LatLng{Lat: dc.CenterLat, Lng: dc.CenterLon},
		Zoom:            dc.Zoom,
		TileURL:         dc.TileURL,
		TileAttribution: dc.TileAttribution,
		FitPadding:      dc.FitPadding,
	}, dashboard.LeafletFactory(leaflet.Options{
		MaxZoom:  dc.MaxZoom,
		Viewport: geo.Size{Width: dc.ViewportWidth, Height: dc.ViewportHeight},
	}), renderer)

	source := dashboard.NewHTTPSource(a.config.DashboardSourceURL(), dc.RequestTimeout)

	a.controller = dashboard.NewController(dashboard.ControllerConfig{
		Timeout:            dc.RequestTimeout,
		ResetMapOnAppError: dc.ResetMapOnAppError,
	}, source, list, maps)

	a.hub = dashboard.NewHub(a.config.CORS.AllowedOrigins)
	a.controller.OnRefresh(a.hub.Broadcast)

	a.poller = dashboard.NewPoller(a.controller, dc.RefreshInterval)
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if a.warming.Load() {
		httputil.Text(w, http.StatusServiceUnavailable, "Warming up incident feed")
		return
	}

	if a.db == nil {
		httputil.Text(w, http.StatusOK, "OK")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Info())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
