package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/firemap/internal/domain"
	"github.com/bissquit/firemap/internal/leaflet"
	"github.com/bissquit/firemap/internal/pkg/ctxlog"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Outcome is how a refresh cycle ended.
type Outcome string

// Refresh outcomes.
const (
	OutcomeIncidents  Outcome = "incidents"
	OutcomeEmpty      Outcome = "empty"
	OutcomeAppError   Outcome = "app_error"
	OutcomeFetchError Outcome = "fetch_error"
)

// Result summarises one refresh cycle.
type Result struct {
	RefreshID string  `json:"refresh_id"`
	Outcome   Outcome `json:"outcome"`
	Incidents int     `json:"incidents"`
	Markers   int     `json:"markers"`
}

// Snapshot is the rendered dashboard state.
type Snapshot struct {
	State       ListState     `json:"state"`
	ListHTML    template.HTML `json:"list_html"`
	Scene       leaflet.Scene `json:"scene"`
	RefreshedAt *time.Time    `json:"refreshed_at,omitempty"`
}

// ControllerConfig tunes refresh cycles.
type ControllerConfig struct {
	Timeout time.Duration
	// ResetMapOnAppError clears the markers when the feed reports an
	// application error. When false the map keeps its previous markers.
	ResetMapOnAppError bool
}

// Controller runs fetch-and-render cycles. Concurrent Refresh calls join the
// cycle in flight; list and map writes happen under one lock.
type Controller struct {
	cfg    ControllerConfig
	source Source
	list   ListContainer
	maps   *MapRenderer

	group singleflight.Group

	mu          sync.RWMutex
	refreshedAt time.Time
	listeners   []func(Snapshot)
}

// NewController creates a controller; nothing is fetched until Refresh.
func NewController(cfg ControllerConfig, source Source, list ListContainer, maps *MapRenderer) *Controller {
	return &Controller{
		cfg:    cfg,
		source: source,
		list:   list,
		maps:   maps,
	}
}

// OnRefresh registers fn to receive the snapshot after every completed refresh.
func (c *Controller) OnRefresh(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

type refreshCall struct {
	result Result
	err    error
}

// Refresh fetches the feed once and re-renders the list and the map.
// The returned error, if any, wraps one of ErrTransport, ErrStatus,
// ErrMalformedPayload or ErrApplication; the dashboard has already been
// updated to show it. A canceled ctx does not abort a cycle other callers
// may be waiting on.
func (c *Controller) Refresh(ctx context.Context) (Result, error) {
	v, _, shared := c.group.Do("refresh", func() (any, error) {
		result, err := c.refresh(context.WithoutCancel(ctx))
		return refreshCall{result: result, err: err}, nil
	})
	if shared {
		refreshesShared.Inc()
	}
	call := v.(refreshCall)
	return call.result, call.err
}

func (c *Controller) refresh(ctx context.Context) (Result, error) {
	start := time.Now()
	result := Result{RefreshID: uuid.NewString()}
	ctx, logger := ctxlog.With(ctx, "refresh_id", result.RefreshID)

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	c.mu.Lock()
	c.list.ShowLoading()
	c.mu.Unlock()

	payload, fetchErr := c.source.Fetch(ctx)

	c.mu.Lock()
	err := c.apply(&result, payload, fetchErr)
	c.refreshedAt = time.Now().UTC()
	listeners := append([]func(Snapshot){}, c.listeners...)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	recordRefresh(result, time.Since(start))

	if err != nil {
		logger.Warn("dashboard refresh failed", "outcome", result.Outcome, "error", err)
	} else {
		logger.Info("dashboard refreshed",
			"outcome", result.Outcome,
			"incidents", result.Incidents,
			"markers", result.Markers,
			"duration", time.Since(start),
		)
	}

	for _, fn := range listeners {
		fn(snapshot)
	}

	return result, err
}

// apply writes the outcome of a fetch into the list and the map. Caller holds c.mu.
func (c *Controller) apply(result *Result, payload *Payload, fetchErr error) error {
	switch {
	case fetchErr != nil:
		result.Outcome = OutcomeFetchError
		c.list.ShowMessage(LevelError, fmt.Sprintf("Error loading incidents: %s. Please try again later.", fetchErr))
		c.renderMap(result, nil)
		return fetchErr

	case payload.Error != "":
		result.Outcome = OutcomeAppError
		c.list.ShowMessage(LevelError, fmt.Sprintf("Error loading incidents: %s", payload.Error))
		if c.cfg.ResetMapOnAppError {
			c.renderMap(result, nil)
		}
		return fmt.Errorf("%w: %s", ErrApplication, payload.Error)

	case len(payload.Incidents) == 0:
		result.Outcome = OutcomeEmpty
		c.list.ShowMessage(LevelInfo, NoIncidentsMessage)
		c.renderMap(result, nil)
		return nil
	}

	incidents := payload.Incidents
	if err := SortIncidents(incidents); err != nil {
		result.Outcome = OutcomeFetchError
		err = fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		c.list.ShowMessage(LevelError, fmt.Sprintf("Error loading incidents: %s. Please try again later.", err))
		c.renderMap(result, nil)
		return err
	}

	cards := make([]Card, 0, len(incidents))
	for _, inc := range incidents {
		cards = append(cards, NewCard(inc))
	}

	result.Outcome = OutcomeIncidents
	result.Incidents = len(cards)
	c.list.ShowCards(cards)
	c.renderMap(result, incidents)
	return nil
}

func (c *Controller) renderMap(result *Result, incidents []domain.Incident) {
	markers, err := c.maps.Render(incidents)
	result.Markers = markers
	if err != nil {
		slog.Error("failed to render some markers", "error", err)
	}
}

// Snapshot returns the current dashboard state without refreshing.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    c.list.State(),
		ListHTML: c.list.HTML(),
		Scene:    c.maps.Scene(),
	}
	if !c.refreshedAt.IsZero() {
		at := c.refreshedAt
		s.RefreshedAt = &at
	}
	return s
}
