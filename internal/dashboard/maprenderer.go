package dashboard

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/firemap/internal/domain"
	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/leaflet"
)

// MapView is the map library surface the renderer drives.
type MapView interface {
	AddTileLayer(urlTemplate, attribution string) leaflet.Layer
	AddMarker(pos geo.LatLng, popupHTML string) leaflet.Layer
	EachLayer(fn func(leaflet.Layer))
	RemoveLayer(id string) bool
	FitBounds(b geo.Bounds, padding [2]int)
	Scene() leaflet.Scene
}

// MapFactory creates a map view on a container with an initial view.
type MapFactory func(container string, center geo.LatLng, zoom int) MapView

// LeafletFactory returns a MapFactory producing leaflet maps.
func LeafletFactory(opts leaflet.Options) MapFactory {
	return func(container string, center geo.LatLng, zoom int) MapView {
		return leaflet.NewMap(container, center, zoom, opts)
	}
}

// MapConfig holds the fixed map defaults.
type MapConfig struct {
	Container       string
	Center          geo.LatLng
	Zoom            int
	TileURL         string
	TileAttribution string
	FitPadding      int
}

// MapRenderer owns the lazily created map handle. It is not safe for
// concurrent use; the Controller serialises calls.
type MapRenderer struct {
	cfg      MapConfig
	factory  MapFactory
	renderer *Renderer

	view        MapView
	initialized bool
}

// NewMapRenderer creates a renderer; no map exists until the first Render.
func NewMapRenderer(cfg MapConfig, factory MapFactory, renderer *Renderer) *MapRenderer {
	return &MapRenderer{cfg: cfg, factory: factory, renderer: renderer}
}

// Render shows incidents on the map and returns how many markers it placed.
// Previous markers are removed first; other layers stay. Incidents without
// coordinates are skipped. The view is fitted to the markers when there is
// at least one, otherwise it is left as it was.
func (r *MapRenderer) Render(incidents []domain.Incident) (int, error) {
	r.ensureMap()

	r.view.EachLayer(func(l leaflet.Layer) {
		if l.Kind == leaflet.LayerMarker {
			r.view.RemoveLayer(l.ID)
		}
	})

	var (
		points []geo.LatLng
		errs   []error
	)
	for _, inc := range incidents {
		pos, ok := inc.Coordinates()
		if !ok {
			continue
		}
		popup, err := r.renderer.Popup(NewCard(inc))
		if err != nil {
			errs = append(errs, fmt.Errorf("popup for %q: %w", inc.Location, err))
			continue
		}
		r.view.AddMarker(pos, popup)
		points = append(points, pos)
	}

	if bounds, ok := geo.BoundsOf(points...); ok {
		r.view.FitBounds(bounds, [2]int{r.cfg.FitPadding, r.cfg.FitPadding})
	}

	return len(points), errors.Join(errs...)
}

func (r *MapRenderer) ensureMap() {
	if r.initialized {
		return
	}
	r.view = r.factory(r.cfg.Container, r.cfg.Center, r.cfg.Zoom)
	r.view.AddTileLayer(r.cfg.TileURL, r.cfg.TileAttribution)
	r.initialized = true
	slog.Debug("map initialised",
		"container", r.cfg.Container,
		"center", r.cfg.Center.String(),
		"zoom", r.cfg.Zoom,
	)
}

// Scene returns the map scene, or an empty scene before the first Render.
func (r *MapRenderer) Scene() leaflet.Scene {
	if !r.initialized {
		return leaflet.Scene{
			Container: r.cfg.Container,
			View:      leaflet.View{Center: r.cfg.Center, Zoom: r.cfg.Zoom},
			Layers:    []leaflet.Layer{},
		}
	}
	return r.view.Scene()
}
