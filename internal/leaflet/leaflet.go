// Package leaflet is a server-side model of a Leaflet map. It supports the
// operations firemap needs (set view, tile layer, markers with popups, layer
// removal, fit to bounds) and exposes the result as a Scene that the
// dashboard page replays with Leaflet.js in the browser.
package leaflet

import (
	"fmt"
	"sync"

	"github.com/bissquit/firemap/internal/geo"
	"github.com/microcosm-cc/bluemonday"
)

// LayerKind identifies what a layer draws.
type LayerKind string

// Layer kinds.
const (
	LayerTile   LayerKind = "tile"
	LayerMarker LayerKind = "marker"
)

// Layer is one map layer.
type Layer struct {
	ID          string      `json:"id"`
	Kind        LayerKind   `json:"kind"`
	URL         string      `json:"url,omitempty"`
	Attribution string      `json:"attribution,omitempty"`
	Position    *geo.LatLng `json:"position,omitempty"`
	Popup       string      `json:"popup,omitempty"`
}

// View is the map viewport. When Bounds is set the browser fits to it with
// Padding; Center and Zoom carry the equivalent view for the configured viewport.
type View struct {
	Center  geo.LatLng  `json:"center"`
	Zoom    int         `json:"zoom"`
	Bounds  *geo.Bounds `json:"bounds,omitempty"`
	Padding [2]int      `json:"padding"`
}

// Scene is a point-in-time copy of the map.
type Scene struct {
	Container string  `json:"container"`
	View      View    `json:"view"`
	Layers    []Layer `json:"layers"`
	Revision  uint64  `json:"revision"`
}

// Options tune view fitting and popup sanitising.
type Options struct {
	MaxZoom  int
	Viewport geo.Size
	// Policy sanitises popup and attribution HTML; defaults to bluemonday.UGCPolicy.
	Policy *bluemonday.Policy
}

// Map is safe for concurrent use.
type Map struct {
	mu        sync.RWMutex
	container string
	view      View
	layers    []Layer
	nextID    uint64
	revision  uint64
	opts      Options
}

// NewMap creates a map bound to a container element and sets its initial view.
func NewMap(container string, center geo.LatLng, zoom int, opts Options) *Map {
	if opts.Policy == nil {
		opts.Policy = bluemonday.UGCPolicy()
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 18
	}
	return &Map{
		container: container,
		view:      View{Center: center, Zoom: zoom},
		opts:      opts,
	}
}

// AddTileLayer adds a background tile layer.
func (m *Map) AddTileLayer(urlTemplate, attribution string) Layer {
	return m.add(Layer{
		Kind:        LayerTile,
		URL:         urlTemplate,
		Attribution: m.opts.Policy.Sanitize(attribution),
	})
}

// AddMarker places a marker with a popup. popupHTML is sanitised.
func (m *Map) AddMarker(pos geo.LatLng, popupHTML string) Layer {
	p := pos
	return m.add(Layer{
		Kind:     LayerMarker,
		Position: &p,
		Popup:    m.opts.Policy.Sanitize(popupHTML),
	})
}

func (m *Map) add(l Layer) Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = fmt.Sprintf("%s-%d", l.Kind, m.nextID)
	m.layers = append(m.layers, l)
	m.revision++
	return l
}

// EachLayer calls fn for every layer in insertion order. fn runs on a copy,
// so it may call RemoveLayer.
func (m *Map) EachLayer(fn func(Layer)) {
	m.mu.RLock()
	layers := make([]Layer, len(m.layers))
	copy(layers, m.layers)
	m.mu.RUnlock()

	for _, l := range layers {
		fn(l)
	}
}

// RemoveLayer removes the layer with the given id. It reports whether it existed.
func (m *Map) RemoveLayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.layers {
		if l.ID == id {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			m.revision++
			return true
		}
	}
	return false
}

// FitBounds sets the view so that b is visible with padding (x, y) pixels.
func (m *Map) FitBounds(b geo.Bounds, padding [2]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bounds := b
	m.view = View{
		Center:  b.Center(),
		Zoom:    geo.BoundsZoom(b, m.opts.Viewport, max(padding[0], padding[1]), m.opts.MaxZoom),
		Bounds:  &bounds,
		Padding: padding,
	}
	m.revision++
}

// View returns the current viewport.
func (m *Map) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// Scene returns a deep copy of the map state.
func (m *Map) Scene() Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layers := make([]Layer, len(m.layers))
	for i, l := range m.layers {
		if l.Position != nil {
			p := *l.Position
			l.Position = &p
		}
		layers[i] = l
	}
	view := m.view
	if view.Bounds != nil {
		b := *view.Bounds
		view.Bounds = &b
	}

	return Scene{
		Container: m.container,
		View:      view,
		Layers:    layers,
		Revision:  m.revision,
	}
}

// Count returns how many layers of kind are on the map.
func (s Scene) Count(kind LayerKind) int {
	n := 0
	for _, l := range s.Layers {
		if l.Kind == kind {
			n++
		}
	}
	return n
}
