package geo

import "math"

const (
	tileSize  = 256.0
	maxMercat = 85.0511287798
)

// Size is a viewport size in CSS pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// project returns spherical Web Mercator pixel coordinates at zoom 0.
func project(p LatLng) (x, y float64) {
	lat := math.Max(math.Min(p.Lat, maxMercat), -maxMercat)
	sin := math.Sin(lat * math.Pi / 180)
	x = tileSize * (p.Lng + 180) / 360
	y = tileSize * (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi))
	return x, y
}

// BoundsZoom returns the highest integer zoom at which b fits inside the
// viewport after removing padding on every side, clamped to [0, maxZoom].
// It follows Leaflet's getBoundsZoom with zoomSnap 1.
func BoundsZoom(b Bounds, viewport Size, padding int, maxZoom int) int {
	w := float64(viewport.Width - 2*padding)
	h := float64(viewport.Height - 2*padding)
	if w <= 0 || h <= 0 {
		return 0
	}

	x1, y1 := project(LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng})
	x2, y2 := project(LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng})
	bw, bh := math.Abs(x2-x1), math.Abs(y2-y1)

	if bw == 0 && bh == 0 {
		return maxZoom
	}

	scale := math.Inf(1)
	if bw > 0 {
		scale = w / bw
	}
	if bh > 0 {
		scale = math.Min(scale, h/bh)
	}

	zoom := int(math.Floor(math.Log2(scale)))
	return min(max(zoom, 0), maxZoom)
}
