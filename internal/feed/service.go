// Package feed builds the public incident feed from the ArcGIS layer.
package feed

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/bissquit/firemap/internal/arcgis"
	"github.com/bissquit/firemap/internal/domain"
	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/geocoder"
	"github.com/bissquit/firemap/internal/pkg/ctxlog"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// NoDataMessage is reported when the layer returned no features.
const NoDataMessage = "No data available"

const cacheKey = "incidents"

// Response is the /api/get_incidents body.
type Response struct {
	Error     string            `json:"error,omitempty"`
	Incidents []domain.Incident `json:"incidents"`
}

// FeatureSource queries upstream features.
type FeatureSource interface {
	QueryFeatures(ctx context.Context) ([]arcgis.Feature, error)
}

// Recorder receives every freshly built incident list.
type Recorder interface {
	RecordSightings(ctx context.Context, incidents []domain.Incident) error
}

// Config controls how features become incidents.
type Config struct {
	MinCrewCount int
	Location     *time.Location
	CacheTTL     time.Duration
}

// Service builds and caches the feed.
type Service struct {
	config   Config
	source   FeatureSource
	geocoder geocoder.Geocoder
	recorder Recorder

	cache *ttlcache.Cache[string, Response]
	group singleflight.Group
}

// NewService creates a feed service. recorder may be nil.
func NewService(config Config, source FeatureSource, gc geocoder.Geocoder, recorder Recorder) *Service {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if gc == nil {
		gc = geocoder.Noop{}
	}

	s := &Service{
		config:   config,
		source:   source,
		geocoder: gc,
		recorder: recorder,
	}
	if config.CacheTTL > 0 {
		s.cache = ttlcache.New(
			ttlcache.WithTTL[string, Response](config.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, Response](),
		)
	}
	return s
}

// Incidents returns the current feed. Upstream failures are logged and
// reported in the response body, never as an error: the feed always answers.
func (s *Service) Incidents(ctx context.Context) Response {
	if s.cache != nil {
		if item := s.cache.Get(cacheKey); item != nil {
			recordCache(true)
			return item.Value()
		}
		recordCache(false)
	}

	v, _, _ := s.group.Do(cacheKey, func() (any, error) {
		return s.build(context.WithoutCancel(ctx)), nil
	})
	return v.(Response)
}

func (s *Service) build(ctx context.Context) Response {
	start := time.Now()
	logger := ctxlog.FromContext(ctx)

	features, err := s.source.QueryFeatures(ctx)
	if err != nil {
		logger.Error("failed to query incident layer", "error", err)
		recordBuild("upstream_error", 0, time.Since(start))
		return noData()
	}
	if len(features) == 0 {
		logger.Info("incident layer returned no features")
		recordBuild("no_data", 0, time.Since(start))
		return noData()
	}

	incidents := make([]domain.Incident, 0, len(features))
	for _, f := range features {
		if f.Attributes.CrewCount < s.config.MinCrewCount {
			continue
		}
		inc, ok := s.incident(ctx, f)
		if !ok {
			logger.Debug("skipping feature without timestamp", "object_id", f.Attributes.ObjectID)
			continue
		}
		incidents = append(incidents, inc)
	}

	slices.SortFunc(incidents, func(a, b domain.Incident) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	resp := Response{Incidents: incidents}
	if s.cache != nil {
		s.cache.Set(cacheKey, resp, ttlcache.DefaultTTL)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordSightings(ctx, incidents); err != nil {
			logger.Error("failed to record incident sightings", "error", err)
		}
	}

	logger.Info("incident feed built",
		"features", len(features),
		"incidents", len(incidents),
		"duration", time.Since(start),
	)
	recordBuild("success", len(incidents), time.Since(start))
	return resp
}

func noData() Response {
	return Response{Error: NoDataMessage, Incidents: []domain.Incident{}}
}

// incident converts one feature. Features without a timestamp are rejected
// since their time of day is unknown.
func (s *Service) incident(ctx context.Context, f arcgis.Feature) (domain.Incident, bool) {
	a := f.Attributes
	if a.Timestamp == nil {
		return domain.Incident{}, false
	}

	inc := domain.Incident{
		ID:        a.ObjectID,
		Type:      Classify(a),
		Time:      time.UnixMilli(*a.Timestamp).In(s.config.Location).Format("15:04"),
		CrewCount: a.CrewCount,
		Phase:     UnknownPhase,
		Timestamp: *a.Timestamp,
	}
	if a.Phase != nil && *a.Phase != "" {
		inc.Phase = *a.Phase
	}

	var addr geocoder.Address
	if x, y, ok := f.Geometry.Point(); ok {
		if pos := geo.UTMToLatLng(x, y); pos.Valid() {
			inc.SetCoordinates(pos)
			addr = s.reverse(ctx, pos)
		} else {
			ctxlog.FromContext(ctx).Debug("dropping out-of-range geometry",
				"object_id", a.ObjectID, "x", x, "y", y)
		}
	}

	municipality := addr.Municipality
	if f.MunicipalityQueried && a.Municipality != "" {
		municipality = a.Municipality
	}
	inc.Location = FormatLocation(addr.Street, municipality)

	return inc, true
}

func (s *Service) reverse(ctx context.Context, p geo.LatLng) geocoder.Address {
	addr, err := s.geocoder.Reverse(ctx, p)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("reverse geocoding failed", "position", p.String(), "error", err)
		return geocoder.Address{}
	}
	return addr
}

// CacheTTL is how long a built feed is served from cache; zero disables caching.
func (s *Service) CacheTTL() time.Duration {
	return s.config.CacheTTL
}
