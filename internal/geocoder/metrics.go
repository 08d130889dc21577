package geocoder

import (
	"time"

	"github.com/bissquit/firemap/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "geocoder",
			Name:      "cache_lookups_total",
			Help:      "Geocode cache lookups by result",
		},
		[]string{"result"},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "geocoder",
			Name:      "cache_entries",
			Help:      "Positions held in the geocode cache",
		},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "geocoder",
			Name:      "requests_total",
			Help:      "Reverse geocoding requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "geocoder",
			Name:      "request_duration_seconds",
			Help:      "Reverse geocoding latency, retries and rate limiting included",
			Buckets:   metrics.UpstreamBuckets,
		},
		[]string{"provider"},
	)
)

func recordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// RecordRequest records one provider request. Providers call it once per Reverse.
func RecordRequest(provider string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	requestsTotal.WithLabelValues(provider, status).Inc()
	requestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
