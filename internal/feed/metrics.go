package feed

import (
	"time"

	"github.com/bissquit/firemap/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "builds_total",
			Help:      "Feed builds by result",
		},
		[]string{"result"},
	)

	buildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "build_duration_seconds",
			Help:      "Time to query, geocode and assemble the feed",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	feedIncidents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "incidents",
			Help:      "Incidents in the last successfully built feed",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "feed",
			Name:      "cache_lookups_total",
			Help:      "Feed cache lookups by result",
		},
		[]string{"result"},
	)
)

func recordBuild(result string, incidents int, duration time.Duration) {
	buildsTotal.WithLabelValues(result).Inc()
	buildDuration.Observe(duration.Seconds())
	if result == "success" {
		feedIncidents.Set(float64(incidents))
	}
}

func recordCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
