package arcgis

import (
	"time"

	"github.com/bissquit/firemap/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "arcgis",
			Name:      "queries_total",
			Help:      "ArcGIS layer queries by result",
		},
		[]string{"result"},
	)

	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "arcgis",
			Name:      "query_duration_seconds",
			Help:      "Time to query the ArcGIS layer, retries included",
			Buckets:   metrics.UpstreamBuckets,
		},
	)
)

func recordQuery(result string, duration time.Duration) {
	queriesTotal.WithLabelValues(result).Inc()
	queryDuration.Observe(duration.Seconds())
}
