// Package metrics holds the process-wide Prometheus collectors. Feature
// packages register their own collectors under Namespace.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every firemap metric.
const Namespace = "firemap"

// UpstreamBuckets suit calls to ArcGIS, geocoders and the dashboard feed,
// which are slow and retried.
var UpstreamBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 45}

var (
	// HTTPRequestDuration tracks latency per route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// DBPoolConnections tracks the archive pool.
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Number of archive database connections by state",
		},
		[]string{"state"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Always 1; labels carry the running build",
		},
		[]string{"version", "commit"},
	)
)

// SetBuildInfo publishes the running build.
func SetBuildInfo(version, commit string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit).Set(1)
}
