package dashboard

import (
	"time"

	"github.com/bissquit/firemap/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "refreshes_total",
			Help:      "Dashboard refresh cycles by outcome",
		},
		[]string{"outcome"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "refresh_duration_seconds",
			Help:      "Time to fetch and render the incident feed",
			Buckets:   metrics.UpstreamBuckets,
		},
	)

	refreshesShared = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "refreshes_joined_total",
			Help:      "Refresh calls that joined an in-flight refresh",
		},
	)

	displayedIncidents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "incidents",
			Help:      "Incidents shown in the list after the last refresh",
		},
	)

	displayedMarkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "markers",
			Help:      "Markers on the map after the last refresh",
		},
	)

	websocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		},
	)

	websocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "dashboard",
			Name:      "websocket_dropped_total",
			Help:      "Websocket clients dropped for falling behind on snapshots",
		},
	)
)

func recordRefresh(result Result, duration time.Duration) {
	refreshesTotal.WithLabelValues(string(result.Outcome)).Inc()
	refreshDuration.Observe(duration.Seconds())
	displayedIncidents.Set(float64(result.Incidents))
	displayedMarkers.Set(float64(result.Markers))
}
