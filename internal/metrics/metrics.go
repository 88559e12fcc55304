// Package metrics holds the Prometheus collectors for the discovery engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests counts cache reads by outcome: hit, miss or error.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_cache_requests_total",
			Help: "Total number of discovery cache reads by result",
		},
		[]string{"cache", "result"},
	)

	// CacheWrites counts cache writes by outcome: ok or error.
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_cache_writes_total",
			Help: "Total number of discovery cache writes by result",
		},
		[]string{"cache", "result"},
	)

	// Fallbacks counts which tier of a fallback chain produced a result.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_fallback_total",
			Help: "Total number of discovery responses by fallback tier",
		},
		[]string{"operation", "tier"},
	)

	// SearchDegraded counts searches answered empty because the text index is unavailable.
	SearchDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_search_degraded_total",
			Help: "Total number of searches answered empty because the text index is unavailable",
		},
	)

	// OperationDuration observes the latency of each discovery operation.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_operation_duration_seconds",
			Help:    "Duration of discovery operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// HTTPRequests counts API requests by route template and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration observes API request latency by route template.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveSince records the time elapsed since start for operation.
func ObserveSince(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
