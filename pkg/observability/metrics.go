// Package observability provides metrics capabilities for the gateway.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics namespace for all ostrich-api metrics.
const metricsNamespace = "ostrich_api"

// Request metrics.
var (
	// RequestsTotal counts gateway requests by operation and HTTP status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Total number of gateway requests",
		},
		[]string{"operation", "status"},
	)

	// RequestDuration measures request handling duration in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of gateway request handling in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation"},
	)
)

// Provider metrics.
var (
	// ProviderCallsTotal counts identity provider calls by operation and outcome.
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "provider_calls_total",
			Help:      "Total identity provider calls",
		},
		[]string{"operation", "outcome"},
	)

	// ProviderReachable reports the last observed provider reachability (1 or 0).
	ProviderReachable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "provider_reachable",
			Help:      "Whether the identity provider was reachable at the last probe",
		},
	)
)
