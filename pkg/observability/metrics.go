// Package observability provides Prometheus metrics for the rechner
// service. Metrics are registered with the default registry at init
// time and exposed through promhttp on the configured metrics path.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine and session metrics.
var (
	// KeypressesTotal counts key presses by kind.
	KeypressesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rechner_keypresses_total",
			Help: "Total number of key presses applied, by key kind.",
		},
		[]string{"kind"},
	)

	// EvaluationsTotal counts equals evaluations by outcome.
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rechner_evaluations_total",
			Help: "Total number of equation evaluations, by outcome (ok or error).",
		},
		[]string{"outcome"},
	)

	// PressDuration observes key press handling latency in seconds.
	PressDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rechner_keypress_duration_seconds",
			Help:    "Time spent applying a key press to a session engine.",
			Buckets: []float64{.000001, .00001, .0001, .001, .01, .1},
		},
	)

	// SessionsActive tracks the number of live sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rechner_sessions_active",
			Help: "Number of calculator sessions currently held in memory.",
		},
	)

	// SessionsCreatedTotal counts session creations.
	SessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rechner_sessions_created_total",
			Help: "Total number of sessions created.",
		},
	)

	// SessionsEvictedTotal counts sessions evicted at capacity.
	SessionsEvictedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rechner_sessions_evicted_total",
			Help: "Total number of sessions evicted because the store was full.",
		},
	)
)

// HTTP metrics.
var (
	// RequestsTotal counts HTTP requests by method, route pattern, and
	// status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rechner_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration observes HTTP request latency in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rechner_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate
	// limiter, by service tier.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rechner_ratelimit_rejected_total",
			Help: "Total number of requests rejected by the rate limiter.",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		KeypressesTotal,
		EvaluationsTotal,
		PressDuration,
		SessionsActive,
		SessionsCreatedTotal,
		SessionsEvictedTotal,
		RequestsTotal,
		RequestDuration,
		RateLimitRejectedTotal,
	)
}
