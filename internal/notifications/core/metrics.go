package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the dispatch pipeline. Exposed on the service's
// /metrics endpoint.
var (
	// DispatchedTotal counts events accepted by the dispatch engine,
	// before policy evaluation.
	DispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_dispatched_total",
			Help: "Total number of events handed to the dispatch engine",
		},
		[]string{"action"},
	)

	// SuppressedTotal counts events suppressed by the exclusion policy,
	// labelled with the policy layer that matched.
	SuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_suppressed_total",
			Help: "Total number of events suppressed by the exclusion policy",
		},
		[]string{"action", "layer"},
	)

	// deliveryTotal counts per-destination delivery outcomes.
	deliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_delivery_total",
			Help: "Total number of webhook delivery outcomes",
		},
		[]string{"result"}, // result: success|failure|breaker_open
	)

	// deliveryDuration tracks the wall time of a full per-destination
	// attempt sequence, including rate-limit sleeps.
	deliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatrelay_delivery_duration_seconds",
			Help:    "Webhook delivery duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// rateLimitHits counts rate-limit responses that triggered a retry sleep.
	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_rate_limit_hits_total",
			Help: "Total number of destination rate-limit responses",
		},
	)
)

// DeliveryOutcome labels for deliveryTotal.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeBreakerOpen = "breaker_open"
)

// RecordDelivery records a per-destination delivery outcome and its duration.
func RecordDelivery(result string, duration time.Duration) {
	deliveryTotal.WithLabelValues(result).Inc()
	deliveryDuration.Observe(duration.Seconds())
}

// RecordRateLimitHit records a destination rate-limit response.
func RecordRateLimitHit() {
	rateLimitHits.Inc()
}
