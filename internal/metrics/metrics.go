// Package metrics holds the Prometheus collectors of the contact service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionOutcomes counts processed submissions by outcome kind
	SubmissionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact",
		Name:      "submissions_total",
		Help:      "Contact submissions by outcome.",
	}, []string{"outcome"})

	// RateLimitStoreErrors counts counter store failures by operation
	RateLimitStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact",
		Name:      "ratelimit_store_errors_total",
		Help:      "Rate limit store failures; load failures fail open.",
	}, []string{"op"})

	// DispatchDuration observes notification transport latency
	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contact",
		Name:      "dispatch_duration_seconds",
		Help:      "Time spent handing a notification to its transport.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"transport", "result"})

	// FloodGuardRejections counts requests refused by the global limiter
	FloodGuardRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contact",
		Name:      "flood_guard_rejections_total",
		Help:      "Requests refused by the process-wide flood guard.",
	})
)
