package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks served HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartswap",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartswap",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// SuggestionsTotal tracks returned suggestions by source
	SuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartswap",
			Subsystem: "suggestions",
			Name:      "returned_total",
			Help:      "Total number of suggestions returned by source",
		},
		[]string{"source"},
	)

	// SuggestionSoftErrors tracks degraded suggestion streams
	SuggestionSoftErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartswap",
			Subsystem: "suggestions",
			Name:      "soft_errors_total",
			Help:      "Total number of suggestion streams that degraded to empty",
		},
	)

	// FeedbackTotal tracks recorded retailer feedback
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartswap",
			Subsystem: "feedback",
			Name:      "recorded_total",
			Help:      "Total number of retailer feedback records by verdict",
		},
		[]string{"accepted"},
	)

	// RateLimitHits tracks requests rejected by the per-IP limiter
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartswap",
			Subsystem: "ratelimit",
			Name:      "hits_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
)
