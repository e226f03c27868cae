package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costsage",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "costsage",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costsage",
		Name:      "llm_requests_total",
		Help:      "Completion calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "costsage",
		Name:      "llm_request_duration_seconds",
		Help:      "Completion latency including retries.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	ExpensesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "costsage",
		Name:      "expenses_created_total",
		Help:      "Expense records inserted.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "costsage",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"route"})
)
