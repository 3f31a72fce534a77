package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks processed requests per route and task type
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_requests_total",
			Help: "Total number of processed requests",
		},
		[]string{"route", "task_type"},
	)

	// CacheLookupsTotal tracks response cache lookups by outcome
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_cache_lookups_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"outcome"},
	)

	// CloudErrorsTotal tracks cloud call failures per error code
	CloudErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_cloud_errors_total",
			Help: "Total number of failed cloud calls",
		},
		[]string{"adapter", "code"},
	)

	// RequestLatency tracks end-to-end request latency per route
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_request_latency_seconds",
			Help:    "End-to-end request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// CloudCostUSD tracks accumulated cloud spend
	CloudCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_cloud_cost_usd_total",
			Help: "Accumulated cloud spend in USD",
		},
		[]string{"adapter", "model"},
	)

	// CircuitState tracks the cloud circuit breaker state (0 closed, 1 open, 2 half-open)
	CircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_circuit_state",
			Help: "Cloud circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
	)
)
