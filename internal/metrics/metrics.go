// Package metrics defines the Prometheus instrumentation for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal tracks individual call attempts by outcome
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcgate_attempts_total",
			Help: "Total number of RPC call attempts",
		},
		[]string{"method", "outcome"},
	)

	// RetriesTotal tracks backoff retries per method
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcgate_retries_total",
			Help: "Total number of retries after backoff",
		},
		[]string{"method"},
	)

	// ErrorsTotal tracks terminal classified failures by severity
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcgate_errors_total",
			Help: "Total number of terminal classified errors",
		},
		[]string{"severity"},
	)

	// CallLatency tracks end-to-end call latency including retries
	CallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpcgate_call_latency_seconds",
			Help:    "RPC call latency in seconds, including backoff",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// BlacklistsTotal tracks blacklist transitions per endpoint
	BlacklistsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcgate_blacklists_total",
			Help: "Total number of endpoint blacklist transitions",
		},
		[]string{"endpoint"},
	)

	// BlacklistedEndpoints tracks how many endpoints are quarantined now
	BlacklistedEndpoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rpcgate_blacklisted_endpoints",
			Help: "Number of endpoints currently blacklisted",
		},
	)
)
