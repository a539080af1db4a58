package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts Generate calls.
	// Labels: purpose, result (success, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tierlab",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total number of LLM requests by purpose and result",
		},
		[]string{"purpose", "result"},
	)

	// RequestDuration tracks provider latency in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tierlab",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"purpose"},
	)

	// TokensTotal counts tokens consumed.
	// Labels: direction (input, output)
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tierlab",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total number of tokens consumed by direction",
		},
		[]string{"direction"},
	)
)
