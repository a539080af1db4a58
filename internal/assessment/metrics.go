package assessment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts lifecycle transitions.
	// Labels: to (target state)
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tierlab",
			Subsystem: "assessment",
			Name:      "transitions_total",
			Help:      "Total number of lifecycle transitions by target state",
		},
		[]string{"to"},
	)

	// DialogueFailures counts tutor turns that failed at the Dialogue Service.
	DialogueFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tierlab",
			Subsystem: "assessment",
			Name:      "dialogue_failures_total",
			Help:      "Total number of dialogue turns that failed at the dialogue service",
		},
	)

	// StoreFailures counts failed Record Store operations.
	// Labels: op (read, write)
	StoreFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tierlab",
			Subsystem: "assessment",
			Name:      "store_failures_total",
			Help:      "Total number of failed record store operations",
		},
		[]string{"op"},
	)

	// TracesDropped counts traces lost to failed flushes.
	TracesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tierlab",
			Subsystem: "assessment",
			Name:      "traces_dropped_total",
			Help:      "Total number of buffered traces dropped after a failed flush",
		},
	)
)
