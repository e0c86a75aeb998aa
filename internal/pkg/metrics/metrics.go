// Package metrics holds the Prometheus collectors for moderation and aggregation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModerationTransitions counts status changes by entity, action and resulting status
	ModerationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "moderation_transitions_total",
			Help:      "Moderation state transitions",
		},
		[]string{"entity", "action", "status"},
	)

	// AggregateRecomputes counts derived-field recomputations
	AggregateRecomputes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "aggregate_recomputes_total",
			Help:      "Derived field recomputations",
		},
		[]string{"kind"},
	)

	// AggregateDrift counts stored aggregates found stale and repaired by the audit worker
	AggregateDrift = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "aggregate_drift_repaired_total",
			Help:      "Product aggregates repaired after drift was detected",
		},
	)

	// VotesCast counts helpfulness votes by outcome
	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "votes_cast_total",
			Help:      "Helpfulness votes by outcome (inserted, flipped, unchanged)",
		},
		[]string{"outcome"},
	)

	// CacheLookups counts read cache hits and misses
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "cache_lookups_total",
			Help:      "Read cache lookups",
		},
		[]string{"cache", "result"},
	)
)
