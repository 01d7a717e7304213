package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeOK              = "ok"
	outcomeCached          = "cached"
	outcomeUnauthenticated = "unauthenticated"
	outcomeForbidden       = "forbidden"
	outcomeTransient       = "transient"
	outcomeConflict        = "conflict"
	outcomeFailed          = "failed"
	outcomeInvalid         = "invalid"
	outcomeTimeout         = "timeout"
)

var (
	reviewLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_review_loads_total",
			Help: "Review board loads by outcome",
		},
		[]string{"outcome"},
	)

	reviewDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_review_deletes_total",
			Help: "Review deletions by outcome",
		},
		[]string{"outcome"},
	)

	checkoutCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_checkout_calls_total",
			Help: "Checkout calls forwarded to the store API by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	settlementWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backoffice_checkout_settlement_wait_seconds",
			Help:    "Time spent waiting for a checkout session to leave pending",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
