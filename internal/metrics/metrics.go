// Package metrics registers the engine's Prometheus collectors.  All
// collectors live on the default registry and are served by the
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reservations counts quota reservation attempts by outcome:
	// granted, quota_exceeded, retry_later, error.
	Reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_reservations_total",
		Help: "Quota reservation attempts by outcome.",
	}, []string{"result"})

	// LockContention counts distributed mutex acquisitions that hit the
	// bounded retry limit, by scope (stage or zone).
	LockContention = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_lock_contention_total",
		Help: "Distributed lock acquisitions abandoned after bounded retries.",
	}, []string{"scope"})

	// Transitions counts completed stage transitions by reason.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_stage_transitions_total",
		Help: "Completed pricing stage transitions by reason.",
	}, []string{"reason"})

	// CacheFallbacks counts reads served from the database because the
	// counter cache was unavailable.
	CacheFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_cache_fallbacks_total",
		Help: "Counter reads that fell back to the database.",
	}, []string{"counter"})

	// InventoryLocks counts inventory lock attempts by outcome:
	// granted, seat_conflict, capacity_exceeded, retry_later, error.
	InventoryLocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_lock_attempts_total",
		Help: "Inventory lock attempts by outcome.",
	}, []string{"result"})

	// Swept counts rows expired by the background sweeper, by kind
	// (reservation or lock).
	Swept = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_swept_total",
		Help: "Reservations and inventory locks expired by the sweeper.",
	}, []string{"kind"})

	// Quotes counts price quotes served.
	Quotes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_quotes_total",
		Help: "Price quotes served.",
	})
)
