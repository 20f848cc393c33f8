package service

import (
	"context"
	"errors"
	"log"

	"github.com/gerswin/2025v2POS-sub001/internal/cache"
	"github.com/gerswin/2025v2POS-sub001/internal/metrics"
)

// SoldStore is the durable side of the sold aggregate.
type SoldStore interface {
	Sold(ctx context.Context, stageID uint64) (int64, error)
	Correct(ctx context.Context, stageID uint64, sold int64) error
}

// QuantityTracker serves per-stage sold counters.  Reads go to Redis
// first and fall back to the database on a miss or outage; the durable
// aggregate is always the source of truth and the cache is reconciled
// with the authoritative total after every confirmed sale, so cached
// values can only ever lag, never diverge.
type QuantityTracker struct {
	store    SoldStore
	counters *cache.CounterCache
}

// NewQuantityTracker constructs a QuantityTracker.  counters may be nil,
// in which case every read hits the database.
func NewQuantityTracker(store SoldStore, counters *cache.CounterCache) *QuantityTracker {
	return &QuantityTracker{store: store, counters: counters}
}

// Sold returns the cumulative tickets sold under a stage.
func (t *QuantityTracker) Sold(ctx context.Context, stageID uint64) (int64, error) {
	if t.counters == nil {
		return t.store.Sold(ctx, stageID)
	}
	v, err := t.counters.Sold(ctx, stageID)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("sold counter cache degraded for stage %d: %v", stageID, err)
		metrics.CacheFallbacks.WithLabelValues("sold").Inc()
		return t.store.Sold(ctx, stageID)
	}
	sold, err := t.store.Sold(ctx, stageID)
	if err != nil {
		return 0, err
	}
	if err := t.counters.SetSold(ctx, stageID, sold); err != nil {
		log.Printf("sold counter cache repopulate failed for stage %d: %v", stageID, err)
	}
	return sold, nil
}

// Reconcile overwrites the cached counter with the authoritative total
// returned by a committed sale.  Called after the transaction commits;
// cache failures are logged, never propagated.
func (t *QuantityTracker) Reconcile(ctx context.Context, stageID uint64, sold int64) {
	if t.counters == nil {
		return
	}
	if err := t.counters.SetSold(ctx, stageID, sold); err != nil {
		log.Printf("sold counter reconcile failed for stage %d: %v", stageID, err)
	}
}

// Correct overwrites the durable sold counter and the cache.  This is
// the administrative path for refunds and data incidents.
func (t *QuantityTracker) Correct(ctx context.Context, stageID uint64, sold int64) error {
	if err := t.store.Correct(ctx, stageID, sold); err != nil {
		return err
	}
	t.Reconcile(ctx, stageID, sold)
	return nil
}
