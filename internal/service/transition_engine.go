package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/cache"
	"github.com/gerswin/2025v2POS-sub001/internal/metrics"
	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/queue"
	"github.com/gerswin/2025v2POS-sub001/internal/repository"
)

// TransitionEngine ends pricing stages when their date window closes,
// their quota is exhausted, or an operator asks.  Ending a stage means
// exactly two durable effects in one transaction: the stage row goes
// inactive and an immutable transition record is appended.  No stage is
// ever activated here; resolution picks up the successor naturally once
// the old stage is gone.
//
// Processing is idempotent under concurrency three ways: the per-stage
// mutex serializes processors, the transition log is checked before
// acting, and the guarded deactivate plus the unique from-stage index
// catch whatever slips between the first two.
type TransitionEngine struct {
	stages      StageStore
	transitions TransitionStore
	recorder    TransitionRecorder
	tracker     *QuantityTracker
	locks       Locker
	stageCache  *cache.StageCache
	publisher   EventPublisher

	lockTTL        time.Duration
	lockRetries    int
	lockRetryDelay time.Duration
	now            func() time.Time
}

// NewTransitionEngine constructs a TransitionEngine.  stageCache and
// publisher may be nil.
func NewTransitionEngine(stages StageStore, transitions TransitionStore, recorder TransitionRecorder, tracker *QuantityTracker, locks Locker, stageCache *cache.StageCache, publisher EventPublisher, cfg CoordinatorConfig) *TransitionEngine {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.LockRetries <= 0 {
		cfg.LockRetries = defaultLockRetries
	}
	if cfg.LockRetryDelay <= 0 {
		cfg.LockRetryDelay = defaultLockRetryDelay
	}
	return &TransitionEngine{
		stages:         stages,
		transitions:    transitions,
		recorder:       recorder,
		tracker:        tracker,
		locks:          locks,
		stageCache:     stageCache,
		publisher:      publisher,
		lockTTL:        cfg.LockTTL,
		lockRetries:    cfg.LockRetries,
		lockRetryDelay: cfg.LockRetryDelay,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// ProcessPending evaluates the active auto-transition stages of an
// event and ends every stage whose trigger has fired.  A nil zoneID
// processes all scopes of the event.  Returns the number of stages
// transitioned; per-stage failures are logged and do not stop the scan.
func (e *TransitionEngine) ProcessPending(ctx context.Context, eventID uint64, zoneID *uint64) (int, error) {
	var stages []*model.PricingStage
	var err error
	if zoneID != nil {
		stages, err = e.stages.ActiveForScope(ctx, eventID, zoneID)
	} else {
		stages, err = e.stages.ActiveForEvent(ctx, eventID)
	}
	if err != nil {
		return 0, err
	}

	now := e.now()
	processed := 0
	for _, st := range stages {
		if !st.AutoTransition {
			continue
		}
		reason, fired, err := e.trigger(ctx, st, now)
		if err != nil {
			log.Printf("transition trigger check failed for stage %d: %v", st.ID, err)
			continue
		}
		if !fired {
			continue
		}
		if err := e.process(ctx, st, reason); err != nil {
			log.Printf("transition processing failed for stage %d: %v", st.ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// Manual ends a stage on operator request, regardless of its date
// window or quota.  Returns ErrInvalidState when the stage is already
// inactive.
func (e *TransitionEngine) Manual(ctx context.Context, stageID uint64) error {
	stage, err := e.stages.GetByID(ctx, stageID)
	if err != nil {
		return err
	}
	if !stage.Active {
		return ErrInvalidState
	}
	return e.process(ctx, stage, model.TransitionManual)
}

// ProcessAfterSale implements QuotaHook: called by the coordinator right
// after a confirmed sale exhausts a stage's quota, so the price changes
// without waiting for the periodic monitor.  Failures are logged only;
// the sale that triggered the hook already succeeded.
func (e *TransitionEngine) ProcessAfterSale(ctx context.Context, stageID uint64) {
	stage, err := e.stages.GetByID(ctx, stageID)
	if err != nil {
		log.Printf("quota hook stage load failed for stage %d: %v", stageID, err)
		return
	}
	if !stage.Active || !stage.AutoTransition || stage.Quota == nil {
		return
	}
	sold, err := e.tracker.Sold(ctx, stageID)
	if err != nil {
		log.Printf("quota hook sold read failed for stage %d: %v", stageID, err)
		return
	}
	if !stage.QuotaReached(sold) {
		return
	}
	if err := e.process(ctx, stage, model.TransitionQuantityReached); err != nil {
		log.Printf("quota hook transition failed for stage %d: %v", stageID, err)
	}
}

// History returns the transition log for an event, newest first.
func (e *TransitionEngine) History(ctx context.Context, eventID uint64) ([]*model.StageTransition, error) {
	return e.transitions.ListByEvent(ctx, eventID)
}

// trigger reports whether an auto-transition condition has fired and
// which one.  Date expiry wins when both have fired, matching the order
// the conditions are checked everywhere else.
func (e *TransitionEngine) trigger(ctx context.Context, st *model.PricingStage, now time.Time) (model.TransitionReason, bool, error) {
	if !now.Before(st.EndsAt) {
		return model.TransitionDateExpired, true, nil
	}
	if st.Quota != nil {
		sold, err := e.tracker.Sold(ctx, st.ID)
		if err != nil {
			return "", false, err
		}
		if st.QuotaReached(sold) {
			return model.TransitionQuantityReached, true, nil
		}
	}
	return "", false, nil
}

// process ends one stage under the same per-stage mutex the coordinator
// uses, so a transition never interleaves with a quota check.
func (e *TransitionEngine) process(ctx context.Context, st *model.PricingStage, reason model.TransitionReason) error {
	mutex, err := e.locks.AcquireWithRetry(ctx, stageLockKey(st.ID), e.lockTTL, e.lockRetries, e.lockRetryDelay)
	if err != nil {
		metrics.LockContention.WithLabelValues("stage").Inc()
		return ErrRetryLater
	}
	defer func() {
		if err := mutex.Release(ctx); err != nil {
			log.Printf("stage %d mutex release: %v", st.ID, err)
		}
	}()

	// Someone may have finished the job while we waited on the mutex.
	done, err := e.transitions.ExistsFrom(ctx, st.ID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	fresh, err := e.stages.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	if !fresh.Active {
		return nil
	}

	sold, err := e.tracker.Sold(ctx, st.ID)
	if err != nil {
		return err
	}
	next, err := e.stages.NextInScope(ctx, fresh.EventID, fresh.ZoneID, fresh.Sequence)
	if err != nil {
		return err
	}
	record := &model.StageTransition{
		FromStage: fresh.ID,
		Reason:    reason,
		SoldAt:    sold,
	}
	if next != nil {
		record.ToStage = &next.ID
	}
	if err := e.recorder.RecordTransition(ctx, record); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil // concurrent processor won
		}
		return err
	}

	if e.stageCache != nil {
		if err := e.stageCache.Invalidate(ctx, fresh.EventID, fresh.ZoneID); err != nil {
			log.Printf("stage cache invalidate failed for event %d: %v", fresh.EventID, err)
		}
	}
	metrics.Transitions.WithLabelValues(string(reason)).Inc()

	if e.publisher != nil {
		ev := queue.StageTransitionedEvent{
			EventID:     fresh.EventID,
			ZoneID:      fresh.ZoneID,
			FromStageID: fresh.ID,
			ToStageID:   record.ToStage,
			Reason:      string(reason),
			SoldAtPoint: sold,
			OccurredAt:  e.now().Format(time.RFC3339),
		}
		if err := e.publisher.StageTransitioned(ctx, ev); err != nil {
			log.Printf("stage transitioned event publish failed: %v", err)
		}
	}
	return nil
}
