package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/repository"
)

// fakeTransitionLog plays both TransitionStore and TransitionRecorder,
// enforcing the same guarantees the database does: a transition only
// records against an active stage, and at most once per from-stage.
type fakeTransitionLog struct {
	mu      sync.Mutex
	stages  *fakeStages
	records []*model.StageTransition
}

func (f *fakeTransitionLog) ExistsFrom(_ context.Context, fromStageID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.FromStage == fromStageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTransitionLog) ListByEvent(_ context.Context, eventID uint64) ([]*model.StageTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.StageTransition
	for _, r := range f.records {
		f.stages.mu.Lock()
		st, ok := f.stages.stages[r.FromStage]
		f.stages.mu.Unlock()
		if ok && st.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTransitionLog) RecordTransition(_ context.Context, t *model.StageTransition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stages.deactivate(t.FromStage) {
		return repository.ErrConflict
	}
	cp := *t
	f.records = append(f.records, &cp)
	return nil
}

func newTestEngine(stages *fakeStages, sold *fakeSoldStore, pub EventPublisher) (*TransitionEngine, *fakeTransitionLog) {
	log := &fakeTransitionLog{stages: stages}
	engine := NewTransitionEngine(stages, log, log, NewQuantityTracker(sold, nil), newMemLocker(), nil, pub, CoordinatorConfig{})
	return engine, log
}

func TestProcessPending_DateExpiredStage(t *testing.T) {
	now := time.Now().UTC()
	first := testStage(1, nil)
	first.StartsAt = now.Add(-2 * time.Hour)
	first.EndsAt = now.Add(-time.Hour) // window closed
	second := testStage(2, nil)
	second.Sequence = 2
	second.StartsAt = first.EndsAt
	second.EndsAt = now.Add(time.Hour)

	stages := newFakeStages(first, second)
	pub := &capturePublisher{}
	engine, tlog := newTestEngine(stages, newFakeSoldStore(), pub)

	n, err := engine.ProcessPending(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, tlog.records, 1)
	rec := tlog.records[0]
	assert.Equal(t, uint64(1), rec.FromStage)
	require.NotNil(t, rec.ToStage)
	assert.Equal(t, uint64(2), *rec.ToStage)
	assert.Equal(t, model.TransitionDateExpired, rec.Reason)

	st, _ := stages.GetByID(context.Background(), 1)
	assert.False(t, st.Active, "from-stage must be deactivated")
	st2, _ := stages.GetByID(context.Background(), 2)
	assert.True(t, st2.Active, "successor is never explicitly activated")

	require.Len(t, pub.transitions, 1)
	assert.Equal(t, "DATE_EXPIRED", pub.transitions[0].Reason)
}

func TestProcessPending_QuantityReached(t *testing.T) {
	stage := testStage(1, quotaPtr(100))
	stages := newFakeStages(stage)
	sold := newFakeSoldStore()
	sold.sold[1] = 100

	engine, tlog := newTestEngine(stages, sold, nil)

	n, err := engine.ProcessPending(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, tlog.records, 1)
	assert.Equal(t, model.TransitionQuantityReached, tlog.records[0].Reason)
	assert.Equal(t, int64(100), tlog.records[0].SoldAt)
	assert.Nil(t, tlog.records[0].ToStage, "last stage of the scope has no successor")
}

func TestProcessPending_RunsOnceUnderRepeats(t *testing.T) {
	stage := testStage(1, nil)
	stage.EndsAt = time.Now().UTC().Add(-time.Minute)
	stages := newFakeStages(stage)
	engine, tlog := newTestEngine(stages, newFakeSoldStore(), nil)
	ctx := context.Background()

	n, err := engine.ProcessPending(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Second scan finds nothing: the stage is inactive and the log
	// already carries its record.
	n, err = engine.ProcessPending(ctx, 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, tlog.records, 1)
}

func TestProcessPending_SkipsManualOnlyStages(t *testing.T) {
	stage := testStage(1, nil)
	stage.EndsAt = time.Now().UTC().Add(-time.Minute)
	stage.AutoTransition = false
	engine, tlog := newTestEngine(newFakeStages(stage), newFakeSoldStore(), nil)

	n, err := engine.ProcessPending(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tlog.records)
}

func TestManual_TransitionsRegardlessOfTriggers(t *testing.T) {
	stage := testStage(1, quotaPtr(100)) // window open, quota untouched
	stages := newFakeStages(stage)
	engine, tlog := newTestEngine(stages, newFakeSoldStore(), nil)
	ctx := context.Background()

	require.NoError(t, engine.Manual(ctx, 1))
	require.Len(t, tlog.records, 1)
	assert.Equal(t, model.TransitionManual, tlog.records[0].Reason)

	// The stage is now inactive; a second manual request is a conflict.
	assert.ErrorIs(t, engine.Manual(ctx, 1), ErrInvalidState)
}

func TestProcessAfterSale_FiresOnlyWhenQuotaExhausted(t *testing.T) {
	stage := testStage(1, quotaPtr(50))
	stages := newFakeStages(stage)
	sold := newFakeSoldStore()
	engine, tlog := newTestEngine(stages, sold, nil)
	ctx := context.Background()

	sold.sold[1] = 49
	engine.ProcessAfterSale(ctx, 1)
	assert.Empty(t, tlog.records)

	sold.sold[1] = 50
	engine.ProcessAfterSale(ctx, 1)
	require.Len(t, tlog.records, 1)
	assert.Equal(t, model.TransitionQuantityReached, tlog.records[0].Reason)
}

func TestCoordinatorQuotaHook_TransitionsExhaustedStage(t *testing.T) {
	stage := testStage(1, quotaPtr(1))
	stages := newFakeStages(stage)
	reservations := newFakeReservations()
	sold := newFakeSoldStore()
	ledger := &fakeSaleLedger{reservations: reservations, sold: sold}
	tracker := NewQuantityTracker(sold, nil)
	locker := newMemLocker()
	c := NewCoordinator(stages, reservations, ledger, tracker, nil, locker, nil, CoordinatorConfig{})
	engine, tlog := newTestEngine(stages, sold, nil)
	c.SetQuotaHook(engine)
	ctx := context.Background()

	res, err := c.Reserve(ctx, 1, "sess-1", 1)
	require.NoError(t, err)
	_, err = c.Confirm(ctx, res.ID, decimal.NewFromInt(80))
	require.NoError(t, err)

	require.Len(t, tlog.records, 1, "confirming the last ticket must end the stage")
	assert.Equal(t, model.TransitionQuantityReached, tlog.records[0].Reason)
}
