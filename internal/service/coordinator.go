package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/cache"
	"github.com/gerswin/2025v2POS-sub001/internal/metrics"
	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/queue"
	"github.com/gerswin/2025v2POS-sub001/internal/repository"
)

// QuotaHook is notified after a confirmed sale so quota-triggered stage
// transitions can run immediately instead of waiting for the periodic
// monitor.  Implemented by TransitionEngine.
type QuotaHook interface {
	ProcessAfterSale(ctx context.Context, stageID uint64)
}

// CoordinatorConfig carries the coordinator's tunables.  Zero values
// fall back to the defaults below.
type CoordinatorConfig struct {
	LockTTL        time.Duration // per-stage mutex TTL
	LockRetries    int           // bounded acquisition attempts
	LockRetryDelay time.Duration // sleep between attempts
	ReservationTTL time.Duration // pending reservation lifetime
}

const (
	defaultLockTTL        = 8 * time.Second
	defaultLockRetries    = 10
	defaultLockRetryDelay = 150 * time.Millisecond
	defaultReservationTTL = 5 * time.Minute
)

// Coordinator serializes quota-sensitive operations per stage.  Every
// reserve and confirm runs under a short-lived distributed mutex keyed
// by stage ID, so concurrent purchases of different stages proceed in
// parallel while the read-check-write against one stage's quota is
// strictly ordered.  Acquisition is bounded: a caller that cannot get
// the mutex receives ErrRetryLater rather than queuing indefinitely.
type Coordinator struct {
	stages       StageStore
	reservations ReservationStore
	ledger       SaleLedger
	tracker      *QuantityTracker
	counters     *cache.CounterCache
	locks        Locker
	publisher    EventPublisher
	quotaHook    QuotaHook
	cfg          CoordinatorConfig
	now          func() time.Time
}

// NewCoordinator constructs a Coordinator.  counters and publisher may
// be nil.
func NewCoordinator(stages StageStore, reservations ReservationStore, ledger SaleLedger, tracker *QuantityTracker, counters *cache.CounterCache, locks Locker, publisher EventPublisher, cfg CoordinatorConfig) *Coordinator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.LockRetries <= 0 {
		cfg.LockRetries = defaultLockRetries
	}
	if cfg.LockRetryDelay <= 0 {
		cfg.LockRetryDelay = defaultLockRetryDelay
	}
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = defaultReservationTTL
	}
	return &Coordinator{
		stages:       stages,
		reservations: reservations,
		ledger:       ledger,
		tracker:      tracker,
		counters:     counters,
		locks:        locks,
		publisher:    publisher,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetQuotaHook wires the transition engine in after construction; the
// two services reference each other, so one side has to be attached
// late.
func (c *Coordinator) SetQuotaHook(h QuotaHook) { c.quotaHook = h }

// Reserve validates a purchase request against the stage quota and, if
// it fits, creates a pending reservation that holds the quantity until
// it is confirmed, released or expires.
func (c *Coordinator) Reserve(ctx context.Context, stageID uint64, sessionID string, qty int64) (*model.StageReservation, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	stage, err := c.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	if !stage.Active || !stage.WindowContains(now) {
		metrics.Reservations.WithLabelValues("stage_not_current").Inc()
		return nil, ErrStageNotCurrent
	}

	if stage.Quota != nil {
		mutex, err := c.locks.AcquireWithRetry(ctx, stageLockKey(stageID), c.cfg.LockTTL, c.cfg.LockRetries, c.cfg.LockRetryDelay)
		if err != nil {
			metrics.LockContention.WithLabelValues("stage").Inc()
			metrics.Reservations.WithLabelValues("retry_later").Inc()
			return nil, ErrRetryLater
		}
		defer func() {
			if err := mutex.Release(ctx); err != nil {
				log.Printf("stage %d mutex release: %v", stageID, err)
			}
		}()

		sold, err := c.tracker.Sold(ctx, stageID)
		if err != nil {
			return nil, err
		}
		reserved, err := c.reserved(ctx, stageID, now)
		if err != nil {
			return nil, err
		}
		remaining := *stage.Quota - sold - reserved
		if remaining < 0 {
			remaining = 0
		}
		if qty > remaining {
			metrics.Reservations.WithLabelValues("quota_exceeded").Inc()
			return nil, &QuotaExceededError{Remaining: remaining}
		}
	}

	res := &model.StageReservation{
		ID:        uuid.New().String(),
		StageID:   stageID,
		SessionID: sessionID,
		Quantity:  qty,
		Status:    model.ReservationPending,
		ExpiresAt: now.Add(c.cfg.ReservationTTL),
		CreatedAt: now,
	}
	if err := c.reservations.Create(ctx, res); err != nil {
		return nil, err
	}
	if c.counters != nil {
		if err := c.counters.AddReserved(ctx, stageID, qty); err != nil {
			log.Printf("reserved counter adjust failed for stage %d: %v", stageID, err)
		}
	}
	metrics.Reservations.WithLabelValues("granted").Inc()
	return res, nil
}

// Confirm turns a pending reservation into a permanent sale.  amount is
// the final sale amount folded into the revenue ledger.  Confirming an
// already-confirmed reservation is an idempotent no-op that returns the
// reservation unchanged; confirming a released or expired one returns
// ErrInvalidState.
func (c *Coordinator) Confirm(ctx context.Context, reservationID string, amount decimal.Decimal) (*model.StageReservation, error) {
	res, err := c.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status == model.ReservationConfirmed {
		return res, nil
	}
	now := c.now()
	if !res.Pending(now) {
		return nil, ErrInvalidState
	}
	stage, err := c.stages.GetByID(ctx, res.StageID)
	if err != nil {
		return nil, err
	}

	mutex, err := c.locks.AcquireWithRetry(ctx, stageLockKey(res.StageID), c.cfg.LockTTL, c.cfg.LockRetries, c.cfg.LockRetryDelay)
	if err != nil {
		metrics.LockContention.WithLabelValues("stage").Inc()
		return nil, ErrRetryLater
	}
	releaseMutex := func() {
		if err := mutex.Release(ctx); err != nil {
			log.Printf("stage %d mutex release: %v", res.StageID, err)
		}
	}

	newSold, err := c.ledger.ConfirmSale(ctx, res.ID, res.StageID, stage.ZoneID, res.Quantity, amount, now)
	if err != nil {
		releaseMutex()
		if errors.Is(err, repository.ErrConflict) {
			// Lost a race; re-read to tell idempotent re-confirm apart
			// from a real state conflict.
			fresh, rerr := c.reservations.GetByID(ctx, reservationID)
			if rerr == nil && fresh.Status == model.ReservationConfirmed {
				return fresh, nil
			}
			return nil, ErrInvalidState
		}
		return nil, err
	}

	c.tracker.Reconcile(ctx, res.StageID, newSold)
	if c.counters != nil {
		if err := c.counters.AddReserved(ctx, res.StageID, -res.Quantity); err != nil {
			log.Printf("reserved counter adjust failed for stage %d: %v", res.StageID, err)
		}
	}
	// The quota hook re-acquires the stage mutex, so ours must be gone
	// before it runs.
	releaseMutex()
	res.Status = model.ReservationConfirmed

	if c.publisher != nil {
		ev := queue.SaleConfirmedEvent{
			ReservationID: res.ID,
			StageID:       res.StageID,
			SessionID:     res.SessionID,
			Quantity:      res.Quantity,
			Amount:        amount.StringFixed(2),
			ConfirmedAt:   now.Format(time.RFC3339),
		}
		if err := c.publisher.SaleConfirmed(ctx, ev); err != nil {
			log.Printf("sale confirmed event publish failed: %v", err)
		}
	}
	if c.quotaHook != nil && stage.QuotaReached(newSold) {
		c.quotaHook.ProcessAfterSale(ctx, res.StageID)
	}
	return res, nil
}

// Release voluntarily frees a pending reservation, returning its
// quantity to the stage quota immediately.  Releasing a reservation
// that is not pending returns ErrInvalidState.  A lapsed pending
// reservation counts as not pending: its quantity already dropped out
// of the pending sum at expiry, so decrementing the cached reserved
// counter for it again would drive the counter negative and overstate
// the remaining quota.
func (c *Coordinator) Release(ctx context.Context, reservationID string) error {
	res, err := c.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if err := c.reservations.MarkReleased(ctx, reservationID, c.now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrInvalidState
		}
		return err
	}
	if c.counters != nil {
		if err := c.counters.AddReserved(ctx, res.StageID, -res.Quantity); err != nil {
			log.Printf("reserved counter adjust failed for stage %d: %v", res.StageID, err)
		}
	}
	return nil
}

// Get loads a reservation by ID.
func (c *Coordinator) Get(ctx context.Context, reservationID string) (*model.StageReservation, error) {
	return c.reservations.GetByID(ctx, reservationID)
}

// ExpireReservations marks every lapsed pending reservation EXPIRED and
// drops the affected cached counters.  Run periodically by the sweeper;
// quota accounting never depends on it because pending rows past their
// expiry are already excluded from PendingQuantity.
func (c *Coordinator) ExpireReservations(ctx context.Context) (int64, error) {
	freed, err := c.reservations.ExpirePending(ctx, c.now())
	if err != nil {
		return 0, err
	}
	var total int64
	for stageID, qty := range freed {
		total += qty
		if c.counters != nil {
			if err := c.counters.InvalidateReserved(ctx, stageID); err != nil {
				log.Printf("reserved counter invalidate failed for stage %d: %v", stageID, err)
			}
		}
	}
	if total > 0 {
		metrics.Swept.WithLabelValues("reservation").Add(float64(total))
	}
	return total, nil
}

// Availability reports a stage's quota position.  Remaining is nil for
// stages without a quota.
type Availability struct {
	StageID   uint64 `json:"stage_id"`
	Sold      int64  `json:"sold"`
	Reserved  int64  `json:"reserved"`
	Remaining *int64 `json:"remaining"`
}

// Available returns the current quota position of a stage.  The figures
// are advisory; the binding check happens under the stage mutex inside
// Reserve.
func (c *Coordinator) Available(ctx context.Context, stageID uint64) (*Availability, error) {
	stage, err := c.stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	sold, err := c.tracker.Sold(ctx, stageID)
	if err != nil {
		return nil, err
	}
	reserved, err := c.reserved(ctx, stageID, c.now())
	if err != nil {
		return nil, err
	}
	av := &Availability{StageID: stageID, Sold: sold, Reserved: reserved}
	if stage.Quota != nil {
		remaining := *stage.Quota - sold - reserved
		if remaining < 0 {
			remaining = 0
		}
		av.Remaining = &remaining
	}
	return av, nil
}

// reserved returns the quantity currently held by pending reservations,
// cache-first with database fallback.
func (c *Coordinator) reserved(ctx context.Context, stageID uint64, now time.Time) (int64, error) {
	if c.counters == nil {
		return c.reservations.PendingQuantity(ctx, stageID, now)
	}
	v, err := c.counters.Reserved(ctx, stageID)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("reserved counter cache degraded for stage %d: %v", stageID, err)
		metrics.CacheFallbacks.WithLabelValues("reserved").Inc()
		return c.reservations.PendingQuantity(ctx, stageID, now)
	}
	reserved, err := c.reservations.PendingQuantity(ctx, stageID, now)
	if err != nil {
		return 0, err
	}
	if err := c.counters.SetReserved(ctx, stageID, reserved); err != nil {
		log.Printf("reserved counter repopulate failed for stage %d: %v", stageID, err)
	}
	return reserved, nil
}
