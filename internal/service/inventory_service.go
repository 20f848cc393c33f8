package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gerswin/2025v2POS-sub001/internal/metrics"
	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/queue"
	"github.com/gerswin/2025v2POS-sub001/internal/repository"
)

// Quoter produces a price quote for a zone or seat.  Implemented by
// PricingService; the inventory manager uses it to freeze the price
// snapshot at lock time.
type Quoter interface {
	Quote(ctx context.Context, zoneID uint64, seatID *uint64) (*Quote, error)
}

// InventoryConfig carries the inventory manager's tunables.  Zero
// values fall back to the defaults below.
type InventoryConfig struct {
	DefaultTTL     time.Duration // lock lifetime when the caller gives none
	MaxTTL         time.Duration // upper bound on requested lifetimes
	LockTTL        time.Duration // per-zone mutex TTL
	LockRetries    int
	LockRetryDelay time.Duration
}

const (
	defaultInventoryTTL = 15 * time.Minute
	maxInventoryTTL     = 30 * time.Minute
)

// LockRequest describes an inventory lock to create.  Numbered zones
// take a SeatID and an implicit quantity of 1; general admission takes
// a Quantity and no seat.
type LockRequest struct {
	SessionID string
	ZoneID    uint64
	SeatID    *uint64
	Quantity  int
	TTL       time.Duration
}

// InventoryService manages exclusive, time-boxed claims on physical
// inventory during checkout.  Numbered seats are claimed through a
// guarded seat-status flip, so the database itself arbitrates races;
// general-admission capacity is checked under a per-zone distributed
// mutex because there is no single row to guard.
type InventoryService struct {
	catalog   CatalogStore
	seats     SeatStore
	locks     LockStore
	ledger    InventoryMutator
	quoter    Quoter
	mutexes   Locker
	publisher EventPublisher
	cfg       InventoryConfig
	now       func() time.Time
}

// NewInventoryService constructs an InventoryService.  publisher may be
// nil.
func NewInventoryService(catalog CatalogStore, seats SeatStore, locks LockStore, ledger InventoryMutator, quoter Quoter, mutexes Locker, publisher EventPublisher, cfg InventoryConfig) *InventoryService {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaultInventoryTTL
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = maxInventoryTTL
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.LockRetries <= 0 {
		cfg.LockRetries = defaultLockRetries
	}
	if cfg.LockRetryDelay <= 0 {
		cfg.LockRetryDelay = defaultLockRetryDelay
	}
	return &InventoryService{
		catalog:   catalog,
		seats:     seats,
		locks:     locks,
		ledger:    ledger,
		quoter:    quoter,
		mutexes:   mutexes,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Lock claims inventory for a checkout session.  The quoted price is
// frozen into the lock so the amount shown in the cart cannot drift
// while the customer pays.
func (s *InventoryService) Lock(ctx context.Context, req LockRequest) (*model.InventoryLock, error) {
	if req.SessionID == "" {
		return nil, ErrSessionRequired
	}
	zone, err := s.catalog.ZoneByID(ctx, req.ZoneID)
	if err != nil {
		return nil, err
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	if ttl > s.cfg.MaxTTL {
		ttl = s.cfg.MaxTTL
	}

	switch zone.Kind {
	case model.ZoneNumbered:
		return s.lockSeat(ctx, zone, req, ttl)
	case model.ZoneGeneral:
		return s.lockQuantity(ctx, zone, req, ttl)
	default:
		return nil, repository.ErrZoneNotFound
	}
}

func (s *InventoryService) lockSeat(ctx context.Context, zone *model.Zone, req LockRequest, ttl time.Duration) (*model.InventoryLock, error) {
	if req.SeatID == nil || req.Quantity > 1 {
		return nil, ErrSeatRequired
	}
	seat, err := s.seats.GetByID(ctx, *req.SeatID)
	if err != nil {
		return nil, err
	}
	if seat.ZoneID != zone.ID {
		return nil, ErrSeatNotInZone
	}
	if !seat.Lockable() {
		metrics.InventoryLocks.WithLabelValues("seat_conflict").Inc()
		return nil, ErrSeatUnavailable
	}

	q, err := s.quoter.Quote(ctx, zone.ID, req.SeatID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	lock := &model.InventoryLock{
		ID:            uuid.New().String(),
		SessionID:     req.SessionID,
		ZoneID:        zone.ID,
		SeatID:        req.SeatID,
		Quantity:      1,
		PriceSnapshot: q.UnitPrice,
		Status:        model.LockActive,
		ExpiresAt:     now.Add(ttl),
		CreatedAt:     now,
	}
	if err := s.ledger.CreateSeatLock(ctx, lock); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Another session won the seat between our read and the
			// guarded flip.
			metrics.InventoryLocks.WithLabelValues("seat_conflict").Inc()
			return nil, ErrSeatUnavailable
		}
		return nil, err
	}
	metrics.InventoryLocks.WithLabelValues("granted").Inc()
	return lock, nil
}

func (s *InventoryService) lockQuantity(ctx context.Context, zone *model.Zone, req LockRequest, ttl time.Duration) (*model.InventoryLock, error) {
	if req.SeatID != nil {
		return nil, ErrSeatNotInZone
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	mutex, err := s.mutexes.AcquireWithRetry(ctx, zoneLockKey(zone.ID), s.cfg.LockTTL, s.cfg.LockRetries, s.cfg.LockRetryDelay)
	if err != nil {
		metrics.LockContention.WithLabelValues("zone").Inc()
		metrics.InventoryLocks.WithLabelValues("retry_later").Inc()
		return nil, ErrRetryLater
	}
	defer func() {
		if err := mutex.Release(ctx); err != nil {
			log.Printf("zone %d mutex release: %v", zone.ID, err)
		}
	}()

	now := s.now()
	active, err := s.locks.ActiveQuantityByZone(ctx, zone.ID, now)
	if err != nil {
		return nil, err
	}
	converted, err := s.locks.ConvertedQuantityByZone(ctx, zone.ID)
	if err != nil {
		return nil, err
	}
	remaining := zone.Capacity - converted - active
	if remaining < 0 {
		remaining = 0
	}
	if req.Quantity > remaining {
		metrics.InventoryLocks.WithLabelValues("capacity_exceeded").Inc()
		return nil, &CapacityError{Remaining: remaining}
	}

	q, err := s.quoter.Quote(ctx, zone.ID, nil)
	if err != nil {
		return nil, err
	}
	lock := &model.InventoryLock{
		ID:            uuid.New().String(),
		SessionID:     req.SessionID,
		ZoneID:        zone.ID,
		Quantity:      req.Quantity,
		PriceSnapshot: q.UnitPrice,
		Status:        model.LockActive,
		ExpiresAt:     now.Add(ttl),
		CreatedAt:     now,
	}
	if err := s.ledger.CreateZoneLock(ctx, lock); err != nil {
		return nil, err
	}
	metrics.InventoryLocks.WithLabelValues("granted").Inc()
	return lock, nil
}

// Extend pushes an active lock's expiry forward for its owning session.
func (s *InventoryService) Extend(ctx context.Context, lockID, sessionID string, ttl time.Duration) (*model.InventoryLock, error) {
	lock, err := s.owned(ctx, lockID, sessionID)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	if ttl > s.cfg.MaxTTL {
		ttl = s.cfg.MaxTTL
	}
	now := s.now()
	until := now.Add(ttl)
	if err := s.locks.Extend(ctx, lockID, until, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	lock.ExpiresAt = until
	return lock, nil
}

// Release voluntarily frees an active lock, returning its inventory to
// the pool immediately.
func (s *InventoryService) Release(ctx context.Context, lockID, sessionID string) error {
	lock, err := s.owned(ctx, lockID, sessionID)
	if err != nil {
		return err
	}
	if err := s.ledger.ReleaseLock(ctx, lockID, lock.SeatID, s.now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrInvalidState
		}
		return err
	}
	return nil
}

// Convert turns an active lock into a sale at checkout completion.  The
// claimed inventory becomes permanent: the seat goes SOLD, or the
// quantity counts against general-admission capacity forever.
func (s *InventoryService) Convert(ctx context.Context, lockID, sessionID string) (*model.InventoryLock, error) {
	lock, err := s.owned(ctx, lockID, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !lock.ActiveAt(now) {
		return nil, ErrInvalidState
	}
	if err := s.ledger.ConvertLock(ctx, lockID, lock.SeatID, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	lock.Status = model.LockConverted
	return lock, nil
}

// Get loads a lock by ID.
func (s *InventoryService) Get(ctx context.Context, lockID string) (*model.InventoryLock, error) {
	return s.locks.GetByID(ctx, lockID)
}

// SweepExpired expires stale active locks and frees their inventory.
// Each lock is handled in its own transaction so one bad row cannot
// stall the batch.  Returns the number of locks expired.
func (s *InventoryService) SweepExpired(ctx context.Context, limit int) (int, error) {
	stale, err := s.locks.ListExpiredActive(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, lock := range stale {
		if err := s.ledger.ExpireLock(ctx, lock.ID, lock.SeatID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue // reached a terminal state since the listing
			}
			log.Printf("expire lock %s failed: %v", lock.ID, err)
			continue
		}
		expired++
		metrics.Swept.WithLabelValues("lock").Inc()
		if s.publisher != nil {
			ev := queue.LockExpiredEvent{
				LockID:    lock.ID,
				SessionID: lock.SessionID,
				ZoneID:    lock.ZoneID,
				SeatID:    lock.SeatID,
				Quantity:  lock.Quantity,
				ExpiredAt: lock.ExpiresAt.Format(time.RFC3339),
			}
			if err := s.publisher.LockExpired(ctx, ev); err != nil {
				log.Printf("lock expired event publish failed: %v", err)
			}
		}
	}
	return expired, nil
}

func (s *InventoryService) owned(ctx context.Context, lockID, sessionID string) (*model.InventoryLock, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	lock, err := s.locks.GetByID(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if lock.SessionID != sessionID {
		return nil, ErrNotLockOwner
	}
	return lock, nil
}
