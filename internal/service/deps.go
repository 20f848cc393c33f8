package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
	"github.com/gerswin/2025v2POS-sub001/internal/queue"
)

// The interfaces below are the service layer's view of its
// collaborators.  They are satisfied by the repository types in
// production and by in-memory fakes in tests; services never depend on
// concrete repositories directly.

// StageStore reads pricing stages.
type StageStore interface {
	GetByID(ctx context.Context, id uint64) (*model.PricingStage, error)
	ActiveForScope(ctx context.Context, eventID uint64, zoneID *uint64) ([]*model.PricingStage, error)
	ActiveForEvent(ctx context.Context, eventID uint64) ([]*model.PricingStage, error)
	NextInScope(ctx context.Context, eventID uint64, zoneID *uint64, afterSequence int) (*model.PricingStage, error)
	EventIDsWithActiveAutoStages(ctx context.Context) ([]uint64, error)
}

// ReservationStore persists stage quota reservations.
type ReservationStore interface {
	Create(ctx context.Context, res *model.StageReservation) error
	GetByID(ctx context.Context, id string) (*model.StageReservation, error)
	PendingQuantity(ctx context.Context, stageID uint64, now time.Time) (int64, error)
	MarkReleased(ctx context.Context, id string, now time.Time) error
	ExpirePending(ctx context.Context, now time.Time) (map[uint64]int64, error)
}

// SaleLedger atomically confirms a reservation and grows the sold
// aggregate.  Implemented by repository.SalesLedger.
type SaleLedger interface {
	ConfirmSale(ctx context.Context, reservationID string, stageID uint64, zoneID *uint64, qty int64, amount decimal.Decimal, now time.Time) (int64, error)
}

// TransitionStore reads the transition log.
type TransitionStore interface {
	ExistsFrom(ctx context.Context, fromStageID uint64) (bool, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]*model.StageTransition, error)
}

// TransitionRecorder atomically deactivates a stage and appends its
// transition record.  Implemented by repository.TransitionLedger.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, t *model.StageTransition) error
}

// CatalogStore reads event and zone metadata.
type CatalogStore interface {
	EventByID(ctx context.Context, id uint64) (*model.Event, error)
	ZoneByID(ctx context.Context, id uint64) (*model.Zone, error)
}

// SeatStore reads seats of numbered zones.
type SeatStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
}

// LockStore reads and updates inventory locks outside of the
// seat-coupled transactions.
type LockStore interface {
	GetByID(ctx context.Context, id string) (*model.InventoryLock, error)
	ActiveQuantityByZone(ctx context.Context, zoneID uint64, now time.Time) (int, error)
	ConvertedQuantityByZone(ctx context.Context, zoneID uint64) (int, error)
	Extend(ctx context.Context, id string, until, now time.Time) error
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*model.InventoryLock, error)
}

// InventoryMutator runs the transactions that move a lock and its seat
// together.  Implemented by repository.InventoryLedger.
type InventoryMutator interface {
	CreateSeatLock(ctx context.Context, lock *model.InventoryLock) error
	CreateZoneLock(ctx context.Context, lock *model.InventoryLock) error
	ReleaseLock(ctx context.Context, lockID string, seatID *uint64, now time.Time) error
	ConvertLock(ctx context.Context, lockID string, seatID *uint64, now time.Time) error
	ExpireLock(ctx context.Context, lockID string, seatID *uint64) error
}

// ModifierStore reads row and seat price modifiers.
type ModifierStore interface {
	RowModifier(ctx context.Context, zoneID uint64, rowNumber int) (*model.RowModifier, error)
	SeatModifier(ctx context.Context, seatID uint64) (*model.SeatModifier, error)
}

// RecordStore persists the price calculation audit trail.
type RecordStore interface {
	Create(ctx context.Context, rec *model.PriceCalculation) error
	ListByEvent(ctx context.Context, eventID uint64, limit int) ([]*model.PriceCalculation, error)
}

// EventPublisher delivers domain events to the broker.  A nil publisher
// disables publishing; services treat delivery as best effort either
// way.
type EventPublisher interface {
	StageTransitioned(ctx context.Context, ev queue.StageTransitionedEvent) error
	SaleConfirmed(ctx context.Context, ev queue.SaleConfirmedEvent) error
	LockExpired(ctx context.Context, ev queue.LockExpiredEvent) error
}
