package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// InventoryLedger performs the transactions that move an inventory lock
// and its underlying seat together.  A seat row and its lock row always
// change in the same transaction, which is what prevents two sessions
// from ever holding the same seat.
type InventoryLedger struct {
	db    *sql.DB
	seats *SeatRepo
	locks *InventoryLockRepo
}

// NewInventoryLedger constructs an InventoryLedger.
func NewInventoryLedger(db *sql.DB, seats *SeatRepo, locks *InventoryLockRepo) *InventoryLedger {
	return &InventoryLedger{db: db, seats: seats, locks: locks}
}

func (l *InventoryLedger) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CreateSeatLock claims a seat for a numbered-zone lock.  The guarded
// AVAILABLE -> RESERVED update and the lock insert share one
// transaction; ErrConflict means another session won the seat first.
func (l *InventoryLedger) CreateSeatLock(ctx context.Context, lock *model.InventoryLock) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.seats.UpdateStatusTx(ctx, tx, *lock.SeatID, model.SeatAvailable, model.SeatReserved); err != nil {
			return err
		}
		return l.locks.CreateTx(ctx, tx, lock)
	})
}

// CreateZoneLock inserts a general-admission lock.  The capacity check
// happens in the service layer under the per-zone distributed lock, so
// the insert itself needs no guard.
func (l *InventoryLedger) CreateZoneLock(ctx context.Context, lock *model.InventoryLock) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		return l.locks.CreateTx(ctx, tx, lock)
	})
}

// ReleaseLock voluntarily frees an active lock and, for numbered zones,
// returns the seat to AVAILABLE.
func (l *InventoryLedger) ReleaseLock(ctx context.Context, lockID string, seatID *uint64, now time.Time) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.locks.UpdateStatusTx(ctx, tx, lockID, model.LockReleased, now); err != nil {
			return err
		}
		if seatID != nil {
			return l.seats.UpdateStatusTx(ctx, tx, *seatID, model.SeatReserved, model.SeatAvailable)
		}
		return nil
	})
}

// ConvertLock turns an active lock into a sale; for numbered zones the
// seat moves RESERVED -> SOLD.  This is the only path that ever marks a
// seat SOLD.
func (l *InventoryLedger) ConvertLock(ctx context.Context, lockID string, seatID *uint64, now time.Time) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.locks.UpdateStatusTx(ctx, tx, lockID, model.LockConverted, now); err != nil {
			return err
		}
		if seatID != nil {
			return l.seats.UpdateStatusTx(ctx, tx, *seatID, model.SeatReserved, model.SeatSold)
		}
		return nil
	})
}

// ExpireLock is the sweeper's path: the stale ACTIVE lock flips to
// EXPIRED (no expiry guard; it already lapsed) and the seat is freed.
func (l *InventoryLedger) ExpireLock(ctx context.Context, lockID string, seatID *uint64) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.locks.MarkExpiredTx(ctx, tx, lockID); err != nil {
			return err
		}
		if seatID != nil {
			return l.seats.UpdateStatusTx(ctx, tx, *seatID, model.SeatReserved, model.SeatAvailable)
		}
		return nil
	})
}
