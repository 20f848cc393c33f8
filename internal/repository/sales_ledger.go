package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// SalesLedger performs the single transaction that turns a pending
// reservation into a permanent sale: the reservation row flips to
// CONFIRMED and the stage's sold aggregate grows, atomically.  Either
// both happen or neither does, so the sold counter can never drift from
// the set of confirmed reservations.
type SalesLedger struct {
	db           *sql.DB
	reservations *ReservationRepo
	sold         *SoldQuantityRepo
}

// NewSalesLedger constructs a SalesLedger.
func NewSalesLedger(db *sql.DB, reservations *ReservationRepo, sold *SoldQuantityRepo) *SalesLedger {
	return &SalesLedger{db: db, reservations: reservations, sold: sold}
}

// ConfirmSale commits the reservation and returns the new sold total for
// the stage.  Returns ErrConflict when the reservation was no longer
// pending (already confirmed, released or expired); the caller decides
// whether that is an idempotent re-confirm or a real conflict.
func (l *SalesLedger) ConfirmSale(ctx context.Context, reservationID string, stageID uint64, zoneID *uint64, qty int64, amount decimal.Decimal, now time.Time) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := l.reservations.MarkConfirmedTx(ctx, tx, reservationID, now); err != nil {
		return 0, err
	}
	newSold, err := l.sold.AddSaleTx(ctx, tx, stageID, zoneID, qty, amount)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return newSold, nil
}
