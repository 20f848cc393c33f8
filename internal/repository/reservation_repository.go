package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// ReservationRepo persists stage quota reservations.  Quantity
// accounting deliberately ignores pending rows past their expiry so an
// abandoned purchase frees its quantity without waiting for the sweeper.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo bound to the provided
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a new pending reservation.
func (r *ReservationRepo) Create(ctx context.Context, res *model.StageReservation) error {
	const q = `INSERT INTO stage_reservations (id, stage_id, session_id, quantity, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, res.ID, res.StageID, res.SessionID, res.Quantity, res.Status, res.ExpiresAt.UTC())
	return err
}

// GetByID loads a reservation.  Returns ErrReservationNotFound when no
// row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.StageReservation, error) {
	const q = `SELECT id, stage_id, session_id, quantity, status, expires_at, created_at
		FROM stage_reservations WHERE id = ?`
	var res model.StageReservation
	err := r.db.QueryRowContext(ctx, q, id).Scan(&res.ID, &res.StageID, &res.SessionID, &res.Quantity, &res.Status, &res.ExpiresAt, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// PendingQuantity returns the total quantity held by unexpired pending
// reservations against a stage at time now.  This is the authoritative
// "reserved" figure the coordinator subtracts from the quota.
func (r *ReservationRepo) PendingQuantity(ctx context.Context, stageID uint64, now time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM stage_reservations
		WHERE stage_id = ? AND status = 'PENDING' AND expires_at > ?`
	var qty int64
	if err := r.db.QueryRowContext(ctx, q, stageID, now.UTC()).Scan(&qty); err != nil {
		return 0, err
	}
	return qty, nil
}

// MarkConfirmedTx flips a pending, unexpired reservation to CONFIRMED
// inside the provided transaction.  Returns ErrConflict when the
// reservation was not pending or had already expired.
func (r *ReservationRepo) MarkConfirmedTx(ctx context.Context, tx *sql.Tx, id string, now time.Time) error {
	const q = `UPDATE stage_reservations SET status = 'CONFIRMED'
		WHERE id = ? AND status = 'PENDING' AND expires_at > ?`
	res, err := tx.ExecContext(ctx, q, id, now.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkReleased flips a pending, unexpired reservation to RELEASED.
// Returns ErrConflict when the reservation was not pending or had
// already lapsed: a lapsed row no longer counts against the quota, so
// releasing it must not be reported as freeing quantity a second time.
func (r *ReservationRepo) MarkReleased(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stage_reservations SET status = 'RELEASED' WHERE id = ? AND status = 'PENDING' AND expires_at > ?`,
		id, now.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ExpirePending marks every pending reservation past its expiry as
// EXPIRED and returns the affected stage IDs with their freed
// quantities so the caller can invalidate cached counters.
func (r *ReservationRepo) ExpirePending(ctx context.Context, now time.Time) (map[uint64]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT stage_id, quantity FROM stage_reservations WHERE status = 'PENDING' AND expires_at <= ?`, now.UTC())
	if err != nil {
		return nil, err
	}
	freed := make(map[uint64]int64)
	for rows.Next() {
		var stageID uint64
		var qty int64
		if err := rows.Scan(&stageID, &qty); err != nil {
			rows.Close()
			return nil, err
		}
		freed[stageID] += qty
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(freed) == 0 {
		return freed, nil
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE stage_reservations SET status = 'EXPIRED' WHERE status = 'PENDING' AND expires_at <= ?`, now.UTC())
	if err != nil {
		return nil, err
	}
	return freed, nil
}
