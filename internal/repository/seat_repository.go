package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// SeatRepo provides access to seats of numbered zones.  Status changes
// are always guarded by the expected current status so two transactions
// can never both win the same seat.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetByID loads a single seat.  Returns ErrSeatNotFound when no row
// exists.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, zone_id, row_num, seat_number, status FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.ZoneID, &s.RowNumber, &s.SeatNumber, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateStatusTx moves a seat from one status to another inside the
// provided transaction.  Returns ErrConflict when the seat was not in
// the expected status, which is how a losing racer learns the seat was
// taken.
func (r *SeatRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, seatID uint64, from, to model.SeatStatus) error {
	res, err := tx.ExecContext(ctx, `UPDATE seats SET status = ? WHERE id = ? AND status = ?`, to, seatID, from)
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
