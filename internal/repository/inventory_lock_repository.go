package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// InventoryLockRepo persists inventory locks.  Seat status changes and
// lock rows always move together inside one transaction; the service
// layer owns the transaction, this repository only provides the guarded
// statements.
type InventoryLockRepo struct {
	db *sql.DB
}

// NewInventoryLockRepo constructs an InventoryLockRepo bound to the
// provided database.
func NewInventoryLockRepo(db *sql.DB) *InventoryLockRepo { return &InventoryLockRepo{db: db} }

// DB exposes the underlying handle so the inventory service can open
// transactions spanning locks and seats.
func (r *InventoryLockRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new lock row inside the provided transaction.
func (r *InventoryLockRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.InventoryLock) error {
	const q = `INSERT INTO inventory_locks (id, session_id, zone_id, seat_id, quantity, price_snapshot, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var seatID any
	if l.SeatID != nil {
		seatID = *l.SeatID
	}
	_, err := tx.ExecContext(ctx, q, l.ID, l.SessionID, l.ZoneID, seatID, l.Quantity, l.PriceSnapshot, l.Status, l.ExpiresAt.UTC())
	return err
}

// GetByID loads a lock.  Returns ErrLockNotFound when no row exists.
func (r *InventoryLockRepo) GetByID(ctx context.Context, id string) (*model.InventoryLock, error) {
	const q = `SELECT id, session_id, zone_id, seat_id, quantity, price_snapshot, status, expires_at, created_at
		FROM inventory_locks WHERE id = ?`
	return scanLock(r.db.QueryRowContext(ctx, q, id))
}

func scanLock(row *sql.Row) (*model.InventoryLock, error) {
	var l model.InventoryLock
	var seatID sql.NullInt64
	err := row.Scan(&l.ID, &l.SessionID, &l.ZoneID, &seatID, &l.Quantity, &l.PriceSnapshot, &l.Status, &l.ExpiresAt, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLockNotFound
	}
	if err != nil {
		return nil, err
	}
	if seatID.Valid {
		v := uint64(seatID.Int64)
		l.SeatID = &v
	}
	return &l, nil
}

// ActiveQuantityByZone returns the total quantity held by unexpired
// active locks in a zone.  Part of the general-admission remaining
// capacity computation.
func (r *InventoryLockRepo) ActiveQuantityByZone(ctx context.Context, zoneID uint64, now time.Time) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM inventory_locks
		WHERE zone_id = ? AND status = 'ACTIVE' AND expires_at > ?`
	var qty int
	if err := r.db.QueryRowContext(ctx, q, zoneID, now.UTC()).Scan(&qty); err != nil {
		return 0, err
	}
	return qty, nil
}

// ConvertedQuantityByZone returns the total quantity sold in a zone,
// i.e. the sum over converted locks.
func (r *InventoryLockRepo) ConvertedQuantityByZone(ctx context.Context, zoneID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM inventory_locks WHERE zone_id = ? AND status = 'CONVERTED'`
	var qty int
	if err := r.db.QueryRowContext(ctx, q, zoneID).Scan(&qty); err != nil {
		return 0, err
	}
	return qty, nil
}

// UpdateStatusTx moves an active, unexpired lock to the given terminal
// status inside the provided transaction.  Returns ErrConflict when the
// lock was not active or had already expired.
func (r *InventoryLockRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, to model.LockStatus, now time.Time) error {
	const q = `UPDATE inventory_locks SET status = ? WHERE id = ? AND status = 'ACTIVE' AND expires_at > ?`
	res, err := tx.ExecContext(ctx, q, to, id, now.UTC())
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

// Extend pushes the expiry of an active, unexpired lock forward.
// Returns ErrConflict when the lock can no longer be extended.
func (r *InventoryLockRepo) Extend(ctx context.Context, id string, until, now time.Time) error {
	const q = `UPDATE inventory_locks SET expires_at = ? WHERE id = ? AND status = 'ACTIVE' AND expires_at > ?`
	res, err := r.db.ExecContext(ctx, q, until.UTC(), id, now.UTC())
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

// ListExpiredActive returns locks whose TTL has lapsed but whose status
// is still ACTIVE, oldest first, bounded by limit.  The sweeper
// processes these one transaction at a time.
func (r *InventoryLockRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*model.InventoryLock, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, session_id, zone_id, seat_id, quantity, price_snapshot, status, expires_at, created_at
		FROM inventory_locks WHERE status = 'ACTIVE' AND expires_at <= ? ORDER BY expires_at LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.InventoryLock
	for rows.Next() {
		var l model.InventoryLock
		var seatID sql.NullInt64
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ZoneID, &seatID, &l.Quantity, &l.PriceSnapshot, &l.Status, &l.ExpiresAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		if seatID.Valid {
			v := uint64(seatID.Int64)
			l.SeatID = &v
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// MarkExpiredTx flips a stale ACTIVE lock to EXPIRED inside the provided
// transaction.  Unlike UpdateStatusTx it does not require the lock to be
// unexpired.  Returns ErrConflict when the lock is no longer ACTIVE.
func (r *InventoryLockRepo) MarkExpiredTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory_locks SET status = 'EXPIRED' WHERE id = ? AND status = 'ACTIVE'`, id)
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
