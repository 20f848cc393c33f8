package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

// SoldQuantityRepo maintains the durable per-stage sales aggregates.
// The sold counter is the eventual source of truth for quota checks;
// every write is an atomic relative update so concurrent confirmations
// from different processes cannot lose increments.
type SoldQuantityRepo struct {
	db *sql.DB
}

// NewSoldQuantityRepo constructs a SoldQuantityRepo bound to the
// provided database.
func NewSoldQuantityRepo(db *sql.DB) *SoldQuantityRepo { return &SoldQuantityRepo{db: db} }

// Sold returns the cumulative tickets sold under a stage.  A missing row
// means nothing has been sold yet.
func (r *SoldQuantityRepo) Sold(ctx context.Context, stageID uint64) (int64, error) {
	const q = `SELECT sold FROM sold_quantities WHERE stage_id = ?`
	var sold int64
	err := r.db.QueryRowContext(ctx, q, stageID).Scan(&sold)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sold, nil
}

// AddSaleTx atomically folds a confirmed sale into the aggregate inside
// the provided transaction and returns the new sold total.  The relative
// UPDATE (sold = sold + ?) is what guarantees correctness without a
// global lock; the per-stage distributed lock held by the caller only
// serializes the read-check-write of the quota decision.
func (r *SoldQuantityRepo) AddSaleTx(ctx context.Context, tx *sql.Tx, stageID uint64, zoneID *uint64, qty int64, amount decimal.Decimal) (int64, error) {
	const upsert = `INSERT INTO sold_quantities (stage_id, zone_id, sold, revenue)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE sold = sold + VALUES(sold), revenue = revenue + VALUES(revenue)`
	var zone any
	if zoneID != nil {
		zone = *zoneID
	}
	if _, err := tx.ExecContext(ctx, upsert, stageID, zone, qty, amount); err != nil {
		return 0, err
	}
	var sold int64
	if err := tx.QueryRowContext(ctx, `SELECT sold FROM sold_quantities WHERE stage_id = ?`, stageID).Scan(&sold); err != nil {
		return 0, err
	}
	return sold, nil
}

// Correct overwrites the sold counter for a stage.  This is the
// administrative escape hatch for reconciling after refunds or data
// incidents; normal sales never decrement the counter.
func (r *SoldQuantityRepo) Correct(ctx context.Context, stageID uint64, sold int64) error {
	const q = `INSERT INTO sold_quantities (stage_id, sold, revenue)
		VALUES (?, ?, 0)
		ON DUPLICATE KEY UPDATE sold = VALUES(sold)`
	_, err := r.db.ExecContext(ctx, q, stageID, sold)
	return err
}
