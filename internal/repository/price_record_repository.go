package repository

import (
	"context"
	"database/sql"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// PriceRecordRepo persists the append-only price calculation audit
// trail.  Records are written on every quote and never updated.
type PriceRecordRepo struct {
	db *sql.DB
}

// NewPriceRecordRepo constructs a PriceRecordRepo bound to the provided
// database.
func NewPriceRecordRepo(db *sql.DB) *PriceRecordRepo { return &PriceRecordRepo{db: db} }

// Create appends a calculation record.
func (r *PriceRecordRepo) Create(ctx context.Context, rec *model.PriceCalculation) error {
	const q = `INSERT INTO price_calculations
		(event_id, zone_id, seat_id, stage_id, base_price, price_after_stage, price_after_row, price_after_seat, final_price, clamped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var seatID, stageID any
	if rec.SeatID != nil {
		seatID = *rec.SeatID
	}
	if rec.StageID != nil {
		stageID = *rec.StageID
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.EventID, rec.ZoneID, seatID, stageID,
		rec.BasePrice, rec.PriceAfterStage, rec.PriceAfterRow, rec.PriceAfterSeat,
		rec.FinalPrice, rec.Clamped)
	return err
}

// ListByEvent returns calculation records for an event, newest first,
// bounded by limit.  Exposed read-only to the reporting subsystem.
func (r *PriceRecordRepo) ListByEvent(ctx context.Context, eventID uint64, limit int) ([]*model.PriceCalculation, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, event_id, zone_id, seat_id, stage_id, base_price, price_after_stage,
		price_after_row, price_after_seat, final_price, clamped, created_at
		FROM price_calculations WHERE event_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PriceCalculation
	for rows.Next() {
		var rec model.PriceCalculation
		var seatID, stageID sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.ZoneID, &seatID, &stageID,
			&rec.BasePrice, &rec.PriceAfterStage, &rec.PriceAfterRow, &rec.PriceAfterSeat,
			&rec.FinalPrice, &rec.Clamped, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if seatID.Valid {
			v := uint64(seatID.Int64)
			rec.SeatID = &v
		}
		if stageID.Valid {
			v := uint64(stageID.Int64)
			rec.StageID = &v
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
