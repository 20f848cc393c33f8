package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// ModifierRepo provides read access to row and seat price modifiers.
// Both lookups return (nil, nil) when no modifier is configured, since
// an absent modifier is the normal case rather than an error.
type ModifierRepo struct {
	db *sql.DB
}

// NewModifierRepo constructs a ModifierRepo bound to the provided database.
func NewModifierRepo(db *sql.DB) *ModifierRepo { return &ModifierRepo{db: db} }

// RowModifier returns the markup for a row within a zone, or nil when
// the row has no modifier.
func (r *ModifierRepo) RowModifier(ctx context.Context, zoneID uint64, rowNumber int) (*model.RowModifier, error) {
	const q = `SELECT id, zone_id, row_num, percent FROM row_modifiers WHERE zone_id = ? AND row_num = ?`
	var m model.RowModifier
	err := r.db.QueryRowContext(ctx, q, zoneID, rowNumber).Scan(&m.ID, &m.ZoneID, &m.RowNumber, &m.Percent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SeatModifier returns the per-seat adjustment, or nil when the seat has
// no modifier.
func (r *ModifierRepo) SeatModifier(ctx context.Context, seatID uint64) (*model.SeatModifier, error) {
	const q = `SELECT id, seat_id, percent FROM seat_modifiers WHERE seat_id = ?`
	var m model.SeatModifier
	err := r.db.QueryRowContext(ctx, q, seatID).Scan(&m.ID, &m.SeatID, &m.Percent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
