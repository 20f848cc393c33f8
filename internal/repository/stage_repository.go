package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// StageRepo provides data access to the pricing_stages table.  Stages
// are created by the configuration layer; the engine only reads them and
// deactivates them during transition processing.
type StageRepo struct {
	db *sql.DB
}

// NewStageRepo constructs a StageRepo bound to the provided database.
func NewStageRepo(db *sql.DB) *StageRepo { return &StageRepo{db: db} }

// DB exposes the underlying handle so services can open transactions
// that span multiple repositories.
func (r *StageRepo) DB() *sql.DB { return r.db }

const stageColumns = `id, event_id, zone_id, name, starts_at, ends_at, quota,
	modifier_kind, modifier_value, sequence, active, auto_transition`

func scanStage(row interface{ Scan(...any) error }) (*model.PricingStage, error) {
	var st model.PricingStage
	var zoneID sql.NullInt64
	var quota sql.NullInt64
	err := row.Scan(&st.ID, &st.EventID, &zoneID, &st.Name, &st.StartsAt, &st.EndsAt, &quota,
		&st.ModifierKind, &st.ModifierValue, &st.Sequence, &st.Active, &st.AutoTransition)
	if err != nil {
		return nil, err
	}
	if zoneID.Valid {
		v := uint64(zoneID.Int64)
		st.ZoneID = &v
	}
	if quota.Valid {
		v := quota.Int64
		st.Quota = &v
	}
	return &st, nil
}

// GetByID loads a single stage.  Returns ErrStageNotFound when no row
// exists.
func (r *StageRepo) GetByID(ctx context.Context, id uint64) (*model.PricingStage, error) {
	q := `SELECT ` + stageColumns + ` FROM pricing_stages WHERE id = ?`
	st, err := scanStage(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStageNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ActiveForScope returns the active stages for one scope, ordered by
// sequence.  Passing a nil zoneID selects the event-wide scope
// (zone_id IS NULL); a non-nil zoneID selects that zone's stages only.
func (r *StageRepo) ActiveForScope(ctx context.Context, eventID uint64, zoneID *uint64) ([]*model.PricingStage, error) {
	q := `SELECT ` + stageColumns + ` FROM pricing_stages WHERE event_id = ? AND active = 1`
	args := []any{eventID}
	if zoneID != nil {
		q += ` AND zone_id = ?`
		args = append(args, *zoneID)
	} else {
		q += ` AND zone_id IS NULL`
	}
	q += ` ORDER BY sequence`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stages []*model.PricingStage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// NextInScope returns the first active stage of the same scope whose
// sequence is greater than afterSequence, or nil when the scope has no
// further stage.  Transition processing uses this to determine the
// to-stage; no explicit activation is needed because resolution picks
// the successor up naturally once the old stage is deactivated.
func (r *StageRepo) NextInScope(ctx context.Context, eventID uint64, zoneID *uint64, afterSequence int) (*model.PricingStage, error) {
	q := `SELECT ` + stageColumns + ` FROM pricing_stages WHERE event_id = ? AND active = 1 AND sequence > ?`
	args := []any{eventID, afterSequence}
	if zoneID != nil {
		q += ` AND zone_id = ?`
		args = append(args, *zoneID)
	} else {
		q += ` AND zone_id IS NULL`
	}
	q += ` ORDER BY sequence LIMIT 1`
	st, err := scanStage(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// DeactivateTx marks a stage inactive inside the provided transaction.
// Returns ErrConflict when the stage was already inactive, which lets
// concurrent transition processors detect that someone else won.
func (r *StageRepo) DeactivateTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `UPDATE pricing_stages SET active = 0 WHERE id = ? AND active = 1`, id)
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

// EventIDsWithActiveAutoStages returns the IDs of events that still have
// at least one active stage flagged for automatic transition.  The
// periodic monitor scans exactly this set.
func (r *StageRepo) EventIDsWithActiveAutoStages(ctx context.Context) ([]uint64, error) {
	const q = `SELECT DISTINCT event_id FROM pricing_stages WHERE active = 1 AND auto_transition = 1`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveForEvent returns every active stage of an event across all
// scopes, ordered by zone then sequence.  Used by transition processing
// when no zone filter is given.
func (r *StageRepo) ActiveForEvent(ctx context.Context, eventID uint64) ([]*model.PricingStage, error) {
	q := `SELECT ` + stageColumns + ` FROM pricing_stages WHERE event_id = ? AND active = 1 ORDER BY zone_id, sequence`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stages []*model.PricingStage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}
