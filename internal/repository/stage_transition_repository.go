package repository

import (
	"context"
	"database/sql"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// StageTransitionRepo persists the append-only stage transition log.
// The UNIQUE index on from_stage_id doubles as the idempotency guard:
// processing the same stage twice can never produce a second record.
type StageTransitionRepo struct {
	db *sql.DB
}

// NewStageTransitionRepo constructs a StageTransitionRepo bound to the
// provided database.
func NewStageTransitionRepo(db *sql.DB) *StageTransitionRepo {
	return &StageTransitionRepo{db: db}
}

// ExistsFrom reports whether a transition record already exists for the
// given from-stage.
func (r *StageTransitionRepo) ExistsFrom(ctx context.Context, fromStageID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM stage_transitions WHERE from_stage_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, fromStageID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx appends a transition record inside the provided transaction.
func (r *StageTransitionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.StageTransition) error {
	const q = `INSERT INTO stage_transitions (from_stage_id, to_stage_id, reason, sold_at_transition)
		VALUES (?, ?, ?, ?)`
	var toStage any
	if t.ToStage != nil {
		toStage = *t.ToStage
	}
	_, err := tx.ExecContext(ctx, q, t.FromStage, toStage, t.Reason, t.SoldAt)
	return err
}

// ListByEvent returns the transition log for an event, newest first.
// Exposed read-only to the reporting subsystem.
func (r *StageTransitionRepo) ListByEvent(ctx context.Context, eventID uint64) ([]*model.StageTransition, error) {
	const q = `SELECT t.id, t.from_stage_id, t.to_stage_id, t.reason, t.sold_at_transition, t.created_at
		FROM stage_transitions t
		JOIN pricing_stages s ON s.id = t.from_stage_id
		WHERE s.event_id = ?
		ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.StageTransition
	for rows.Next() {
		var t model.StageTransition
		var toStage sql.NullInt64
		if err := rows.Scan(&t.ID, &t.FromStage, &toStage, &t.Reason, &t.SoldAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		if toStage.Valid {
			v := uint64(toStage.Int64)
			t.ToStage = &v
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
