package repository

import (
	"context"
	"database/sql"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

// TransitionLedger performs the single transaction that ends a pricing
// stage: the stage row is deactivated and the immutable transition
// record is appended.  The guarded deactivation plus the unique index on
// from_stage_id make the operation idempotent under concurrency.
type TransitionLedger struct {
	db          *sql.DB
	stages      *StageRepo
	transitions *StageTransitionRepo
}

// NewTransitionLedger constructs a TransitionLedger.
func NewTransitionLedger(db *sql.DB, stages *StageRepo, transitions *StageTransitionRepo) *TransitionLedger {
	return &TransitionLedger{db: db, stages: stages, transitions: transitions}
}

// RecordTransition deactivates the from-stage and appends the audit
// record.  Returns ErrConflict when the stage was already inactive,
// meaning a concurrent processor already transitioned it.
func (l *TransitionLedger) RecordTransition(ctx context.Context, t *model.StageTransition) error {
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

	if err := l.stages.DeactivateTx(ctx, tx, t.FromStage); err != nil {
		return err
	}
	if err := l.transitions.CreateTx(ctx, tx, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
