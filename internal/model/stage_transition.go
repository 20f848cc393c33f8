package model

import "time"

// TransitionReason records why a stage ended.
type TransitionReason string

const (
	TransitionDateExpired     TransitionReason = "DATE_EXPIRED"
	TransitionQuantityReached TransitionReason = "QUANTITY_REACHED"
	TransitionManual          TransitionReason = "MANUAL"
)

// StageTransition is an immutable audit record of a stage ending.  At
// most one transition ever exists per from-stage; that uniqueness is what
// makes transition processing idempotent.  ToStageID is nil when the
// stage was the last of its scope.
type StageTransition struct {
	ID        uint64           `json:"id"`                    // stage_transitions.id
	FromStage uint64           `json:"from_stage_id"`         // stage_transitions.from_stage_id (unique)
	ToStage   *uint64          `json:"to_stage_id,omitempty"` // stage_transitions.to_stage_id (nullable)
	Reason    TransitionReason `json:"reason"`                // stage_transitions.reason
	SoldAt    int64            `json:"sold_at_transition"`    // tickets sold under the stage at transition time
	CreatedAt time.Time        `json:"created_at"`            // stage_transitions.created_at
}
