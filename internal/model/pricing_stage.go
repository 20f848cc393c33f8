package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModifierKind selects how a pricing stage alters the base price.
type ModifierKind string

const (
	// ModifierPercentage applies price * (1 + value/100).  Negative
	// values are discounts.
	ModifierPercentage ModifierKind = "PERCENTAGE"
	// ModifierFixed adds the value to the price.  Negative values are
	// discounts.
	ModifierFixed ModifierKind = "FIXED"
)

// PricingStage is a time/quantity-bounded pricing tier.  A stage with a
// nil ZoneID applies event-wide; otherwise it applies to a single zone
// and takes precedence over the event-wide stage during resolution.
//
// Stages of the same scope never have overlapping [StartsAt, EndsAt)
// windows while active; the admin configuration layer enforces that
// invariant at write time.  The engine only deactivates stages through
// transition processing, never deletes them.
type PricingStage struct {
	ID             uint64          // pricing_stages.id
	EventID        uint64          // pricing_stages.event_id
	ZoneID         *uint64         // pricing_stages.zone_id; nil = event-wide
	Name           string          // pricing_stages.name, e.g. "Early Bird"
	StartsAt       time.Time       // pricing_stages.starts_at (inclusive)
	EndsAt         time.Time       // pricing_stages.ends_at (exclusive)
	Quota          *int64          // pricing_stages.quota; nil = unlimited
	ModifierKind   ModifierKind    // pricing_stages.modifier_kind
	ModifierValue  decimal.Decimal // pricing_stages.modifier_value
	Sequence       int             // pricing_stages.sequence; order within scope
	Active         bool            // pricing_stages.active
	AutoTransition bool            // pricing_stages.auto_transition
}

// WindowContains reports whether t falls inside the stage's half-open
// [StartsAt, EndsAt) date window.
func (s *PricingStage) WindowContains(t time.Time) bool {
	return !t.Before(s.StartsAt) && t.Before(s.EndsAt)
}

// QuotaReached reports whether the given sold count exhausts the stage's
// quota.  Stages without a quota are never exhausted.
func (s *PricingStage) QuotaReached(sold int64) bool {
	return s.Quota != nil && sold >= *s.Quota
}

// Current reports whether the stage should govern pricing at time t given
// the sold count: it must be active, inside its date window and below its
// quota.  A quota-exhausted stage is treated as not current even while
// its date window remains open, so resolution falls through to the next
// applicable scope.
func (s *PricingStage) Current(t time.Time, sold int64) bool {
	return s.Active && s.WindowContains(t) && !s.QuotaReached(sold)
}
