// Package pricing computes ticket prices from a zone base price, the
// applicable pricing stage, and row/seat modifiers.  Composition is pure
// decimal arithmetic with no I/O; persistence of the audit trail happens
// in the service layer.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/model"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Breakdown records each layer's contribution to a computed price so the
// audit log can show exactly how a figure was reached.  Intermediate
// prices are kept unrounded; only FinalPrice carries the 2-digit
// rounding, so stacking modifiers never accumulates rounding error.
type Breakdown struct {
	BasePrice       decimal.Decimal `json:"base_price"`
	StageApplied    bool            `json:"stage_applied"`
	StageName       string          `json:"stage_name,omitempty"`
	PriceAfterStage decimal.Decimal `json:"price_after_stage"`
	RowApplied      bool            `json:"row_applied"`
	PriceAfterRow   decimal.Decimal `json:"price_after_row"`
	SeatApplied     bool            `json:"seat_applied"`
	PriceAfterSeat  decimal.Decimal `json:"price_after_seat"`
	Clamped         bool            `json:"clamped"`
	FinalPrice      decimal.Decimal `json:"final_price"`
}

// Compute derives the final ticket price.  The layering order is fixed:
// the stage modifier applies to the base price, the row markup applies
// to the post-stage price, and the seat adjustment applies to the
// post-row price.  Negative modifiers (discounts) are permitted, but a
// composition that goes below zero is clamped to zero and flagged.
//
// Any of stage, row and seat may be nil; an absent layer passes the
// price through unchanged.
func Compute(base decimal.Decimal, stage *model.PricingStage, row *model.RowModifier, seat *model.SeatModifier) (decimal.Decimal, Breakdown) {
	bd := Breakdown{BasePrice: base}

	price := base
	if stage != nil {
		switch stage.ModifierKind {
		case model.ModifierFixed:
			price = price.Add(stage.ModifierValue)
		default:
			price = applyPercent(price, stage.ModifierValue)
		}
		bd.StageApplied = true
		bd.StageName = stage.Name
	}
	bd.PriceAfterStage = price

	if row != nil {
		price = applyPercent(price, row.Percent)
		bd.RowApplied = true
	}
	bd.PriceAfterRow = price

	if seat != nil {
		price = applyPercent(price, seat.Percent)
		bd.SeatApplied = true
	}
	bd.PriceAfterSeat = price

	if price.IsNegative() {
		price = decimal.Zero
		bd.Clamped = true
	}
	bd.FinalPrice = price.Round(2)
	return bd.FinalPrice, bd
}

// applyPercent returns price * (1 + pct/100) without rounding.
func applyPercent(price, pct decimal.Decimal) decimal.Decimal {
	return price.Mul(one.Add(pct.Div(hundred)))
}
