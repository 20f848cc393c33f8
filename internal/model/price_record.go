package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceCalculation is an append-only audit record of a computed price.
// One row is written for every quote the engine produces so disputes can
// be resolved against the exact layer-by-layer figures the customer saw.
// Intermediate prices are stored unrounded; only FinalPrice is rounded.
type PriceCalculation struct {
	ID              uint64          `json:"id"`                // price_calculations.id
	EventID         uint64          `json:"event_id"`          // price_calculations.event_id
	ZoneID          uint64          `json:"zone_id"`           // price_calculations.zone_id
	SeatID          *uint64         `json:"seat_id,omitempty"` // price_calculations.seat_id (nullable)
	StageID         *uint64         `json:"stage_id,omitempty"`
	BasePrice       decimal.Decimal `json:"base_price"`        // zone base price at calculation time
	PriceAfterStage decimal.Decimal `json:"price_after_stage"` // after the stage modifier
	PriceAfterRow   decimal.Decimal `json:"price_after_row"`   // after the row markup
	PriceAfterSeat  decimal.Decimal `json:"price_after_seat"`  // after the seat adjustment
	FinalPrice      decimal.Decimal `json:"final_price"`       // rounded, clamped output
	Clamped         bool            `json:"clamped"`           // true when a negative composition hit the zero floor
	CreatedAt       time.Time       `json:"created_at"`        // price_calculations.created_at
}
