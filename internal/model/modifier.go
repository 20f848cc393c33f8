package model

import "github.com/shopspring/decimal"

// RowModifier is a percentage markup applied to every seat in a row of a
// numbered zone.  Unique per (zone, row); meaningless for general
// admission zones.
type RowModifier struct {
	ID        uint64          // row_modifiers.id
	ZoneID    uint64          // row_modifiers.zone_id
	RowNumber int             // row_modifiers.row_num
	Percent   decimal.Decimal // row_modifiers.percent; e.g. 20.00 = +20%
}

// SeatModifier is a per-seat percentage adjustment layered after row and
// stage pricing.  Unique per seat.
type SeatModifier struct {
	ID      uint64          // seat_modifiers.id
	SeatID  uint64          // seat_modifiers.seat_id
	Percent decimal.Decimal // seat_modifiers.percent
}
