package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SoldQuantity is the durable per-stage sales aggregate.  Sold and
// Revenue only ever grow through confirmed reservations; the sole
// exception is an explicit administrative correction, which is audited
// by the caller.
type SoldQuantity struct {
	ID        uint64          // sold_quantities.id
	StageID   uint64          // sold_quantities.stage_id (unique)
	ZoneID    *uint64         // sold_quantities.zone_id; mirrors the stage scope
	Sold      int64           // sold_quantities.sold
	Revenue   decimal.Decimal // sold_quantities.revenue, DECIMAL(12,2)
	UpdatedAt time.Time       // sold_quantities.updated_at
}
