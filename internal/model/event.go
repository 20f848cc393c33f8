package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is catalog metadata consumed read-only by the pricing engine.
// Events are owned by the catalog subsystem; this engine never creates,
// updates or deletes them.
type Event struct {
	ID       uint64    // events.id
	TenantID uint64    // events.tenant_id; always passed explicitly, never ambient
	Name     string    // events.name
	StartsAt time.Time // events.starts_at
	EndsAt   time.Time // events.ends_at
	Active   bool      // events.active
}

// ZoneKind distinguishes seat-numbered zones from general-admission zones.
type ZoneKind string

const (
	// ZoneNumbered zones sell individual seats; inventory locks target
	// exactly one seat with quantity 1.
	ZoneNumbered ZoneKind = "NUMBERED"
	// ZoneGeneral zones sell quantity against a capacity counter with no
	// seat assignment.
	ZoneGeneral ZoneKind = "GENERAL"
)

// Zone is a sellable area within an event.  Capacity and BasePrice are
// catalog data; the engine only reads them when computing prices and
// checking general-admission availability.
type Zone struct {
	ID        uint64          // zones.id
	EventID   uint64          // zones.event_id
	Name      string          // zones.name
	Kind      ZoneKind        // zones.kind (NUMBERED | GENERAL)
	Capacity  int             // zones.capacity; total sellable tickets
	BasePrice decimal.Decimal // zones.base_price, DECIMAL(10,2)
}
