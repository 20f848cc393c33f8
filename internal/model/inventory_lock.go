package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LockStatus enumerates the lifecycle of an inventory lock.
type LockStatus string

const (
	LockActive    LockStatus = "ACTIVE"
	LockExpired   LockStatus = "EXPIRED"
	LockReleased  LockStatus = "RELEASED"
	LockConverted LockStatus = "CONVERTED"
)

// InventoryLock is an exclusive, time-boxed claim on a seat or on a
// general-admission quantity, owned by the session that created it.  For
// numbered zones SeatID is set and Quantity is always 1; for general
// admission SeatID is nil and Quantity counts against the zone capacity.
//
// PriceSnapshot freezes the quoted price at lock time so the amount the
// customer saw in the cart cannot drift while they complete checkout.
type InventoryLock struct {
	ID            string          `json:"id"`                // inventory_locks.id, UUID
	SessionID     string          `json:"-"`                 // owning checkout session
	ZoneID        uint64          `json:"zone_id"`           // inventory_locks.zone_id
	SeatID        *uint64         `json:"seat_id,omitempty"` // inventory_locks.seat_id (nil for GA)
	Quantity      int             `json:"quantity"`          // inventory_locks.quantity
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`    // unit price quoted at lock time
	Status        LockStatus      `json:"status"`            // inventory_locks.status
	ExpiresAt     time.Time       `json:"expires_at"`        // inventory_locks.expires_at
	CreatedAt     time.Time       `json:"created_at"`        // inventory_locks.created_at
}

// ActiveAt reports whether the lock still holds its inventory at time t.
func (l *InventoryLock) ActiveAt(t time.Time) bool {
	return l.Status == LockActive && t.Before(l.ExpiresAt)
}
