// Package queue defines the domain events published to the message
// broker and the publisher that delivers them.  Downstream consumers
// (notification delivery, analytics, seat-map push) get enough payload
// to act without querying the primary database.
package queue

// StageTransitionedEvent is published when a pricing stage ends, whether
// by date expiry, quota exhaustion or manual trigger.
type StageTransitionedEvent struct {
	EventID     uint64  `json:"event_id"`
	ZoneID      *uint64 `json:"zone_id,omitempty"`
	FromStageID uint64  `json:"from_stage_id"`
	ToStageID   *uint64 `json:"to_stage_id,omitempty"`
	Reason      string  `json:"reason"`
	SoldAtPoint int64   `json:"sold_at_transition"`
	OccurredAt  string  `json:"occurred_at"`
}

// SaleConfirmedEvent is published when a quota reservation is confirmed
// into a permanent sale.
type SaleConfirmedEvent struct {
	ReservationID string `json:"reservation_id"`
	StageID       uint64 `json:"stage_id"`
	SessionID     string `json:"session_id"`
	Quantity      int64  `json:"quantity"`
	Amount        string `json:"amount"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// LockExpiredEvent is published when the sweeper expires a stale
// inventory lock and returns its inventory to the pool.
type LockExpiredEvent struct {
	LockID    string  `json:"lock_id"`
	SessionID string  `json:"session_id"`
	ZoneID    uint64  `json:"zone_id"`
	SeatID    *uint64 `json:"seat_id,omitempty"`
	Quantity  int     `json:"quantity"`
	ExpiredAt string  `json:"expired_at"`
}
