package model

import "time"

// ReservationStatus enumerates the lifecycle of a stage quota reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// StageReservation is a short-lived provisional claim against a stage's
// quota, created during purchase validation and later confirmed into a
// sale or released.  Pending reservations past ExpiresAt no longer count
// against the quota even before the sweeper marks them EXPIRED.
type StageReservation struct {
	ID        string            `json:"id"`         // stage_reservations.id, UUID
	StageID   uint64            `json:"stage_id"`   // stage_reservations.stage_id
	SessionID string            `json:"-"`          // session that requested the quantity
	Quantity  int64             `json:"quantity"`   // stage_reservations.quantity
	Status    ReservationStatus `json:"status"`     // stage_reservations.status
	ExpiresAt time.Time         `json:"expires_at"` // stage_reservations.expires_at
	CreatedAt time.Time         `json:"created_at"` // stage_reservations.created_at
}

// Pending reports whether the reservation still counts against the stage
// quota at time t.
func (r *StageReservation) Pending(t time.Time) bool {
	return r.Status == ReservationPending && t.Before(r.ExpiresAt)
}
