// Package service implements the engine's business operations: price
// quoting, quota reservation, stage transitions and inventory locking.
// The error values here form the engine's failure taxonomy.  Business
// rejections (quota exceeded, seat taken) are returned immediately and
// are never worth retrying; ErrRetryLater is the one transient outcome
// callers should retry with backoff.
package service

import (
	"errors"
	"fmt"
)

// ErrRetryLater is returned when the per-stage or per-zone mutex could
// not be acquired within the bounded retry budget.  The condition is
// transient and safe to retry.
var ErrRetryLater = errors.New("resource busy, retry later")

// ErrInvalidState is returned when confirming, releasing, extending or
// converting a reservation or lock that is not in the expected state.
// Handlers surface it as a conflict; it is never silently ignored.
var ErrInvalidState = errors.New("invalid state for requested transition")

// ErrStageNotCurrent is returned when reserving against a stage that is
// inactive or outside its date window.
var ErrStageNotCurrent = errors.New("stage is not current")

// ErrSeatUnavailable is returned when the requested seat is not
// available at lock time (already locked, sold or blocked).
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrSeatRequired is returned when locking in a numbered zone without a
// seat, or with a quantity other than 1.
var ErrSeatRequired = errors.New("numbered zones require exactly one seat per lock")

// ErrSeatNotInZone is returned when the seat does not belong to the
// requested zone.
var ErrSeatNotInZone = errors.New("seat does not belong to zone")

// ErrNotLockOwner is returned when a session operates on a lock it does
// not own.
var ErrNotLockOwner = errors.New("lock owned by another session")

// ErrInvalidQuantity is returned for non-positive quantities.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// ErrSessionRequired is returned when an operation that needs an owning
// session is called without one.
var ErrSessionRequired = errors.New("session id required")

// QuotaExceededError rejects a reservation whose quantity does not fit
// in the stage's remaining quota.  Remaining carries the actual count
// left so the caller can immediately offer a reduced quantity.
type QuotaExceededError struct {
	Remaining int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("insufficient quota: %d remaining", e.Remaining)
}

// CapacityError rejects a general-admission lock whose quantity does
// not fit in the zone's remaining capacity.
type CapacityError struct {
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: %d remaining", e.Remaining)
}
