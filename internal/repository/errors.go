// Package repository implements durable persistence for the pricing and
// reservation engine on top of database/sql.  Sentinel errors defined
// here let the service layer distinguish failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrStageNotFound is returned when a pricing stage row does not exist.
var ErrStageNotFound = errors.New("pricing stage not found")

// ErrZoneNotFound is returned when a zone row does not exist.
var ErrZoneNotFound = errors.New("zone not found")

// ErrEventNotFound is returned when an event row does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrSeatNotFound is returned when a seat row does not exist.
var ErrSeatNotFound = errors.New("seat not found")

// ErrLockNotFound is returned when an inventory lock row does not exist.
var ErrLockNotFound = errors.New("inventory lock not found")

// ErrReservationNotFound is returned when a stage reservation row does
// not exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrConflict is returned when a guarded state change matched no rows,
// meaning the record was not in the state the caller expected (for
// example converting a lock that is no longer ACTIVE).  Handlers
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
