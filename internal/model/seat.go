package model

// SeatStatus enumerates the lifecycle of a seat within a numbered zone.
// A seat becomes RESERVED atomically with inventory lock creation and
// only ever becomes SOLD through a converted lock.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
	SeatSold      SeatStatus = "SOLD"
	SeatBlocked   SeatStatus = "BLOCKED"
)

// Seat is a single numbered seat.  RowNumber links the seat to its
// row-level price markup; SeatNumber is the position within the row.
type Seat struct {
	ID         uint64     // seats.id
	ZoneID     uint64     // seats.zone_id
	RowNumber  int        // seats.row_num
	SeatNumber int        // seats.seat_number
	Status     SeatStatus // seats.status
}

// Lockable reports whether a seat can be claimed by a new inventory lock.
func (s *Seat) Lockable() bool {
	return s.Status == SeatAvailable
}
