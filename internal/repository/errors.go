// Package repository defines error values that are reused across multiple
// repositories and the services built on top of them. These sentinel
// values allow higher layers such as handlers to distinguish between
// different failure scenarios. Seat-level conflicts additionally carry
// the offending seat numbers so clients can re-render availability
// without a full reload.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEventNotFound is returned when the requested event does not exist
// in the seat map store. Handlers should translate this into 404.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when no booking matches the given
// identifier or gateway session.
var ErrBookingNotFound = errors.New("booking not found")

// ErrLockNotFound is returned when a session has no unexpired seat
// lock for the event. Checkout requires an active lock.
var ErrLockNotFound = errors.New("no active seat lock")

// ErrDuplicateSession signals that a booking already exists for the
// gateway session id. Fulfillment treats this as "someone else won the
// insert race" and re-reads the existing booking instead of failing.
var ErrDuplicateSession = errors.New("booking already exists for gateway session")

// Seat conflict kinds. Each one wraps into a SeatConflictError carrying
// the specific seat numbers in question.
var (
	// ErrInvalidSeat: a requested seat number is not part of the
	// event's seat map at all.
	ErrInvalidSeat = errors.New("invalid seat")
	// ErrSeatAlreadyBooked: a requested seat is in the event's
	// permanently reserved set.
	ErrSeatAlreadyBooked = errors.New("seat already booked")
	// ErrSeatTemporarilyHeld: a requested seat is inside another
	// session's unexpired lock.
	ErrSeatTemporarilyHeld = errors.New("seat temporarily held")
	// ErrSeatConflict: fulfillment found a seat sold out from under a
	// paid checkout. Operational: requires manual refund, never an
	// automatic retry.
	ErrSeatConflict = errors.New("seat conflict during fulfillment")
)

// SeatConflictError couples one of the seat sentinel errors with the
// seat numbers that triggered it. Use errors.Is against the Kind and
// errors.As to recover the seat list.
type SeatConflictError struct {
	Kind  error
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Seats, ","))
}

func (e *SeatConflictError) Unwrap() error { return e.Kind }

// NewSeatConflict builds a SeatConflictError for the given kind and seats.
func NewSeatConflict(kind error, seats []string) *SeatConflictError {
	return &SeatConflictError{Kind: kind, Seats: seats}
}
