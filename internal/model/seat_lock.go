package model

import "time"

// SeatLock represents a session's temporary claim on a set of seats
// during checkout.  A lock is scoped to one (event, session) pair and
// is replaced wholesale when the session re-submits a selection.
// Locks expire automatically at ExpiresAt; every read path filters
// expired locks so the sweeper is housekeeping, not correctness.
//
// Fields:
//  EventID   – event the seats belong to.
//  SessionID – buyer session that owns the lock.
//  UserID    – authenticated holder, nil for guest sessions.
//  Seats     – seat numbers claimed by this lock.
//  ExpiresAt – when the claim lapses.
//  CreatedAt – when the current claim was written.
type SeatLock struct {
	EventID   string
	SessionID string
	UserID    *string
	Seats     []string
	ExpiresAt time.Time
	CreatedAt time.Time
}
