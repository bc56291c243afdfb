// Package lock implements the temporary seat lock manager: short-lived,
// renewable soft holds that keep two shoppers from checking out the
// same seat while one of them pays.
package lock

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// HoldTTL is the default lifetime of a seat lock. A buyer who neither
// completes checkout nor releases simply lets the lock lapse.
const HoldTTL = 7 * time.Minute

// SeatMapStore is the read side of the event seat map.
type SeatMapStore interface {
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
}

// LockStore persists seat locks. AcquireOrRenew must be atomic: the
// conflict check and the upsert happen in one transaction, so two
// sessions racing for a seat cannot both win.
type LockStore interface {
	AcquireOrRenew(ctx context.Context, lock model.SeatLock) error
	HeldSeats(ctx context.Context, eventID string) ([]string, error)
	ActiveLock(ctx context.Context, eventID, sessionID string) (*model.SeatLock, error)
	Release(ctx context.Context, eventID, sessionID string) error
}

// Manager validates seat selections against the event seat map and
// delegates the atomic claim to the lock store.
type Manager struct {
	events SeatMapStore
	locks  LockStore
	clock  clock.Clock
	ttl    time.Duration
}

// Option customizes a Manager.
type Option func(*Manager)

// WithTTL overrides the default hold duration.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// NewManager constructs a Manager. All dependencies must be non-nil.
func NewManager(events SeatMapStore, locks LockStore, clk clock.Clock, opts ...Option) *Manager {
	if events == nil || locks == nil || clk == nil {
		panic("nil dependency passed to lock.NewManager")
	}
	m := &Manager{events: events, locks: locks, clock: clk, ttl: HoldTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AcquireOrRenew claims the given seats for the session, overwriting
// any prior selection by the same session, and returns the stored
// lock. The returned lock is the source of truth for what was claimed:
// empty and repeated seat numbers in the request are dropped.
//
// Failure order mirrors what the buyer can fix: unknown seat numbers
// first (ErrInvalidSeat), then seats already sold (ErrSeatAlreadyBooked),
// then seats inside another session's unexpired lock
// (ErrSeatTemporarilyHeld). Conflict errors carry the offending seats.
func (m *Manager) AcquireOrRenew(ctx context.Context, eventID, sessionID string, seats []string, userID *string) (*model.SeatLock, error) {
	seats = dedupe(seats)
	if len(seats) == 0 {
		return nil, repository.NewSeatConflict(repository.ErrInvalidSeat, nil)
	}
	ev, err := m.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var unknown, sold []string
	for _, s := range seats {
		if !ev.HasSeat(s) {
			unknown = append(unknown, s)
		} else if ev.Reserved[s] {
			sold = append(sold, s)
		}
	}
	if len(unknown) > 0 {
		return nil, repository.NewSeatConflict(repository.ErrInvalidSeat, unknown)
	}
	if len(sold) > 0 {
		return nil, repository.NewSeatConflict(repository.ErrSeatAlreadyBooked, sold)
	}

	lk := model.SeatLock{
		EventID:   eventID,
		SessionID: sessionID,
		UserID:    userID,
		Seats:     seats,
		ExpiresAt: m.clock.Now().Add(m.ttl),
	}
	if err := m.locks.AcquireOrRenew(ctx, lk); err != nil {
		return nil, err
	}
	return &lk, nil
}

// ListHeldSeats returns the union of seats across all unexpired locks
// for the event, sorted for stable rendering. Holders are anonymous.
func (m *Manager) ListHeldSeats(ctx context.Context, eventID string) ([]string, error) {
	seats, err := m.locks.HeldSeats(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sort.Strings(seats)
	return seats, nil
}

// ActiveLock returns the session's current unexpired lock, or
// repository.ErrLockNotFound.
func (m *Manager) ActiveLock(ctx context.Context, eventID, sessionID string) (*model.SeatLock, error) {
	return m.locks.ActiveLock(ctx, eventID, sessionID)
}

// Release drops the session's lock. Idempotent.
func (m *Manager) Release(ctx context.Context, eventID, sessionID string) error {
	return m.locks.Release(ctx, eventID, sessionID)
}

// dedupe removes empty and repeated seat numbers, preserving order.
func dedupe(seats []string) []string {
	seen := make(map[string]struct{}, len(seats))
	out := make([]string, 0, len(seats))
	for _, s := range seats {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
