// Package sweeper garbage-collects expired seat locks. Expired rows
// are already invisible to readers; the sweep only reclaims storage
// and keeps the lock table small.
package sweeper

import (
	"context"
	"log"
)

// LockStore deletes lock rows whose expiry has passed and reports how
// many were removed.
type LockStore interface {
	Sweep(ctx context.Context) (int64, error)
}

// Sweeper deletes expired seat locks in batches.
type Sweeper struct {
	locks LockStore
}

// New returns a sweeper over the given lock store.
func New(locks LockStore) *Sweeper {
	return &Sweeper{locks: locks}
}

// Sweep removes every lock that expired before now. Safe to call
// concurrently with acquisitions: the store only deletes rows whose
// expiry has already passed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.locks.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("sweeper: removed %d expired seat locks", removed)
	}
	return removed, nil
}
