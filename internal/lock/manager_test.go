package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

type fakeSeatMap struct {
	ev *model.Event
}

func (f *fakeSeatMap) GetEvent(_ context.Context, eventID string) (*model.Event, error) {
	if f.ev == nil || f.ev.ID != eventID {
		return nil, repository.ErrEventNotFound
	}
	return f.ev, nil
}

// fakeLockStore mirrors the SQL store's contract in memory: expired
// rows do not conflict and are invisible to reads.
type fakeLockStore struct {
	mu    sync.Mutex
	clk   clock.Clock
	locks map[string]model.SeatLock // by session id, single event per test
}

func newFakeLockStore(clk clock.Clock) *fakeLockStore {
	return &fakeLockStore{clk: clk, locks: make(map[string]model.SeatLock)}
}

func (f *fakeLockStore) AcquireOrRenew(_ context.Context, lk model.SeatLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.clk.Now()
	want := make(map[string]bool, len(lk.Seats))
	for _, s := range lk.Seats {
		want[s] = true
	}
	var conflicts []string
	for sess, held := range f.locks {
		if sess == lk.SessionID || !held.ExpiresAt.After(now) {
			continue
		}
		for _, s := range held.Seats {
			if want[s] {
				conflicts = append(conflicts, s)
			}
		}
	}
	if len(conflicts) > 0 {
		return repository.NewSeatConflict(repository.ErrSeatTemporarilyHeld, conflicts)
	}
	f.locks[lk.SessionID] = lk
	return nil
}

func (f *fakeLockStore) HeldSeats(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.clk.Now()
	var out []string
	for _, lk := range f.locks {
		if lk.ExpiresAt.After(now) {
			out = append(out, lk.Seats...)
		}
	}
	return out, nil
}

func (f *fakeLockStore) ActiveLock(_ context.Context, _, sessionID string) (*model.SeatLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lk, ok := f.locks[sessionID]
	if !ok || !lk.ExpiresAt.After(f.clk.Now()) {
		return nil, repository.ErrLockNotFound
	}
	return &lk, nil
}

func (f *fakeLockStore) Release(_ context.Context, _, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, sessionID)
	return nil
}

func testEvent() *model.Event {
	return &model.Event{
		ID:         "ev1",
		Title:      "Warehouse Show",
		TicketType: "GA",
		StartsAt:   time.Date(2026, 10, 3, 20, 0, 0, 0, time.UTC),
		SeatPrices: map[string]uint32{"A1": 2500, "A2": 2500, "B1": 4000},
		Reserved:   map[string]bool{},
	}
}

func newTestManager(ev *model.Event) (*Manager, *clock.Fake, *fakeLockStore) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	store := newFakeLockStore(clk)
	return NewManager(&fakeSeatMap{ev: ev}, store, clk), clk, store
}

func TestManager_AcquireSetsExpiry(t *testing.T) {
	m, clk, _ := newTestManager(testEvent())

	got, err := m.AcquireOrRenew(context.Background(), "ev1", "s1", []string{"A1", "A2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(HoldTTL), got.ExpiresAt)

	lk, err := m.ActiveLock(context.Background(), "ev1", "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2"}, lk.Seats)
}

func TestManager_AcquireDropsRepeatedSeats(t *testing.T) {
	m, _, _ := newTestManager(testEvent())

	got, err := m.AcquireOrRenew(context.Background(), "ev1", "s1", []string{"A1", "A1", "", "A2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, got.Seats, "the returned lock carries the claimed set")

	lk, err := m.ActiveLock(context.Background(), "ev1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, lk.Seats)
}

func TestManager_RenewRestartsCountdown(t *testing.T) {
	m, clk, _ := newTestManager(testEvent())
	ctx := context.Background()

	first, err := m.AcquireOrRenew(ctx, "ev1", "s1", []string{"A1"}, nil)
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	second, err := m.AcquireOrRenew(ctx, "ev1", "s1", []string{"A1", "B1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ExpiresAt.Add(5*time.Minute), second.ExpiresAt, "renewal restarts the full countdown")

	// The renewed selection replaces the old one wholesale.
	lk, err := m.ActiveLock(ctx, "ev1", "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "B1"}, lk.Seats)
}

func TestManager_ConflictWithOtherSession(t *testing.T) {
	m, _, _ := newTestManager(testEvent())
	ctx := context.Background()

	_, err := m.AcquireOrRenew(ctx, "ev1", "s1", []string{"A1"}, nil)
	require.NoError(t, err)

	_, err = m.AcquireOrRenew(ctx, "ev1", "s2", []string{"A1", "A2"}, nil)
	require.ErrorIs(t, err, repository.ErrSeatTemporarilyHeld)
	var conflict *repository.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A1"}, conflict.Seats)

	// The losing request must not have claimed the free seat either.
	_, err = m.ActiveLock(ctx, "ev1", "s2")
	assert.ErrorIs(t, err, repository.ErrLockNotFound)
}

func TestManager_ExpiredLockIsClaimable(t *testing.T) {
	m, clk, _ := newTestManager(testEvent())
	ctx := context.Background()

	_, err := m.AcquireOrRenew(ctx, "ev1", "s1", []string{"A1"}, nil)
	require.NoError(t, err)

	clk.Advance(HoldTTL + time.Second)
	_, err = m.AcquireOrRenew(ctx, "ev1", "s2", []string{"A1"}, nil)
	assert.NoError(t, err, "an expired lock must not block a new session")

	_, err = m.ActiveLock(ctx, "ev1", "s1")
	assert.ErrorIs(t, err, repository.ErrLockNotFound)
}

func TestManager_UnknownSeatReportedBeforeSold(t *testing.T) {
	ev := testEvent()
	ev.Reserved["A1"] = true
	m, _, _ := newTestManager(ev)

	_, err := m.AcquireOrRenew(context.Background(), "ev1", "s1", []string{"Z9", "A1"}, nil)
	require.ErrorIs(t, err, repository.ErrInvalidSeat)
	var conflict *repository.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"Z9"}, conflict.Seats)
}

func TestManager_SoldSeatRejected(t *testing.T) {
	ev := testEvent()
	ev.Reserved["B1"] = true
	m, _, _ := newTestManager(ev)

	_, err := m.AcquireOrRenew(context.Background(), "ev1", "s1", []string{"B1"}, nil)
	require.ErrorIs(t, err, repository.ErrSeatAlreadyBooked)
	var conflict *repository.SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"B1"}, conflict.Seats)
}

func TestManager_EmptySelectionRejected(t *testing.T) {
	m, _, _ := newTestManager(testEvent())

	_, err := m.AcquireOrRenew(context.Background(), "ev1", "s1", []string{"", ""}, nil)
	assert.ErrorIs(t, err, repository.ErrInvalidSeat)
}

func TestManager_ReleaseIsIdempotent(t *testing.T) {
	m, _, _ := newTestManager(testEvent())
	ctx := context.Background()

	_, err := m.AcquireOrRenew(ctx, "ev1", "s1", []string{"A1"}, nil)
	require.NoError(t, err)

	require.NoError(t, m.Release(ctx, "ev1", "s1"))
	require.NoError(t, m.Release(ctx, "ev1", "s1"), "double release is a no-op")

	_, err = m.ActiveLock(ctx, "ev1", "s1")
	assert.ErrorIs(t, err, repository.ErrLockNotFound)
}

func TestManager_ListHeldSeatsSortedAndFiltered(t *testing.T) {
	m, clk, _ := newTestManager(testEvent())
	ctx := context.Background()

	_, err := m.AcquireOrRenew(ctx, "ev1", "s1", []string{"B1"}, nil)
	require.NoError(t, err)
	clk.Advance(3 * time.Minute)
	_, err = m.AcquireOrRenew(ctx, "ev1", "s2", []string{"A1"}, nil)
	require.NoError(t, err)

	held, err := m.ListHeldSeats(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, held)

	// s1's lock lapses first; only s2's seat remains visible.
	clk.Advance(HoldTTL - 3*time.Minute + time.Second)
	held, err = m.ListHeldSeats(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, held)
}

func TestManager_UnknownEvent(t *testing.T) {
	m, _, _ := newTestManager(testEvent())

	_, err := m.AcquireOrRenew(context.Background(), "nope", "s1", []string{"A1"}, nil)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}
