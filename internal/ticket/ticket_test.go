package ticket

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

const testSecret = "ticket-signing-secret"

type fakeArtifacts struct {
	mu      sync.Mutex
	uploads map[string][]byte
	types   map[string]string
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{uploads: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeArtifacts) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = data
	f.types[key] = contentType
	return "mem://" + key, nil
}

// fakeBookings backs both issuance (SaveTicket) and redemption
// (FindByID, MarkRedeemed) with the same compare-and-set semantics as
// the SQL store.
type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func newFakeBookings(bs ...*model.Booking) *fakeBookings {
	f := &fakeBookings{bookings: map[string]*model.Booking{}}
	for _, b := range bs {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *fakeBookings) SaveTicket(_ context.Context, bookingID, token, artifactURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.QRToken = token
	b.ArtifactURL = artifactURL
	return nil
}

func (f *fakeBookings) FindByID(_ context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) MarkRedeemed(_ context.Context, bookingID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok || b.QRScanStatus {
		return false, nil
	}
	b.QRScanStatus = true
	b.QRScanDate = &at
	return true, nil
}

func eventStartingAt(start time.Time) *model.Event {
	return &model.Event{
		ID:          "ev1",
		OrganizerID: "org1",
		Title:       "Warehouse Show",
		TicketType:  "GA",
		StartsAt:    start,
		SeatPrices:  map[string]uint32{"A1": 2500, "A2": 2500},
	}
}

func paidBooking() *model.Booking {
	return &model.Booking{
		ID:            "b1",
		UserID:        "u1",
		EventID:       "ev1",
		Seats:         []string{"A1", "A2"},
		TotalCents:    5000,
		TicketType:    "GA",
		PaymentStatus: "PAID",
	}
}

func TestIssueAndRedeem(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	ev := eventStartingAt(clk.Now().Add(48 * time.Hour))
	store := newFakeBookings(paidBooking())
	artifacts := newFakeArtifacts()

	issuer := NewIssuer(testSecret, artifacts, store, clk)
	issued, err := issuer.Issue(context.Background(), paidBooking(), ev)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, "mem://tickets/b1.png", issued.ArtifactURL)
	assert.Equal(t, "image/png", artifacts.types["tickets/b1.png"])
	assert.NotEmpty(t, artifacts.uploads["tickets/b1.png"])

	// Token and URL are persisted on the booking.
	b, err := store.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, issued.Token, b.QRToken)
	assert.Equal(t, issued.ArtifactURL, b.ArtifactURL)

	redeemer := NewRedeemer(testSecret, store, clk)
	res, err := redeemer.Redeem(context.Background(), issued.Token, "ev1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyRedeemed)
	assert.Equal(t, "b1", res.BookingID)
	assert.ElementsMatch(t, []string{"A1", "A2"}, res.Seats)
	assert.Equal(t, "GA", res.TicketType)
	assert.Equal(t, clk.Now(), res.RedeemedAt)
}

func TestRedeem_SecondScanReportsFirstScanTime(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	ev := eventStartingAt(clk.Now().Add(48 * time.Hour))
	store := newFakeBookings(paidBooking())

	issuer := NewIssuer(testSecret, newFakeArtifacts(), store, clk)
	issued, err := issuer.Issue(context.Background(), paidBooking(), ev)
	require.NoError(t, err)

	redeemer := NewRedeemer(testSecret, store, clk)
	first, err := redeemer.Redeem(context.Background(), issued.Token, "ev1")
	require.NoError(t, err)
	firstScan := first.RedeemedAt

	clk.Advance(10 * time.Minute)
	second, err := redeemer.Redeem(context.Background(), issued.Token, "ev1")
	require.NoError(t, err, "a repeat scan is not an error")
	assert.True(t, second.AlreadyRedeemed)
	assert.Equal(t, firstScan, second.RedeemedAt, "repeat scan reports the original scan time")
}

func TestRedeem_ExpiresDayAfterEventStart(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	start := clk.Now().Add(48 * time.Hour)
	ev := eventStartingAt(start)
	store := newFakeBookings(paidBooking())

	issuer := NewIssuer(testSecret, newFakeArtifacts(), store, clk)
	issued, err := issuer.Issue(context.Background(), paidBooking(), ev)
	require.NoError(t, err)

	redeemer := NewRedeemer(testSecret, store, clk)

	// Still scannable right up to start + 24h.
	clk.Advance(48*time.Hour + 23*time.Hour)
	_, err = redeemer.Redeem(context.Background(), issued.Token, "ev1")
	require.NoError(t, err)

	// And rejected after the grace day lapses.
	clk.Advance(2 * time.Hour)
	_, err = redeemer.Redeem(context.Background(), issued.Token, "ev1")
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRedeem_WrongEvent(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	ev := eventStartingAt(clk.Now().Add(48 * time.Hour))
	store := newFakeBookings(paidBooking())

	issuer := NewIssuer(testSecret, newFakeArtifacts(), store, clk)
	issued, err := issuer.Issue(context.Background(), paidBooking(), ev)
	require.NoError(t, err)

	redeemer := NewRedeemer(testSecret, store, clk)
	_, err = redeemer.Redeem(context.Background(), issued.Token, "ev2")
	assert.ErrorIs(t, err, ErrWrongEvent)

	// The failed scan must not consume the ticket.
	res, err := redeemer.Redeem(context.Background(), issued.Token, "ev1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyRedeemed)
}

func TestRedeem_InvalidTokens(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	store := newFakeBookings(paidBooking())
	redeemer := NewRedeemer(testSecret, store, clk)

	_, err := redeemer.Redeem(context.Background(), "not-a-jwt", "ev1")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Token signed with a different secret.
	ev := eventStartingAt(clk.Now().Add(48 * time.Hour))
	otherIssuer := NewIssuer("other-secret", newFakeArtifacts(), store, clk)
	issued, err := otherIssuer.Issue(context.Background(), paidBooking(), ev)
	require.NoError(t, err)
	_, err = redeemer.Redeem(context.Background(), issued.Token, "ev1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
