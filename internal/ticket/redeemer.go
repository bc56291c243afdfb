package ticket

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// BookingStore is what redemption needs from the booking record: a
// lookup and the one-way compare-and-set that flips a booking to
// redeemed exactly once.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	MarkRedeemed(ctx context.Context, bookingID string, at time.Time) (bool, error)
}

// RedemptionResult reports the outcome of a scan. AlreadyRedeemed is
// not an error: gate staff retry scans routinely, and the second scan
// must show when the first one happened.
type RedemptionResult struct {
	BookingID       string
	Seats           []string
	TicketType      string
	AlreadyRedeemed bool
	RedeemedAt      time.Time
}

// Redeemer validates presented tokens and drives the
// unredeemed -> redeemed transition. The transition is terminal; no
// reverse path exists.
type Redeemer struct {
	secret   []byte
	bookings BookingStore
	clock    clock.Clock
}

// NewRedeemer constructs a Redeemer sharing the Issuer's signing secret.
func NewRedeemer(secret string, bookings BookingStore, clk clock.Clock) *Redeemer {
	return &Redeemer{secret: []byte(secret), bookings: bookings, clock: clk}
}

// Redeem validates the token and redeems its booking.
// expectedEventID is the scanner's own event context: a ticket for
// event A presented at event B's gate fails with ErrWrongEvent even
// when its signature is valid.
func (r *Redeemer) Redeem(ctx context.Context, token, expectedEventID string) (*RedemptionResult, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return r.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(r.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	b, err := r.bookings.FindByID(ctx, claims.BookingID)
	if err != nil {
		return nil, err
	}

	if b.QRScanStatus {
		return alreadyRedeemed(b), nil
	}

	if claims.EventID != expectedEventID {
		return nil, ErrWrongEvent
	}

	now := r.clock.Now()
	ok, err := r.bookings.MarkRedeemed(ctx, b.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a concurrent scan; report the winner's
		// timestamp.
		b, err = r.bookings.FindByID(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		return alreadyRedeemed(b), nil
	}
	return &RedemptionResult{
		BookingID:  b.ID,
		Seats:      b.Seats,
		TicketType: b.TicketType,
		RedeemedAt: now,
	}, nil
}

func alreadyRedeemed(b *model.Booking) *RedemptionResult {
	res := &RedemptionResult{
		BookingID:       b.ID,
		Seats:           b.Seats,
		TicketType:      b.TicketType,
		AlreadyRedeemed: true,
	}
	if b.QRScanDate != nil {
		res.RedeemedAt = *b.QRScanDate
	}
	return res
}
