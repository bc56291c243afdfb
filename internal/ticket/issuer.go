package ticket

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/storage"
)

// tokenLifetimeAfterStart: a ticket stays scannable until one day
// after the event begins, covering late entry and re-entry.
const tokenLifetimeAfterStart = 24 * time.Hour

// TicketSaver persists the issued token and artifact URL on the booking.
type TicketSaver interface {
	SaveTicket(ctx context.Context, bookingID, token, artifactURL string) error
}

// Issued is the result of ticket issuance.
type Issued struct {
	Token       string
	ArtifactURL string
}

// Issuer builds redemption tokens and their scannable artifacts.
type Issuer struct {
	secret    []byte
	artifacts storage.ArtifactStore
	bookings  TicketSaver
	clock     clock.Clock
}

// NewIssuer constructs an Issuer. The secret signs redemption tokens
// and must match the Redeemer's.
func NewIssuer(secret string, artifacts storage.ArtifactStore, bookings TicketSaver, clk clock.Clock) *Issuer {
	return &Issuer{secret: []byte(secret), artifacts: artifacts, bookings: bookings, clock: clk}
}

// Issue signs a redemption token for the booking, renders the QR
// artifact, uploads it and persists both on the booking record.
// Issuance failures are reported to the caller but never unwind the
// committed booking; the ticket can be regenerated later.
func (i *Issuer) Issue(ctx context.Context, b *model.Booking, ev *model.Event) (*Issued, error) {
	now := i.clock.Now()
	claims := Claims{
		BookingID:   b.ID,
		EventID:     ev.ID,
		UserID:      b.UserID,
		OrganizerID: ev.OrganizerID,
		Seats:       b.Seats,
		TicketType:  b.TicketType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ev.StartsAt.Add(tokenLifetimeAfterStart)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign redemption token: %w", err)
	}

	png, err := qrcode.Encode(token, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("render qr artifact: %w", err)
	}
	key := fmt.Sprintf("tickets/%s.png", b.ID)
	url, err := i.artifacts.Upload(ctx, key, png, "image/png")
	if err != nil {
		return nil, fmt.Errorf("upload qr artifact: %w", err)
	}

	if err := i.bookings.SaveTicket(ctx, b.ID, token, url); err != nil {
		return nil, fmt.Errorf("persist ticket on booking: %w", err)
	}
	return &Issued{Token: token, ArtifactURL: url}, nil
}
