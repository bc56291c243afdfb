// Package ticket issues signed redemption tokens for committed
// bookings and consumes them at the venue gate. The token itself is
// stateless (signature + expiry); whether it has been used lives on
// the booking record.
package ticket

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Redemption errors shown to gate staff. All are client-correctable
// (4xx-equivalent); none changes booking state.
var (
	ErrInvalidToken = errors.New("ticket: invalid token")
	ErrExpiredToken = errors.New("ticket: token expired")
	ErrWrongEvent   = errors.New("ticket: token bound to a different event")
)

// Claims is the signed payload of a redemption token. Expiry is fixed
// at issuance to the event's scheduled start plus 24 hours.
type Claims struct {
	BookingID   string   `json:"booking_id"`
	EventID     string   `json:"event_id"`
	UserID      string   `json:"user_id"`
	OrganizerID string   `json:"organizer_id"`
	Seats       []string `json:"seats"`
	TicketType  string   `json:"ticket_type"`
	jwt.RegisteredClaims
}
