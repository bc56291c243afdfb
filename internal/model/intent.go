package model

import "time"

// PaymentIntent is the set of booking facts a buyer commits to before
// paying.  It is never persisted: the encoded form rides through the
// payment gateway as opaque metadata and is reconstructed only when
// the gateway calls back.  Only scalar and short-array fields belong
// here – the gateway metadata channel is size-limited.
//
// SessionID identifies the seat lock that guarded this checkout so
// fulfillment can release it once the booking is committed.
type PaymentIntent struct {
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id"`
	Seats       []string  `json:"seats"`
	TotalCents  uint32    `json:"total_cents"`
	BookingDate time.Time `json:"booking_date"`
	TicketType  string    `json:"ticket_type"`
	CreatedAt   time.Time `json:"created_at"`
}
