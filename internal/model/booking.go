package model

import "time"

// PaymentDetails records the gateway-side identifiers of the payment
// that produced a booking.  GatewaySessionID carries a uniqueness
// constraint in the store: it is the guard that makes fulfillment
// idempotent under duplicate callbacks.
type PaymentDetails struct {
	GatewaySessionID string
	GatewayPaymentID string
}

// Booking is the permanent record of a paid seat purchase.  Exactly
// one booking exists per successfully paid checkout session.  After
// creation the only mutations this engine performs are writing the
// ticket artifact (qr token + URL) and the one-way redemption flip.
type Booking struct {
	ID            string
	UserID        string
	EventID       string
	Seats         []string
	TotalCents    uint32
	TicketType    string
	BookingDate   time.Time
	PaymentStatus string // "PAID"
	QRToken       string
	ArtifactURL   string
	QRScanStatus  bool
	QRScanDate    *time.Time
	Payment       PaymentDetails
	CreatedAt     time.Time
}
