// Package notify defines the message payloads exchanged over the
// broker and the publisher/consumer around them. Notification is
// strictly fire-and-forget: a publish failure is logged and returned,
// and callers never let it affect a committed booking.
package notify

// BookingConfirmedEvent is published when fulfillment commits a
// booking. It carries enough for downstream consumers (confirmation
// mailer, organizer notification, analytics) to act without querying
// the primary database.
type BookingConfirmedEvent struct {
	BookingID   string   `json:"booking_id"`
	UserID      string   `json:"user_id"`
	EventID     string   `json:"event_id"`
	EventTitle  string   `json:"event_title"`
	OrganizerID string   `json:"organizer_id"`
	Seats       []string `json:"seats"`
	TotalCents  uint32   `json:"total_cents"`
	TicketType  string   `json:"ticket_type"`
	ArtifactURL string   `json:"artifact_url"`
	ConfirmedAt string   `json:"confirmed_at"`
}
