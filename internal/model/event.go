package model

import "time"

// Event is the seat-map view of an event as seen by the reservation
// engine.  The full event document (description, images, venue data)
// is owned by the listings service; this engine only reads the seat
// inventory and appends to the reserved set.
//
// Fields:
//  ID          – event identifier.
//  OrganizerID – organizer who owns the event; bound into issued tickets.
//  Title       – display title, used in notification payloads.
//  TicketType  – ticket class sold for this event (e.g. "GENERAL", "VIP").
//  StartsAt    – scheduled start; redemption tokens expire 24h after it.
//  SeatPrices  – every valid seat number mapped to its price in cents.
//  Reserved    – seat numbers already permanently sold.  Append-only:
//                a seat that enters this set never leaves it through
//                this engine.
type Event struct {
	ID          string
	OrganizerID string
	Title       string
	TicketType  string
	StartsAt    time.Time
	SeatPrices  map[string]uint32
	Reserved    map[string]bool
}

// HasSeat reports whether the seat number exists in the event's seat map.
func (e *Event) HasSeat(n string) bool {
	_, ok := e.SeatPrices[n]
	return ok
}
