// Package fulfillment bridges the asynchronous payment flow back into
// durable booking records. StartCheckout hands an encrypted intent to
// the gateway; Fulfill converts the gateway's payment-completed
// callback into exactly one committed booking, no matter how often the
// callback is delivered.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/intent"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/notify"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

// ErrNotCompleted reports a verified notification that is not a
// successful payment (failed charge, unrelated event type). The
// webhook handler acknowledges these without any state change.
var ErrNotCompleted = errors.New("fulfillment: notification is not a completed payment")

// metadataKey is where the encrypted intent rides in gateway metadata.
const metadataKey = "intent"

// EventStore reads the seat map.
type EventStore interface {
	GetEvent(ctx context.Context, eventID string) (*model.Event, error)
}

// BookingStore persists bookings. CreateWithSeats must atomically
// append the reserved seats and insert the booking row; its two
// distinguishable failures (ErrDuplicateSession, seat conflict) drive
// the orchestration below.
type BookingStore interface {
	FindByGatewaySession(ctx context.Context, sessionID string) (*model.Booking, error)
	FindByID(ctx context.Context, bookingID string) (*model.Booking, error)
	CreateWithSeats(ctx context.Context, b *model.Booking) error
}

// LockStore is the slice of the lock manager fulfillment touches: the
// checkout precondition and the post-commit release.
type LockStore interface {
	ActiveLock(ctx context.Context, eventID, sessionID string) (*model.SeatLock, error)
	Release(ctx context.Context, eventID, sessionID string) error
}

// TicketIssuer produces the redemption token and artifact for a
// committed booking.
type TicketIssuer interface {
	Issue(ctx context.Context, b *model.Booking, ev *model.Event) (*ticket.Issued, error)
}

// Notifier publishes the booking-confirmed event. Failures are logged
// and swallowed; they never affect the committed booking.
type Notifier func(ctx context.Context, ev notify.BookingConfirmedEvent) error

// Service orchestrates checkout and fulfillment.
type Service struct {
	gateway    gateway.PaymentGateway
	codec      *intent.Codec
	events     EventStore
	bookings   BookingStore
	locks      LockStore
	issuer     TicketIssuer
	notify     Notifier
	clock      clock.Clock
	successURL string
	cancelURL  string
}

// NewService wires the orchestrator. notify may be nil to disable
// event publishing (e.g. in tests).
func NewService(gw gateway.PaymentGateway, codec *intent.Codec, events EventStore,
	bookings BookingStore, locks LockStore, issuer TicketIssuer, notifier Notifier,
	clk clock.Clock, successURL, cancelURL string) *Service {
	return &Service{
		gateway:    gw,
		codec:      codec,
		events:     events,
		bookings:   bookings,
		locks:      locks,
		issuer:     issuer,
		notify:     notifier,
		clock:      clk,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// StartCheckout turns the session's active seat lock into a gateway
// checkout session. The priced, encrypted intent travels as metadata;
// the gateway is the only durable store between "buyer clicks pay" and
// the completion callback, and it never sees the plaintext.
func (s *Service) StartCheckout(ctx context.Context, eventID, sessionID, userID, email string) (*gateway.CheckoutSession, error) {
	lk, err := s.locks.ActiveLock(ctx, eventID, sessionID)
	if err != nil {
		return nil, err
	}
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var total uint32
	for _, seat := range lk.Seats {
		price, ok := ev.SeatPrices[seat]
		if !ok {
			return nil, repository.NewSeatConflict(repository.ErrInvalidSeat, []string{seat})
		}
		total += price
	}

	token, err := s.codec.Encode(model.PaymentIntent{
		UserID:      userID,
		EventID:     eventID,
		SessionID:   sessionID,
		Seats:       lk.Seats,
		TotalCents:  total,
		BookingDate: ev.StartsAt,
		TicketType:  ev.TicketType,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}

	return s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		Email:       email,
		AmountCents: total,
		Metadata:    map[string]string{metadataKey: token},
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
	})
}

// Fulfill converts a payment-completed webhook into a booking.
//
// Steps 1–4 (signature, decode, idempotency lookup, availability) are
// fail-closed: they mutate nothing. The atomic insert in step 5 is the
// sole correctness guarantee against duplicate or concurrent
// callbacks; everything before it is advisory. Ticket issuance, lock
// release and notification failures never unwind the booking.
func (s *Service) Fulfill(ctx context.Context, payload []byte, signature string) (*model.Booking, error) {
	if !s.gateway.VerifySignature(payload, signature) {
		return nil, gateway.ErrInvalidSignature
	}
	n, err := gateway.ParseNotification(payload)
	if err != nil {
		return nil, fmt.Errorf("parse notification: %w", err)
	}
	if !n.Succeeded() {
		return nil, ErrNotCompleted
	}

	in, err := s.codec.Decode(n.Metadata[metadataKey])
	if err != nil {
		// The payment already succeeded at the gateway; this needs
		// manual reconciliation, never an automatic refund.
		log.Printf("fulfillment: intent decode failed for session=%s payment=%s: %v",
			n.SessionID, n.PaymentID, err)
		return nil, err
	}

	// Duplicate delivery: return the booking the first delivery made.
	if b, err := s.bookings.FindByGatewaySession(ctx, n.SessionID); err == nil {
		return b, nil
	} else if !errors.Is(err, repository.ErrBookingNotFound) {
		return nil, err
	}

	ev, err := s.events.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	var sold []string
	for _, seat := range in.Seats {
		if ev.Reserved[seat] {
			sold = append(sold, seat)
		}
	}
	if len(sold) > 0 {
		log.Printf("fulfillment: seats %v already sold for session=%s event=%s; manual refund required",
			sold, n.SessionID, in.EventID)
		return nil, repository.NewSeatConflict(repository.ErrSeatConflict, sold)
	}

	b := &model.Booking{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		EventID:       in.EventID,
		Seats:         in.Seats,
		TotalCents:    in.TotalCents,
		TicketType:    in.TicketType,
		BookingDate:   in.BookingDate,
		PaymentStatus: "PAID",
		Payment: model.PaymentDetails{
			GatewaySessionID: n.SessionID,
			GatewayPaymentID: n.PaymentID,
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.bookings.CreateWithSeats(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			// A concurrent delivery won the insert race.
			return s.bookings.FindByGatewaySession(ctx, n.SessionID)
		}
		var conflict *repository.SeatConflictError
		if errors.As(err, &conflict) {
			log.Printf("fulfillment: commit lost seat race for session=%s seats=%v; manual refund required",
				n.SessionID, conflict.Seats)
		}
		return nil, err
	}

	if issued, err := s.issuer.Issue(ctx, b, ev); err != nil {
		// Booking stays committed; the ticket can be reissued.
		log.Printf("fulfillment: ticket issuance failed for booking=%s: %v", b.ID, err)
	} else {
		b.QRToken = issued.Token
		b.ArtifactURL = issued.ArtifactURL
	}

	// Best effort: the lock's own expiry reclaims it if this fails.
	if err := s.locks.Release(ctx, in.EventID, in.SessionID); err != nil {
		log.Printf("fulfillment: lock release failed for event=%s session=%s: %v",
			in.EventID, in.SessionID, err)
	}

	if s.notify != nil {
		evn := notify.BookingConfirmedEvent{
			BookingID:   b.ID,
			UserID:      b.UserID,
			EventID:     b.EventID,
			EventTitle:  ev.Title,
			OrganizerID: ev.OrganizerID,
			Seats:       b.Seats,
			TotalCents:  b.TotalCents,
			TicketType:  b.TicketType,
			ArtifactURL: b.ArtifactURL,
			ConfirmedAt: s.clock.Now().Format(time.RFC3339),
		}
		if err := s.notify(ctx, evn); err != nil {
			log.Printf("fulfillment: notification publish failed for booking=%s: %v", b.ID, err)
		}
	}
	return b, nil
}

// Reissue regenerates the ticket for an existing booking, e.g. after
// an issuance failure during fulfillment or a lost artifact.
func (s *Service) Reissue(ctx context.Context, bookingID string) (*ticket.Issued, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ev, err := s.events.GetEvent(ctx, b.EventID)
	if err != nil {
		return nil, err
	}
	return s.issuer.Issue(ctx, b, ev)
}
