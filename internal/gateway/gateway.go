// Package gateway abstracts the external payment provider behind a
// small capability interface. Two implementations exist: Client talks
// to the real provider's HTTP API, Sandbox simulates it in memory.
// The implementation is selected once at startup from configuration;
// business logic never branches on "are we in test mode".
package gateway

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidSignature is returned when a webhook payload fails
// signature verification. Fulfillment rejects such notifications with
// no state change.
var ErrInvalidSignature = errors.New("gateway: invalid webhook signature")

// CheckoutParams describes a hosted checkout session to create. The
// metadata travels through the gateway untouched and comes back on the
// completion callback; this engine stores the encrypted payment intent
// there.
type CheckoutParams struct {
	Email       string
	AmountCents uint32
	Currency    string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the gateway's handle for a pending payment: the
// session id later arrives on the completion callback, the URL is
// where the buyer is redirected to pay.
type CheckoutSession struct {
	ID  string
	URL string
}

// Notification is the decoded form of a payment-completed callback.
type Notification struct {
	SessionID string
	PaymentID string
	Status    string
	Metadata  map[string]string
}

// Succeeded reports whether the gateway considers the payment captured.
func (n *Notification) Succeeded() bool {
	return n.Status == "success" || n.Status == "successful"
}

// PaymentGateway is the capability this engine needs from a payment
// provider. Signature verification keys are supplied out of band at
// construction time.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	VerifySignature(payload []byte, signature string) bool
}

// webhookEvent mirrors the provider's callback envelope.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.Number       `json:"id"`
		Reference string            `json:"reference"`
		Status    string            `json:"status"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"data"`
}

// ParseNotification decodes a webhook body into a Notification. It
// performs no signature checking; callers must verify first.
func ParseNotification(payload []byte) (*Notification, error) {
	var ev webhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	if ev.Data.Reference == "" {
		return nil, errors.New("gateway: notification missing reference")
	}
	return &Notification{
		SessionID: ev.Data.Reference,
		PaymentID: ev.Data.ID.String(),
		Status:    ev.Data.Status,
		Metadata:  ev.Data.Metadata,
	}, nil
}
