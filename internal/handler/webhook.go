package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/fulfillment"
	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/intent"
)

// signatureHeader carries the gateway's HMAC over the raw body.
const signatureHeader = "x-paystack-signature"

// WebhookHandler receives payment notifications from the gateway.
// Duplicate deliveries and ignored event types answer 200 so the
// gateway stops retrying. Bad signatures, undecodable intents and
// seat conflicts answer 4xx: the gateway keeps those in its failed
// delivery log, which is where operators pick up the manual
// reconciliation the fulfillment log calls for. Only transient
// failures answer 5xx.
type WebhookHandler struct {
	Fulfillment *fulfillment.Service
}

func NewWebhookHandler(svc *fulfillment.Service) *WebhookHandler {
	if svc == nil {
		panic("nil fulfillment service passed to NewWebhookHandler")
	}
	return &WebhookHandler{Fulfillment: svc}
}

// HandleNotification handles POST /v1/payments/webhook.
func (h *WebhookHandler) HandleNotification(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get(signatureHeader)

	b, err := h.Fulfillment.Fulfill(c.Request().Context(), payload, sig)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		case errors.Is(err, fulfillment.ErrNotCompleted):
			// Verified but not a completed payment; ack so the
			// gateway stops retrying.
			return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
		case errors.Is(err, intent.ErrDecrypt):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid payment intent"})
		}
		if handled, resp := seatConflictJSON(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fulfillment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":     "fulfilled",
		"booking_id": b.ID,
	})
}
