package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/fulfillment"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// CheckoutHandler turns an active seat hold into a gateway checkout
// session.
type CheckoutHandler struct {
	Fulfillment *fulfillment.Service
}

func NewCheckoutHandler(svc *fulfillment.Service) *CheckoutHandler {
	if svc == nil {
		panic("nil fulfillment service passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Fulfillment: svc}
}

// StartCheckout handles POST /v1/events/:id/checkout. The session must
// still hold seats; an expired hold gets 409 so the client re-acquires
// before paying.
func (h *CheckoutHandler) StartCheckout(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		SessionID string `json:"session_id"`
		Email     string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SessionID == "" || body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id and email are required"})
	}

	sess, err := h.Fulfillment.StartCheckout(c.Request().Context(), eventID, body.SessionID, getUserID(c), body.Email)
	if err != nil {
		if errors.Is(err, repository.ErrLockNotFound) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no active seat hold for this session"})
		}
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		if handled, resp := seatConflictJSON(c, err); handled {
			return resp
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to start checkout"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"checkout_session_id": sess.ID,
		"checkout_url":        sess.URL,
	})
}
