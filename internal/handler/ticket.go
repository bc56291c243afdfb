package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/fulfillment"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/ticket"
)

// TicketHandler covers the staff-facing ticket operations: reissuing a
// lost artifact and redeeming a ticket at the door.
type TicketHandler struct {
	Fulfillment *fulfillment.Service
	Redeemer    *ticket.Redeemer
}

func NewTicketHandler(svc *fulfillment.Service, redeemer *ticket.Redeemer) *TicketHandler {
	if svc == nil || redeemer == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Fulfillment: svc, Redeemer: redeemer}
}

// Reissue handles POST /v1/bookings/:id/ticket. A fresh token and
// artifact replace the stored ones; previously issued tokens for the
// booking keep verifying but redemption state is shared, so the first
// scan of any of them wins.
func (h *TicketHandler) Reissue(c echo.Context) error {
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	issued, err := h.Fulfillment.Reissue(c.Request().Context(), bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue ticket"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"token":        issued.Token,
		"artifact_url": issued.ArtifactURL,
	})
}

// Redeem handles POST /v1/events/:id/redeem. The first successful scan
// marks the booking attended; any later scan of the same booking
// reports already_redeemed with the original scan time.
func (h *TicketHandler) Redeem(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil || body.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	res, err := h.Redeemer.Redeem(c.Request().Context(), body.Token, eventID)
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrExpiredToken):
			return c.JSON(http.StatusGone, echo.Map{"error": "ticket expired"})
		case errors.Is(err, ticket.ErrWrongEvent):
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket belongs to a different event"})
		case errors.Is(err, ticket.ErrInvalidToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid ticket"})
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redemption failed"})
	}

	resp := echo.Map{
		"booking_id":       res.BookingID,
		"seats":            res.Seats,
		"ticket_type":      res.TicketType,
		"already_redeemed": res.AlreadyRedeemed,
	}
	if !res.RedeemedAt.IsZero() {
		resp["redeemed_at"] = res.RedeemedAt.Format(time.RFC3339)
	}
	if res.AlreadyRedeemed {
		return c.JSON(http.StatusConflict, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
