package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/lock"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// EventHandler serves the public seat availability view. Availability
// is advisory: the response can go stale the moment it is written, and
// both the lock manager and the booking insert re-check on write.
type EventHandler struct {
	Events *repository.EventRepo
	Locks  *lock.Manager
}

func NewEventHandler(events *repository.EventRepo, locks *lock.Manager) *EventHandler {
	if events == nil || locks == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Locks: locks}
}

type seatView struct {
	Seat       string `json:"seat"`
	PriceCents uint32 `json:"price_cents"`
	Status     string `json:"status"` // AVAILABLE | HELD | SOLD
}

// ListSeats handles GET /v1/events/:id/seats. It merges the immutable
// seat map, the append-only sold set and the currently held set into
// one listing, sorted by seat number.
func (h *EventHandler) ListSeats(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx := c.Request().Context()
	ev, err := h.Events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	held, err := h.Locks.ListHeldSeats(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load held seats"})
	}
	heldSet := make(map[string]bool, len(held))
	for _, s := range held {
		heldSet[s] = true
	}

	seats := make([]seatView, 0, len(ev.SeatPrices))
	for seat, price := range ev.SeatPrices {
		status := "AVAILABLE"
		switch {
		case ev.Reserved[seat]:
			status = "SOLD"
		case heldSet[seat]:
			status = "HELD"
		}
		seats = append(seats, seatView{Seat: seat, PriceCents: price, Status: status})
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].Seat < seats[j].Seat })

	return c.JSON(http.StatusOK, echo.Map{
		"event_id":    ev.ID,
		"title":       ev.Title,
		"ticket_type": ev.TicketType,
		"starts_at":   ev.StartsAt,
		"seats":       seats,
	})
}
