package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/lock"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// HoldHandler exposes the temporary seat lock operations. Sessions are
// client-side identities: an authenticated buyer and an anonymous
// browser are both just a session_id to the lock manager, so guests can
// hold seats before signing in.
type HoldHandler struct {
	Locks *lock.Manager
}

func NewHoldHandler(locks *lock.Manager) *HoldHandler {
	if locks == nil {
		panic("nil lock manager passed to NewHoldHandler")
	}
	return &HoldHandler{Locks: locks}
}

// Acquire handles POST /v1/events/:id/holds. The body carries the seat
// numbers and an optional session_id; omitting it starts a fresh
// session whose id is returned. Re-posting with the same session_id
// replaces that session's hold and restarts the countdown.
func (h *HoldHandler) Acquire(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		SessionID string   `json:"session_id"`
		Seats     []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	var userID *string
	if uid := getUserID(c); uid != "" {
		userID = &uid
	}

	lk, err := h.Locks.AcquireOrRenew(c.Request().Context(), eventID, sessionID, body.Seats, userID)
	if err != nil {
		if handled, resp := seatConflictJSON(c, err); handled {
			return resp
		}
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to acquire hold"})
	}
	// Echo the stored seat set, not the request: the manager drops
	// empty and repeated seat numbers.
	return c.JSON(http.StatusCreated, echo.Map{
		"session_id": sessionID,
		"seats":      lk.Seats,
		"expires_at": lk.ExpiresAt.Format(time.RFC3339),
	})
}

// Release handles DELETE /v1/events/:id/holds. Releasing a session
// with no active hold is a no-op success.
func (h *HoldHandler) Release(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&body); err != nil || body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	if err := h.Locks.Release(c.Request().Context(), eventID, body.SessionID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
	}
	return c.NoContent(http.StatusNoContent)
}
