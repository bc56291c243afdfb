package handler // HTTP handlers for the ticketing API

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// getUserID extracts the authenticated subject from the context, where
// JWTAuth stored it. Returns empty when the request is unauthenticated
// (guest hold sessions are allowed).
func getUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}

// seatConflictJSON maps the repository's seat conflict taxonomy onto
// HTTP responses, attaching the offending seat list. Returns false when
// err is not a seat conflict so callers can fall through.
func seatConflictJSON(c echo.Context, err error) (bool, error) {
	var conflict *repository.SeatConflictError
	if !errors.As(err, &conflict) {
		return false, nil
	}
	switch {
	case errors.Is(err, repository.ErrInvalidSeat):
		return true, c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unknown seats",
			"seats": conflict.Seats,
		})
	case errors.Is(err, repository.ErrSeatAlreadyBooked):
		return true, c.JSON(http.StatusConflict, echo.Map{
			"error": "seats already sold",
			"seats": conflict.Seats,
		})
	case errors.Is(err, repository.ErrSeatTemporarilyHeld):
		return true, c.JSON(http.StatusConflict, echo.Map{
			"error": "seats temporarily held",
			"seats": conflict.Seats,
		})
	default:
		return true, c.JSON(http.StatusConflict, echo.Map{
			"error": "seat conflict",
			"seats": conflict.Seats,
		})
	}
}
