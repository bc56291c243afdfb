package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// Handlers bundles every handler the API mounts.
type Handlers struct {
	Events   *handler.EventHandler
	Holds    *handler.HoldHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Tickets  *handler.TicketHandler
}

// Register mounts all routes on the Echo instance.
//
// Public surface: health, seat availability (response-cached), hold
// acquire/release and checkout (rate-limited; sessions work for guests
// and authenticated buyers alike). The webhook authenticates by HMAC
// signature, not JWT. Redemption and reissue are staff endpoints
// behind JWT + role checks.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Optional auth: a signed-in buyer's id reaches the lock manager,
	// the booking and the rate limiter; guests pass through untouched.
	v1 := e.Group("/v1", middleware.OptionalJWTAuth(cfg.JWTSecret))
	v1.GET("/events/:id/seats", h.Events.ListSeats, cache)
	v1.POST("/events/:id/holds", h.Holds.Acquire, limiter)
	v1.DELETE("/events/:id/holds", h.Holds.Release, limiter)
	v1.POST("/events/:id/checkout", h.Checkout.StartCheckout, limiter)

	v1.POST("/payments/webhook", h.Webhook.HandleNotification)

	staff := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	staff.POST("/events/:id/redeem", h.Tickets.Redeem, middleware.RequireRole("STAFF", "ORGANIZER"))
	staff.POST("/bookings/:id/ticket", h.Tickets.Reissue, middleware.RequireRole("ORGANIZER"))
}
