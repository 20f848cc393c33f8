// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gerswin/2025v2POS-sub001/internal/handler"
	"github.com/gerswin/2025v2POS-sub001/internal/middleware"
)

// Handlers bundles the handler set the router wires up.
type Handlers struct {
	Pricing     *handler.PricingHandler
	Reservation *handler.ReservationHandler
	Inventory   *handler.InventoryHandler
	Checkout    *handler.CheckoutHandler
	Admin       *handler.AdminHandler
}

// RegisterRoutes registers every route on the provided Echo instance.
// Read-only pricing lookups are public; everything that claims or moves
// inventory requires a verified checkout session.  The rate limiter
// wraps the session-protected group, where the load spikes live.
func RegisterRoutes(e *echo.Echo, h Handlers, sessionSecret string, rateLimit echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public price discovery: quotes, stage availability and the audit
	// trail.  Seat-map refreshes hit these hard, so no auth round-trip.
	e.GET("/v1/zones/:id/quote", h.Pricing.Quote)
	e.GET("/v1/stages/:id/availability", h.Pricing.Availability)
	e.GET("/v1/events/:id/price-records", h.Pricing.Records)
	e.GET("/v1/events/:id/transitions", h.Admin.Transitions)

	// Session-scoped purchase flow.
	s := e.Group("/v1")
	s.Use(middleware.SessionAuth(sessionSecret))
	if rateLimit != nil {
		s.Use(rateLimit)
	}
	s.POST("/reservations", h.Reservation.Create)
	s.GET("/reservations/:id", h.Reservation.Get)
	s.POST("/reservations/:id/confirm", h.Reservation.Confirm)
	s.POST("/reservations/:id/release", h.Reservation.Release)

	s.POST("/locks", h.Inventory.Create)
	s.GET("/locks/:id", h.Inventory.Get)
	s.POST("/locks/:id/extend", h.Inventory.Extend)
	s.POST("/locks/:id/release", h.Inventory.Release)

	s.POST("/checkout/complete", h.Checkout.Complete)
	s.POST("/checkout/abandon", h.Checkout.Abandon)

	// Operator endpoints share the session middleware; operator tokens
	// are issued by the same checkout subsystem with an admin audience.
	s.POST("/admin/stages/:id/transition", h.Admin.TransitionStage)
	s.POST("/admin/stages/:id/sold-correction", h.Admin.CorrectSold)
	s.POST("/admin/events/:id/transitions/process", h.Admin.ProcessTransitions)
}
