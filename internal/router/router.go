// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/middleware"
)

// Handlers groups everything the router needs to register the API.
type Handlers struct {
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Booking *handler.BookingHandler
	Payment *handler.PaymentHandler

	JWTSecret string
	RateLimit echo.MiddlewareFunc // nil disables rate limiting
	Cache     echo.MiddlewareFunc // nil disables response caching
}

// Register mounts all routes on the Echo instance.  Catalog browsing
// is public and cacheable; everything that touches bookings or
// payments requires a valid access token, and the write endpoints are
// rate limited.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)

	// identity
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	// public catalog, cached when Redis is configured
	catalog := e.Group("/v1")
	if h.Cache != nil {
		catalog.Use(h.Cache)
	}
	catalog.GET("/travel-modes", h.Catalog.ListModes)
	catalog.GET("/trips", h.Catalog.SearchTrips)
	catalog.GET("/trips/:id", h.Catalog.GetTrip)

	// authenticated endpoints
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(h.JWTSecret))
	auth.GET("/me", h.Auth.Me)
	auth.GET("/me/stats", h.Auth.Stats)
	auth.GET("/trips/:id/quote", h.Booking.Quote)
	auth.GET("/my-bookings", h.Booking.ListMine)

	writes := auth.Group("")
	if h.RateLimit != nil {
		writes.Use(h.RateLimit)
	}
	writes.POST("/trips/:id/bookings/offline", h.Booking.CreateOffline)
	writes.POST("/trips/:id/bookings/online", h.Booking.CreateOnline)
	writes.DELETE("/bookings/:id", h.Booking.Cancel)
	writes.POST("/payments/order", h.Payment.CreateOrder)
}
