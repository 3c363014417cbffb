// Package router registers the HTTP routes.  Every API route lives
// under /v1; authentication and roles are attached per group.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-slot-booking/internal/handler"
	"github.com/iliyamo/turf-slot-booking/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational routes.
func RegisterRoutes(e *echo.Echo, h *handler.Health) {
	e.GET("/healthz", h.Handle)
}

// RegisterAuth registers /v1/auth.  Logout accepts either a refresh token
// in the body or a bearer token, so it only reads the identity if sent.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the directory and availability routes.
// listing wraps the venue list, normally with the response cache.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, listing ...echo.MiddlewareFunc) {
	e.GET("/v1/venues", v.List, listing...)
	e.GET("/v1/venues/:id", v.Get)
	e.GET("/v1/venues/:id/slots/:date", v.Slots)
	e.GET("/v1/cities", v.Cities)
}
