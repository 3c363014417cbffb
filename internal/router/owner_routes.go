package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-slot-booking/internal/handler"
	"github.com/iliyamo/turf-slot-booking/internal/middleware"
	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// RegisterOwner registers /v1/owner.  Any signed-in user may apply and
// check their status; venue management needs the owner role, and the
// service additionally requires the owner to be approved.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group("/v1/owner", middleware.JWTAuth(jwtSecret))
	g.POST("/apply", o.Apply)
	g.GET("/status", o.Status)

	owner := middleware.RequireRole(model.RoleOwner)
	g.POST("/venues", o.CreateVenue, owner)
	g.GET("/venues", o.Venues, owner)
	g.GET("/bookings", o.Bookings, owner)
	g.PATCH("/venues/:id/availability", o.SetAvailability, middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
}

// RegisterAdmin registers /v1/admin.  All routes require the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/owners/pending", a.PendingOwners)
	g.PATCH("/owners/:id/approve", a.ApproveOwner)
	g.PATCH("/owners/:id/reject", a.RejectOwner)

	g.GET("/venues/pending", a.PendingVenues)
	g.PATCH("/venues/:id/approve", a.ApproveVenue)
	g.PATCH("/venues/:id/reject", a.RejectVenue)

	g.GET("/bookings", a.Bookings)

	g.POST("/cities", a.AddCity)
	g.DELETE("/cities/:name", a.DeleteCity)
}
