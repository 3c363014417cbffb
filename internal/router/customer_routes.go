package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-slot-booking/internal/handler"
	"github.com/iliyamo/turf-slot-booking/internal/middleware"
)

// RegisterBookings registers the player-facing booking routes.  Creating
// a booking does not require an account; limiter runs after the optional
// identity is read so signed-in players get their own bucket.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	create := []echo.MiddlewareFunc{middleware.OptionalJWT(jwtSecret)}
	if limiter != nil {
		create = append(create, limiter)
	}
	e.POST("/v1/bookings", b.Create, create...)

	e.GET("/v1/bookings/verify/:code", b.Verify)
	e.GET("/v1/bookings/verify/:code/qr", b.QR)
	e.GET("/v1/bookings/verify/:code/receipt", b.Receipt)

	e.GET("/v1/bookings/mine", b.Mine, middleware.JWTAuth(jwtSecret))
}
