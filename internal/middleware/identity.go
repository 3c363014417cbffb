package middleware

// identity.go holds the accessors for the identity stored by JWTAuth.

import (
	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id or "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok {
		return s
	}
	return ""
}

// Roles returns the roles claim of the authenticated user.
func Roles(c echo.Context) []string {
	if r, ok := c.Get(CtxRoles).([]string); ok {
		return r
	}
	return nil
}

// HasRole reports whether the authenticated user holds role.
func HasRole(c echo.Context, role string) bool {
	for _, r := range Roles(c) {
		if r == role {
			return true
		}
	}
	return false
}
