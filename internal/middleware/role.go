package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // http package defines standard HTTP status codes

	"github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated caller has one of the specified roles.  The role is the one
// carried by the access token, so a demotion only takes effect once the
// caller's current token expires.  It must run after JWTAuth; a request with
// no identity is answered with 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			who, ok := CurrentIdentity(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required"})
			}
			if !allowed[who.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied. Insufficient permissions."})
			}
			return next(c)
		}
	}
}
