package middleware

// identity.go holds the caller lookups shared by the rate limiter and the
// request logger.  Both run on public routes too, where no identity exists.

import "github.com/labstack/echo/v4"

// userID returns the authenticated caller's id, or "anon" when the route is
// public or the token has not been verified yet.
func userID(c echo.Context) string {
	if who, ok := CurrentIdentity(c); ok && who.ID != "" {
		return who.ID
	}
	return "anon"
}
