package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"   // errors matches the token issuer's sentinel errors
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for splitting the header

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/pollution-watch/internal/model" // Identity stored in the context
	"github.com/iliyamo/pollution-watch/internal/utils" // access token verification
)

// identityKey is the echo context key under which JWTAuth stores the caller.
const identityKey = "identity"

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the caller's model.Identity in the request context.  Verification is
// stateless: the credential store is not consulted, so an access token stays
// valid until it expires even after logout.  Handlers read the caller with
// CurrentIdentity.
func JWTAuth(issuer *utils.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "No token provided"})
			}
			// Exactly two parts: the "Bearer" scheme and the token itself.
			parts := strings.Split(auth, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token format. Expected 'Bearer <token>'"})
			}

			claims, err := issuer.ParseAccess(parts[1])
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token"})
			}

			SetIdentity(c, model.Identity{ID: claims.ID, Login: claims.Login, Role: claims.Role})
			return next(c)
		}
	}
}

// CurrentIdentity returns the caller stored by JWTAuth.  ok is false on
// routes that are not behind JWTAuth.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// SetIdentity stores who as the authenticated caller.
func SetIdentity(c echo.Context, who model.Identity) {
	c.Set(identityKey, who)
}
