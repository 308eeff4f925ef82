package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's stock middleware (body limit)

	"github.com/iliyamo/pollution-watch/internal/handler"    // handlers behind each route
	"github.com/iliyamo/pollution-watch/internal/middleware" // JWT, role and rate-limit middleware
	"github.com/iliyamo/pollution-watch/internal/model"      // role names
	"github.com/iliyamo/pollution-watch/internal/utils"      // token issuer used by JWTAuth
)

// reportBodyLimit leaves room for a 5 MiB photo plus the multipart framing.
const reportBodyLimit = "6M"

// RegisterRoutes registers the probes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Live)
	e.GET("/readyz", h.Ready)
}

// RegisterAuth registers /api/auth.  The credential endpoints sit behind the
// rate limiter; /me requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, issuer *utils.TokenIssuer, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	// logout only needs the refresh token in the body
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(issuer))
}

// RegisterUsers registers /api/users.  Listing needs any valid token;
// creating a user needs the admin role claim.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, issuer *utils.TokenIssuer) {
	g := e.Group("/api/users", middleware.JWTAuth(issuer))
	g.GET("", u.List)
	g.POST("", u.Create, middleware.RequireRole(model.RoleAdmin))
}

// RegisterPollutions registers /api/pollutions.  Reads are public; writes
// need a token and updates/deletes are further checked by the ownership
// gate in the service layer.
func RegisterPollutions(e *echo.Echo, p *handler.PollutionHandler, issuer *utils.TokenIssuer) {
	g := e.Group("/api/pollutions")
	g.GET("", p.List)
	g.GET("/:id", p.Get)

	auth := middleware.JWTAuth(issuer)
	limit := echomw.BodyLimit(reportBodyLimit)
	g.POST("", p.Create, auth, limit)
	g.PUT("/:id", p.Update, auth, limit)
	g.DELETE("/:id", p.Delete, auth)
}

// RegisterFavorites registers /api/favorites; all routes are per caller.
func RegisterFavorites(e *echo.Echo, f *handler.FavoriteHandler, issuer *utils.TokenIssuer) {
	g := e.Group("/api/favorites", middleware.JWTAuth(issuer))
	g.GET("", f.List)
	g.POST("/:id", f.Add)
	g.DELETE("/:id", f.Remove)
}
