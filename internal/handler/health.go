package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds the dependency pings
	"net/http" // net/http provides status codes and response helpers
	"time"     // time sets the ping timeout

	"github.com/labstack/echo/v4"  // echo is the web framework used for this project
	"github.com/redis/go-redis/v9" // redis client pinged by Ready
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and readiness.  Redis is optional: a nil
// client is skipped, matching the rate limiter's fail-open behaviour.
type HealthHandler struct {
	DB    Pinger
	Redis *redis.Client
}

func NewHealthHandler(db Pinger, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb}
}

// Live is the liveness probe: it returns "ok" while the process serves HTTP.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready pings the database and, when configured, Redis.  Any failure is 503
// so a load balancer stops routing to this instance.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{"database": "ok"}
	status := http.StatusOK
	if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	return c.JSON(status, checks)
}
