package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pollution-watch/internal/logctx"
)

// RequestLogger tags every request with an X-Request-ID, stores a logger
// carrying that id in the request context (see logctx.From) and writes one
// access log line when the handler returns.  5xx lines are logged at error
// level, 4xx at warn.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			l := logger.With(slog.String("request_id", rid))
			ctx := logctx.Into(req.Context(), l)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				// let echo write the error response so the logged status is final
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("route", c.Path()),
				slog.String("uri", req.RequestURI),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.String("ip", c.RealIP()),
				slog.String("user_id", userID(c)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("err", err.Error()))
			}
			l.LogAttrs(ctx, level, "http_request", attrs...)
			return nil
		}
	}
}
