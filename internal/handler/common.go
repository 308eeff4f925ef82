// Package handler holds the echo handlers of the HTTP API.  Handlers bind
// and shape requests and map service errors onto status codes; the rules
// themselves live in package service.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pollution-watch/internal/config"
	"github.com/iliyamo/pollution-watch/internal/logctx"
	"github.com/iliyamo/pollution-watch/internal/middleware"
	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/service"
	"github.com/iliyamo/pollution-watch/internal/utils"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// Authenticator is the session side of service.AuthService.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, login, password string) (service.AuthResult, error)
	Refresh(ctx context.Context, raw string) (utils.TokenPair, error)
	Logout(ctx context.Context, raw string) error
	Me(ctx context.Context, id string) (model.PublicUser, error)
}

// UserAdmin is the user management side of service.AuthService.
type UserAdmin interface {
	ListUsers(ctx context.Context) ([]model.PublicUser, error)
	CreateUser(ctx context.Context, in service.RegisterInput) (model.PublicUser, error)
}

// Reports is implemented by service.PollutionService.
type Reports interface {
	List(ctx context.Context, search string) ([]model.Pollution, error)
	Get(ctx context.Context, id int64) (model.Pollution, error)
	Create(ctx context.Context, who model.Identity, in service.PollutionInput) (model.Pollution, error)
	Update(ctx context.Context, who model.Identity, id int64, in service.PollutionInput) (model.Pollution, error)
	Delete(ctx context.Context, who model.Identity, id int64) error
}

// Favorites is implemented by service.FavoriteService.
type Favorites interface {
	Add(ctx context.Context, userID string, pollutionID int64) error
	Remove(ctx context.Context, userID string, pollutionID int64) error
	List(ctx context.Context, userID string) ([]model.Pollution, error)
}

// responder writes the error bodies shared by every handler.
type responder struct {
	prod bool
}

func newResponder(cfg config.Config) responder { return responder{prod: cfg.IsProd()} }

func (r responder) fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// internal logs err and answers 500.  The cause is only echoed back outside
// production.
func (r responder) internal(c echo.Context, msg string, err error) error {
	logctx.From(c.Request().Context()).Error(msg, slog.String("err", err.Error()))
	body := echo.Map{"message": msg}
	if !r.prod {
		body["error"] = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}

// invalid answers 400 with the per-field messages of a ValidationError.
func (r responder) invalid(c echo.Context, err error) bool {
	var ve *service.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	_ = c.JSON(http.StatusBadRequest, echo.Map{"message": "Validation failed", "errors": ve.Fields})
	return true
}

// pathID parses the :id route parameter as a positive integer.
func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// caller returns the identity stored by middleware.JWTAuth.
func caller(c echo.Context) (model.Identity, bool) {
	who, ok := middleware.CurrentIdentity(c)
	return who, ok && who.ID != ""
}
