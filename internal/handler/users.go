package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pollution-watch/internal/config"
	"github.com/iliyamo/pollution-watch/internal/repository"
	"github.com/iliyamo/pollution-watch/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	responder
	Users UserAdmin
}

func NewUserHandler(cfg config.Config, users UserAdmin) *UserHandler {
	return &UserHandler{responder: newResponder(cfg), Users: users}
}

// List returns every user without credentials.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, err := h.Users.ListUsers(ctx)
	if err != nil {
		return h.internal(c, "Error retrieving users", err)
	}
	return c.JSON(http.StatusOK, users)
}

// Create adds a user with the requested role.  Admin only (see router).
func (h *UserHandler) Create(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.CreateUser(ctx, req.input())
	if err != nil {
		if h.invalid(c, err) {
			return nil
		}
		var mf *service.MissingFieldsError
		switch {
		case errors.As(err, &mf):
			return h.fail(c, http.StatusBadRequest, mf.Error())
		case errors.Is(err, repository.ErrLoginExists):
			return h.fail(c, http.StatusConflict, "User with this login already exists")
		}
		return h.internal(c, "Error creating user", err)
	}
	return c.JSON(http.StatusCreated, u)
}
