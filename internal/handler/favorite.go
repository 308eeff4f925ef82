package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pollution-watch/internal/config"
	"github.com/iliyamo/pollution-watch/internal/repository"
)

// FavoriteHandler serves /api/favorites.  Every route is scoped to the
// caller; there is no way to read another user's favorites.
type FavoriteHandler struct {
	responder
	Favorites Favorites
}

func NewFavoriteHandler(cfg config.Config, favorites Favorites) *FavoriteHandler {
	return &FavoriteHandler{responder: newResponder(cfg), Favorites: favorites}
}

func (h *FavoriteHandler) List(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Favorites.List(ctx, who.ID)
	if err != nil {
		return h.internal(c, "Error retrieving favorites", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Favorites.Add(ctx, who.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return h.fail(c, http.StatusNotFound, "Pollution not found")
		}
		return h.internal(c, "Error adding favorite", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Added to favorites"})
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, ok := pathID(c)
	if !ok {
		return h.fail(c, http.StatusBadRequest, "Invalid ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Favorites.Remove(ctx, who.ID, id); err != nil {
		return h.internal(c, "Error removing favorite", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Removed from favorites"})
}
