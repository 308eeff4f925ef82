package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pollution-watch/internal/config"
	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/repository"
	"github.com/iliyamo/pollution-watch/internal/service"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	responder
	Auth Authenticator
}

func NewAuthHandler(cfg config.Config, auth Authenticator) *AuthHandler {
	return &AuthHandler{responder: newResponder(cfg), Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
	Role     string `json:"role"`
}

func (r registerReq) input() service.RegisterInput {
	return service.RegisterInput{Login: r.Login, Password: r.Password, Nom: r.Nom, Prenom: r.Prenom, Role: r.Role}
}

type loginReq struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type authResp struct {
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

type tokensResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account and returns it with a fresh token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Register(ctx, req.input())
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
		return h.internal(c, "Error during registration", err)
	}
	return c.JSON(http.StatusCreated, authResp{User: res.User, AccessToken: res.Tokens.AccessToken, RefreshToken: res.Tokens.RefreshToken})
}

// Login verifies credentials and returns a fresh token pair.  Any previous
// refresh token of the user stops working.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Login, req.Password)
	if err != nil {
		var mf *service.MissingFieldsError
		switch {
		case errors.As(err, &mf):
			return h.fail(c, http.StatusBadRequest, "Login and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			return h.fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return h.internal(c, "Error during login", err)
	}
	return c.JSON(http.StatusOK, authResp{User: res.User, AccessToken: res.Tokens.AccessToken, RefreshToken: res.Tokens.RefreshToken})
}

// Refresh rotates the refresh token.  A missing token is 401; a token that
// fails verification or is no longer the persisted one is 403.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // a malformed body is treated as a missing token

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, req.RefreshToken)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, tokensResp{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	case errors.Is(err, service.ErrRefreshRequired):
		return h.fail(c, http.StatusUnauthorized, "Refresh token is required")
	case errors.Is(err, service.ErrRefreshInvalid):
		return h.fail(c, http.StatusForbidden, "Invalid or expired refresh token")
	}
	return h.internal(c, "Error refreshing token", err)
}

// Logout revokes the given refresh token.  Unknown tokens succeed too.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrRefreshRequired) {
			return h.fail(c, http.StatusBadRequest, "Refresh token is required")
		}
		return h.internal(c, "Error during logout", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	who, ok := caller(c)
	if !ok {
		return h.fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Auth.Me(ctx, who.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return h.fail(c, http.StatusNotFound, "User not found")
		}
		return h.internal(c, "Error fetching user", err)
	}
	return c.JSON(http.StatusOK, u)
}
