// Package service holds the business rules behind the HTTP handlers: the
// session lifecycle (register, login, refresh rotation, logout), the
// ownership gate for pollution reports, report validation and favorites.
// Stores are consumed through the small interfaces below so the rules can
// be tested without a database.
package service

import (
	"context"
	"errors"

	"github.com/iliyamo/pollution-watch/internal/model"
	"github.com/iliyamo/pollution-watch/internal/queue"
)

// UserReader loads a user by id.
type UserReader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// UserStore is the credential store.
type UserStore interface {
	UserReader
	Create(ctx context.Context, u *model.User) error
	GetByLogin(ctx context.Context, login string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// SessionStore persists the hash of each user's single live refresh token.
type SessionStore interface {
	Store(ctx context.Context, userID, tokenHash string) error
	FindByIDAndHash(ctx context.Context, userID, tokenHash string) (model.User, error)
	Rotate(ctx context.Context, userID, oldHash, newHash string) error
	RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
}

// PollutionStore persists reports.
type PollutionStore interface {
	Create(ctx context.Context, p *model.Pollution) error
	GetByID(ctx context.Context, id int64) (model.Pollution, error)
	List(ctx context.Context, search string, limit int) ([]model.Pollution, error)
	Update(ctx context.Context, id int64, patch model.PollutionPatch) error
	Delete(ctx context.Context, id int64) error
}

// FavoriteStore persists bookmarks.
type FavoriteStore interface {
	Add(ctx context.Context, userID string, pollutionID int64) error
	Remove(ctx context.Context, userID string, pollutionID int64) error
	ListByUser(ctx context.Context, userID string) ([]model.Pollution, error)
}

// EventPublisher emits report lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.PollutionEvent) error
}

var (
	// ErrInvalidCredentials is returned for an unknown login and for a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshRequired is returned before any token work when the refresh
	// token field is empty.
	ErrRefreshRequired = errors.New("refresh token is required")
	// ErrRefreshInvalid covers expired, forged, superseded and revoked
	// refresh tokens without saying which.
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")
)
