package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pollution-watch/internal/model"
)

// TokenRepo persists the single live refresh token of each user in the
// users.refresh_token column.  Only the SHA-256 hex digest is stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store overwrites the user's refresh token hash, invalidating any previous one.
func (r *TokenRepo) Store(ctx context.Context, userID, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", tokenHash, userID)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when the value is unchanged, so only a
	// missing user is treated as an error here.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", userID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// FindByIDAndHash returns the user only when both the id and the persisted
// refresh token hash match.
func (r *TokenRepo) FindByIDAndHash(ctx context.Context, userID, tokenHash string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND refresh_token=? LIMIT 1",
		userID, tokenHash)
	return scanUser(row)
}

// Rotate replaces oldHash by newHash in a single conditional update.  When
// the persisted value is no longer oldHash nothing is written and
// ErrTokenMismatch is returned, so of two concurrent refreshes presenting
// the same token exactly one wins.
func (r *TokenRepo) Rotate(ctx context.Context, userID, oldHash, newHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=? AND refresh_token=?",
		newHash, userID, oldHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTokenMismatch
	}
	return nil
}

// RevokeByHash clears the refresh token of whichever user holds tokenHash.
// It reports whether a session was actually revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULL WHERE refresh_token=?", tokenHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
