package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/pollution-watch/internal/model"
)

// FavoriteRepo stores the reports each user bookmarked.
type FavoriteRepo struct {
	db *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add bookmarks a report; adding the same pair twice is a no-op.  A report
// deleted since the caller checked it yields ErrNotFound.
func (r *FavoriteRepo) Add(ctx context.Context, userID string, pollutionID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, pollution_id) VALUES (?, ?) ON DUPLICATE KEY UPDATE user_id = user_id",
		userID, pollutionID)
	if isMissingParent(err) {
		return ErrNotFound
	}
	return err
}

// Remove deletes a bookmark.  Removing a missing bookmark is not an error.
func (r *FavoriteRepo) Remove(ctx context.Context, userID string, pollutionID int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = ? AND pollution_id = ?", userID, pollutionID)
	return err
}

// ListByUser returns the bookmarked reports, most recently added first.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID string) ([]model.Pollution, error) {
	const q = `SELECT p.id, p.titre, p.description, p.type_pollution, p.lieu, p.date_observation,
		p.decouvreur_nom, p.decouvreur_prenom, p.utilisateur_id, p.photo_url, p.created_at
		FROM favorites f JOIN pollutions p ON p.id = f.pollution_id
		WHERE f.user_id = ? ORDER BY f.created_at DESC, p.id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, MaxListLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPollutions(rows)
}
