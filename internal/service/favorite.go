package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/pollution-watch/internal/model"
)

// FavoriteService manages per-user bookmarks of reports.
type FavoriteService struct {
	favorites FavoriteStore
	reports   PollutionStore
}

func NewFavoriteService(favorites FavoriteStore, reports PollutionStore) *FavoriteService {
	return &FavoriteService{favorites: favorites, reports: reports}
}

// Add bookmarks a report.  Adding the same report twice is not an error.
// Returns repository.ErrNotFound when the report does not exist.
func (s *FavoriteService) Add(ctx context.Context, userID string, pollutionID int64) error {
	const op = "service.favorite.Add"
	if _, err := s.reports.GetByID(ctx, pollutionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.favorites.Add(ctx, userID, pollutionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remove drops a bookmark; removing an absent one succeeds.
func (s *FavoriteService) Remove(ctx context.Context, userID string, pollutionID int64) error {
	if err := s.favorites.Remove(ctx, userID, pollutionID); err != nil {
		return fmt.Errorf("service.favorite.Remove: %w", err)
	}
	return nil
}

// List returns the caller's bookmarked reports, most recent first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.Pollution, error) {
	out, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.favorite.List: %w", err)
	}
	return out, nil
}
