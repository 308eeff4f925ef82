package model

import "time"

// Favorite links a user to a report they bookmarked (`favorites` table).
type Favorite struct {
	UserID      string    // favorites.user_id
	PollutionID int64     // favorites.pollution_id
	CreatedAt   time.Time // favorites.created_at
}
