package db

import (
	"context"
	"fmt"

	"podcast-discovery/internal/models"
)

// FolloweeSubscriptionCounts counts, per podcast, how many of the users that
// userID follows are subscribed to it. Highest overlap first, ties by id.
func (s *Store) FolloweeSubscriptionCounts(ctx context.Context, userID string) ([]models.PodcastCount, error) {
	query := `SELECT s.podcast_id, COUNT(*) AS count
		FROM follows f
		JOIN subscriptions s ON s.user_id = f.following_id
		WHERE f.follower_id = $1
		GROUP BY s.podcast_id
		ORDER BY count DESC, s.podcast_id ASC`
	var counts []models.PodcastCount
	if err := s.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get followee subscriptions for user %s: %w", userID, err)
	}
	return counts, nil
}
