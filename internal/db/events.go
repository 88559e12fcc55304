package db

import (
	"context"
	"fmt"
	"time"

	"podcast-discovery/internal/models"
)

// TopPodcastsByPlays counts play events per podcast, highest first, ties
// broken by podcast id. A zero since counts every event ever recorded.
func (s *Store) TopPodcastsByPlays(ctx context.Context, since time.Time, limit int) ([]models.PodcastCount, error) {
	query := `SELECT podcast_id, COUNT(*) AS count
		FROM play_events
		WHERE podcast_id IS NOT NULL AND ($1::timestamptz IS NULL OR created_at >= $1)
		GROUP BY podcast_id
		ORDER BY count DESC, podcast_id ASC
		LIMIT $2`
	var sinceArg interface{}
	if !since.IsZero() {
		sinceArg = since
	}
	var counts []models.PodcastCount
	if err := s.db.SelectContext(ctx, &counts, query, sinceArg, limit); err != nil {
		return nil, fmt.Errorf("failed to aggregate play events: %w", err)
	}
	return counts, nil
}

// ListenedPodcastIDs returns the distinct podcasts owning any episode the
// user has listening progress on.
func (s *Store) ListenedPodcastIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT DISTINCT e.podcast_id
		FROM listening_progress lp
		JOIN episodes e ON e.id = lp.episode_id
		WHERE lp.user_id = $1`
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get listened podcasts for user %s: %w", userID, err)
	}
	return ids, nil
}

// RecentlyListened returns the user's most recently progressed published
// episodes, with the owning podcast's taxonomy available via the podcast id.
func (s *Store) RecentlyListened(ctx context.Context, userID string, limit int) ([]models.ListenedEpisode, error) {
	query := `SELECT ` + episodeColumns + `,
			lp.position_seconds, lp.updated_at AS progress_updated_at
		FROM listening_progress lp
		JOIN episodes e ON e.id = lp.episode_id
		LEFT JOIN podcasts p ON p.id = e.podcast_id
		WHERE lp.user_id = $1 AND e.status = 'published'
		ORDER BY lp.updated_at DESC, e.id ASC
		LIMIT $2`
	var listened []models.ListenedEpisode
	if err := s.db.SelectContext(ctx, &listened, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get listening history for user %s: %w", userID, err)
	}
	return listened, nil
}
