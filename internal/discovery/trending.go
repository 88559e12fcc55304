package discovery

import (
	"context"
	"fmt"
	"time"

	"podcast-discovery/internal/metrics"
	"podcast-discovery/internal/models"
)

// TrendingKey is the cache key of the trending list of size limit.
func TrendingKey(limit int) string {
	return fmt.Sprintf("discovery:trending_podcasts:%d", limit)
}

// GetTrending returns the published podcasts with the most plays, most played
// first. A cached id list is served when it still resolves to at least one
// published podcast; otherwise the list is recomputed and cached.
func (s *Service) GetTrending(ctx context.Context, limit int) (PodcastPage, error) {
	defer metrics.ObserveSince("trending", time.Now())

	limit = ClampLimit(limit, DefaultTrendingSize, MaxPageSize)
	key := TrendingKey(limit)

	if ids, ok := s.trending.Load(ctx, key); ok {
		items, err := s.resolvePodcasts(ctx, ids)
		if err != nil {
			return PodcastPage{}, fmt.Errorf("resolve cached trending: %w", err)
		}
		if len(items) > 0 {
			metrics.Fallbacks.WithLabelValues("trending", "cache").Inc()
			return PodcastPage{Items: items, Total: len(items)}, nil
		}
		s.logger.Debug().Str("key", key).Msg("cached trending list resolved empty, recomputing")
	}

	items, err := s.computeTrending(ctx, limit)
	if err != nil {
		return PodcastPage{}, err
	}
	metrics.Fallbacks.WithLabelValues("trending", "computed").Inc()
	if len(items) > 0 {
		s.trending.Save(ctx, key, podcastIDs(items), s.cfg.TrendingTTL)
	}
	return PodcastPage{Items: items, Total: len(items)}, nil
}

// RefreshTrending recomputes the trending list of size limit and overwrites
// its cache entry. It returns the number of podcasts cached.
func (s *Service) RefreshTrending(ctx context.Context, limit int) (int, error) {
	limit = ClampLimit(limit, DefaultTrendingSize, MaxPageSize)
	items, err := s.computeTrending(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	s.trending.Save(ctx, TrendingKey(limit), podcastIDs(items), s.cfg.TrendingTTL)
	return len(items), nil
}

func (s *Service) computeTrending(ctx context.Context, limit int) ([]models.Podcast, error) {
	var since time.Time
	if s.cfg.TrendingWindow > 0 {
		since = s.cfg.Now().Add(-s.cfg.TrendingWindow)
	}

	counts, err := s.events.TopPodcastsByPlays(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregate trending: %w", err)
	}
	ids := make([]string, len(counts))
	for i, c := range counts {
		ids[i] = c.PodcastID
	}

	items, err := s.resolvePodcasts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve trending: %w", err)
	}
	return items, nil
}
