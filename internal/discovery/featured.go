package discovery

import (
	"context"
	"fmt"
	"time"

	"podcast-discovery/internal/metrics"
)

// GetFeatured returns the curated podcasts in display order. Without any
// published curated podcast it falls back to trending, then to the newest
// published podcasts.
func (s *Service) GetFeatured(ctx context.Context) (PodcastPage, error) {
	defer metrics.ObserveSince("featured", time.Now())

	curated, err := s.catalog.FeaturedPodcasts(ctx, featuredSize)
	if err != nil {
		return PodcastPage{}, fmt.Errorf("load featured podcasts: %w", err)
	}
	if len(curated) > 0 {
		ids := make([]string, len(curated))
		for i, f := range curated {
			ids[i] = f.PodcastID
		}
		items, err := s.resolvePodcasts(ctx, ids)
		if err != nil {
			return PodcastPage{}, fmt.Errorf("resolve featured podcasts: %w", err)
		}
		if len(items) > 0 {
			metrics.Fallbacks.WithLabelValues("featured", "curated").Inc()
			return PodcastPage{Items: items, Total: len(items)}, nil
		}
	}

	trending, err := s.GetTrending(ctx, featuredSize)
	if err != nil {
		return PodcastPage{}, err
	}
	if len(trending.Items) > 0 {
		metrics.Fallbacks.WithLabelValues("featured", "trending").Inc()
		return trending, nil
	}

	newest, err := s.catalog.NewestPodcasts(ctx, featuredSize)
	if err != nil {
		return PodcastPage{}, fmt.Errorf("load newest podcasts: %w", err)
	}
	items := publishedPodcasts(newest)
	metrics.Fallbacks.WithLabelValues("featured", "newest").Inc()
	return PodcastPage{Items: items, Total: len(items)}, nil
}
