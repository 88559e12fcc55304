package discovery

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"podcast-discovery/internal/metrics"
	"podcast-discovery/internal/models"
)

// GetNewReleases lists published episodes, most recently published first.
// Episodes without a publication date sort last.
func (s *Service) GetNewReleases(ctx context.Context, limit, offset int) (EpisodePage, error) {
	defer metrics.ObserveSince("new_releases", time.Now())

	limit = ClampLimit(limit, DefaultPageSize, MaxPageSize)
	offset = ClampOffset(offset)

	var (
		items []models.Episode
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.catalog.PublishedEpisodes(gctx, limit, offset)
		if err != nil {
			return fmt.Errorf("list new releases: %w", err)
		}
		items = publishedEpisodes(page)
		return nil
	})
	g.Go(func() error {
		n, err := s.catalog.CountPublishedEpisodes(gctx)
		if err != nil {
			return fmt.Errorf("count new releases: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return EpisodePage{}, err
	}
	return EpisodePage{Items: items, Total: total}, nil
}
