package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
	"podcast-discovery/internal/metrics"
	"podcast-discovery/internal/models"
)

// BrowseQuery filters the published catalog. Category is a category id or
// slug; an unknown slug matches nothing.
type BrowseQuery struct {
	Category string
	Tags     []string
	Limit    int
	Offset   int
}

// Browse lists published podcasts, most recently modified first, with the
// total number of matches.
func (s *Service) Browse(ctx context.Context, q BrowseQuery) (PodcastPage, error) {
	defer metrics.ObserveSince("browse", time.Now())

	limit := ClampLimit(q.Limit, DefaultPageSize, MaxPageSize)
	offset := ClampOffset(q.Offset)
	filter := models.BrowseFilter{Tags: NormalizeTags(q.Tags)}

	if category := strings.TrimSpace(q.Category); category != "" {
		id, found, err := s.resolveCategory(ctx, category)
		if err != nil {
			return PodcastPage{}, err
		}
		if !found {
			return PodcastPage{Items: []models.Podcast{}, Total: 0}, nil
		}
		filter.CategoryID = id
	}

	var (
		items []models.Podcast
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.catalog.BrowsePodcasts(gctx, filter, limit, offset)
		if err != nil {
			return fmt.Errorf("browse podcasts: %w", err)
		}
		items = publishedPodcasts(page)
		return nil
	})
	g.Go(func() error {
		n, err := s.catalog.CountPodcasts(gctx, filter)
		if err != nil {
			return fmt.Errorf("count podcasts: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return PodcastPage{}, err
	}
	return PodcastPage{Items: items, Total: total}, nil
}

func (s *Service) resolveCategory(ctx context.Context, category string) (string, bool, error) {
	if id, err := uuid.Parse(category); err == nil {
		return id.String(), true, nil
	}
	c, err := s.catalog.CategoryBySlug(ctx, slug.Make(category))
	if err != nil {
		return "", false, fmt.Errorf("resolve category: %w", err)
	}
	if c == nil {
		return "", false, nil
	}
	return c.ID, true, nil
}

// NormalizeTags trims tags, drops blanks and removes exact duplicates. Tags
// match case-sensitively, so differently spelled tags are all kept.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
