package discovery

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"podcast-discovery/internal/db"
	"podcast-discovery/internal/metrics"
	"podcast-discovery/internal/models"
)

// Search result types.
const (
	SearchAll     = "all"
	SearchPodcast = "podcast"
	SearchEpisode = "episode"
)

var separatorRun = regexp.MustCompile(`[-\s]+`)

// SearchQuery is a text search over the published catalog.
type SearchQuery struct {
	Query  string
	Type   string
	Tags   []string
	Limit  int
	Offset int
}

// SearchResult holds the matches of each type. A type that was not searched
// is an empty, non-nil slice.
type SearchResult struct {
	Podcasts []models.Podcast
	Episodes []models.Episode
}

// NormalizeSearchQuery collapses runs of hyphens and whitespace into single
// spaces and trims the result.
func NormalizeSearchQuery(q string) string {
	return strings.TrimSpace(separatorRun.ReplaceAllString(q, " "))
}

func normalizeSearchType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case SearchPodcast:
		return SearchPodcast
	case SearchEpisode:
		return SearchEpisode
	default:
		return SearchAll
	}
}

// Search matches published podcasts and episodes against the text index. A
// missing index degrades to an empty result instead of an error.
func (s *Service) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	defer metrics.ObserveSince("search", time.Now())

	text := NormalizeSearchQuery(q.Query)
	if text == "" {
		return SearchResult{}, &ValidationError{Field: "q", Message: "search query must not be blank"}
	}
	kind := normalizeSearchType(q.Type)
	tags := NormalizeTags(q.Tags)
	limit := ClampLimit(q.Limit, DefaultPageSize, MaxPageSize)
	offset := ClampOffset(q.Offset)

	result := SearchResult{Podcasts: []models.Podcast{}, Episodes: []models.Episode{}}

	g, gctx := errgroup.WithContext(ctx)
	if kind != SearchEpisode {
		g.Go(func() error {
			podcasts, err := s.catalog.SearchPodcasts(gctx, text, tags, limit, offset)
			if err != nil {
				return fmt.Errorf("search podcasts: %w", err)
			}
			result.Podcasts = publishedPodcasts(podcasts)
			return nil
		})
	}
	if kind != SearchPodcast {
		g.Go(func() error {
			episodes, err := s.catalog.SearchEpisodes(gctx, text, tags, limit, offset)
			if err != nil {
				return fmt.Errorf("search episodes: %w", err)
			}
			result.Episodes = publishedEpisodes(episodes)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, db.ErrTextIndexUnavailable) {
			metrics.SearchDegraded.Inc()
			s.logger.Warn().Err(err).Str("query", text).Msg("text index unavailable, returning empty search result")
			return SearchResult{Podcasts: []models.Podcast{}, Episodes: []models.Episode{}}, nil
		}
		return SearchResult{}, err
	}
	return result, nil
}
