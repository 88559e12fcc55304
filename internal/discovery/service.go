package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"podcast-discovery/internal/cache"
	"podcast-discovery/internal/models"
)

// CatalogStore reads podcasts, episodes and their taxonomy.
type CatalogStore interface {
	PublishedPodcastsByIDs(ctx context.Context, ids []string) ([]models.Podcast, error)
	BrowsePodcasts(ctx context.Context, filter models.BrowseFilter, limit, offset int) ([]models.Podcast, error)
	CountPodcasts(ctx context.Context, filter models.BrowseFilter) (int, error)
	NewestPodcasts(ctx context.Context, limit int) ([]models.Podcast, error)
	RelatedPodcasts(ctx context.Context, categoryIDs, tags, exclude []string, limit int) ([]models.Podcast, error)
	SearchPodcasts(ctx context.Context, q string, tags []string, limit, offset int) ([]models.Podcast, error)
	SearchEpisodes(ctx context.Context, q string, tags []string, limit, offset int) ([]models.Episode, error)
	PublishedEpisodes(ctx context.Context, limit, offset int) ([]models.Episode, error)
	CountPublishedEpisodes(ctx context.Context) (int, error)
	FeaturedPodcasts(ctx context.Context, limit int) ([]models.FeaturedPodcast, error)
	CategoriesByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// EventStore aggregates play events and listening progress.
type EventStore interface {
	TopPodcastsByPlays(ctx context.Context, since time.Time, limit int) ([]models.PodcastCount, error)
	ListenedPodcastIDs(ctx context.Context, userID string) ([]string, error)
	RecentlyListened(ctx context.Context, userID string, limit int) ([]models.ListenedEpisode, error)
}

// SocialStore reads the follow graph joined with subscriptions.
type SocialStore interface {
	FolloweeSubscriptionCounts(ctx context.Context, userID string) ([]models.PodcastCount, error)
}

// Config tunes the engine.
type Config struct {
	// TrendingTTL is how long a computed trending list is served from cache.
	TrendingTTL time.Duration
	// TrendingWindow limits trending to recent plays. Zero counts all plays.
	TrendingWindow time.Duration
	// PopularityWindow is the look-back of the popularity recommendation source.
	PopularityWindow time.Duration
	// Sources names the recommendation candidate sources in priority order.
	Sources []string
	// BaseURL prefixes links in response views.
	BaseURL string
	// Now replaces time.Now in tests.
	Now func() time.Time
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		TrendingTTL:      time.Hour,
		PopularityWindow: 30 * 24 * time.Hour,
		Sources:          []string{SourceFollow, SourcePopularity},
		BaseURL:          "http://localhost:8080/api/v1",
	}
}

// Service implements the discovery operations. It is safe for concurrent use.
type Service struct {
	catalog  CatalogStore
	events   EventStore
	social   SocialStore
	trending *cache.IDLists
	sources  []CandidateSource
	cfg      Config
	logger   zerolog.Logger
}

// New builds a Service. trending may wrap a cache.Noop store when caching is
// disabled.
func New(catalog CatalogStore, events EventStore, social SocialStore, trending *cache.IDLists, cfg Config, logger zerolog.Logger) (*Service, error) {
	def := DefaultConfig()
	if cfg.TrendingTTL <= 0 {
		cfg.TrendingTTL = def.TrendingTTL
	}
	if cfg.PopularityWindow <= 0 {
		cfg.PopularityWindow = def.PopularityWindow
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = def.Sources
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if trending == nil {
		trending = cache.NewIDLists("trending", cache.Noop{}, cache.DefaultBreakerSettings(), logger)
	}

	s := &Service{
		catalog:  catalog,
		events:   events,
		social:   social,
		trending: trending,
		cfg:      cfg,
		logger:   logger.With().Str("component", "discovery").Logger(),
	}

	sources, err := s.buildSources(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s.sources = sources
	return s, nil
}

// PodcastPage is a page of podcasts with the size of the full result.
type PodcastPage struct {
	Items []models.Podcast
	Total int
}

// EpisodePage is a page of episodes with the size of the full result.
type EpisodePage struct {
	Items []models.Episode
	Total int
}

// resolvePodcasts loads ids from the catalog, keeping the order of ids and
// dropping anything missing or not published.
func (s *Service) resolvePodcasts(ctx context.Context, ids []string) ([]models.Podcast, error) {
	if len(ids) == 0 {
		return []models.Podcast{}, nil
	}
	found, err := s.catalog.PublishedPodcastsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Podcast, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	ordered := make([]models.Podcast, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsPublished() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, p)
	}
	return ordered, nil
}

func podcastIDs(podcasts []models.Podcast) []string {
	ids := make([]string, len(podcasts))
	for i, p := range podcasts {
		ids[i] = p.ID
	}
	return ids
}

func publishedPodcasts(podcasts []models.Podcast) []models.Podcast {
	out := make([]models.Podcast, 0, len(podcasts))
	for _, p := range podcasts {
		if p.IsPublished() {
			out = append(out, p)
		}
	}
	return out
}

func publishedEpisodes(episodes []models.Episode) []models.Episode {
	out := make([]models.Episode, 0, len(episodes))
	for _, e := range episodes {
		if e.IsPublished() {
			out = append(out, e)
		}
	}
	return out
}
