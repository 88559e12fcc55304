package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"podcast-discovery/internal/metrics"
	"podcast-discovery/internal/models"
)

// Recommendation candidate source names, usable in Config.Sources.
const (
	SourceFollow     = "follow"
	SourcePopularity = "popularity"
	SourceAffinity   = "affinity"
)

const (
	// minPopularityCandidates bounds the popularity ranking from below so
	// exclusion has room to drop listened podcasts.
	minPopularityCandidates = 50
	// affinitySeedEpisodes is how much listening history seeds the affinity source.
	affinitySeedEpisodes = 100
)

// RecommendRequest is what candidate sources see of a recommendation call.
type RecommendRequest struct {
	UserID string
	Limit  int
	Offset int
}

// Candidate is a ranked podcast proposed by a source.
type Candidate struct {
	PodcastID string
	Score     int
}

// CandidateSource proposes podcasts for a user, best first.
type CandidateSource interface {
	Name() string
	Candidates(ctx context.Context, req RecommendRequest) ([]Candidate, error)
}

func (s *Service) buildSources(names []string) ([]CandidateSource, error) {
	sources := make([]CandidateSource, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		switch name {
		case SourceFollow:
			sources = append(sources, &followSource{social: s.social})
		case SourcePopularity:
			sources = append(sources, &popularitySource{events: s.events, window: s.cfg.PopularityWindow, now: s.cfg.Now})
		case SourceAffinity:
			sources = append(sources, &affinitySource{catalog: s.catalog, events: s.events})
		default:
			return nil, fmt.Errorf("unknown recommendation source %q", raw)
		}
	}
	return sources, nil
}

// GetRecommendations ranks podcasts for userID: podcasts its followees
// subscribe to first, then recently popular podcasts, never anything the user
// already listened to. When no candidate survives, the trending list is
// returned instead.
//
// Total counts the candidates considered before the page was cut, not the
// size of every possible recommendation.
func (s *Service) GetRecommendations(ctx context.Context, userID string, limit, offset int) (PodcastPage, error) {
	defer metrics.ObserveSince("recommendations", time.Now())

	if strings.TrimSpace(userID) == "" {
		return PodcastPage{}, &ValidationError{Field: "userId", Message: "is required"}
	}
	req := RecommendRequest{
		UserID: userID,
		Limit:  ClampLimit(limit, DefaultPageSize, MaxRecommendationPageSize),
		Offset: ClampOffset(offset),
	}

	lists := make([][]Candidate, len(s.sources))
	var listened []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.events.ListenedPodcastIDs(gctx, req.UserID)
		if err != nil {
			return fmt.Errorf("load listening history: %w", err)
		}
		listened = ids
		return nil
	})
	for i, src := range s.sources {
		g.Go(func() error {
			candidates, err := src.Candidates(gctx, req)
			if err != nil {
				return fmt.Errorf("%s candidates: %w", src.Name(), err)
			}
			lists[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PodcastPage{}, err
	}

	merged := mergeCandidates(lists, listened, req.Limit+req.Offset)
	if len(merged) == 0 {
		metrics.Fallbacks.WithLabelValues("recommendations", "trending").Inc()
		s.logger.Debug().Str("user_id", req.UserID).Msg("no recommendation candidates, serving trending")
		return s.GetTrending(ctx, req.Limit)
	}
	metrics.Fallbacks.WithLabelValues("recommendations", "personalised").Inc()

	start := min(req.Offset, len(merged))
	end := min(req.Offset+req.Limit, len(merged))
	items, err := s.resolvePodcasts(ctx, merged[start:end])
	if err != nil {
		return PodcastPage{}, fmt.Errorf("resolve recommendations: %w", err)
	}
	return PodcastPage{Items: items, Total: len(merged)}, nil
}

// mergeCandidates concatenates lists in priority order, skipping excluded and
// already taken podcasts, and stops as soon as want ids are collected.
func mergeCandidates(lists [][]Candidate, exclude []string, want int) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	merged := make([]string, 0, want)
	for _, list := range lists {
		for _, c := range list {
			if len(merged) >= want {
				return merged
			}
			if _, ok := skip[c.PodcastID]; ok {
				continue
			}
			skip[c.PodcastID] = struct{}{}
			merged = append(merged, c.PodcastID)
		}
	}
	return merged
}

func countsToCandidates(counts []models.PodcastCount) []Candidate {
	out := make([]Candidate, len(counts))
	for i, c := range counts {
		out[i] = Candidate{PodcastID: c.PodcastID, Score: c.Count}
	}
	return out
}

// followSource ranks podcasts by how many of the user's followees subscribe.
type followSource struct {
	social SocialStore
}

func (f *followSource) Name() string { return SourceFollow }

func (f *followSource) Candidates(ctx context.Context, req RecommendRequest) ([]Candidate, error) {
	counts, err := f.social.FolloweeSubscriptionCounts(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return countsToCandidates(counts), nil
}

// popularitySource ranks podcasts by plays inside a recent window.
type popularitySource struct {
	events EventStore
	window time.Duration
	now    func() time.Time
}

func (p *popularitySource) Name() string { return SourcePopularity }

func (p *popularitySource) Candidates(ctx context.Context, req RecommendRequest) ([]Candidate, error) {
	counts, err := p.events.TopPodcastsByPlays(ctx, p.now().Add(-p.window), max(req.Limit*2, minPopularityCandidates))
	if err != nil {
		return nil, err
	}
	return countsToCandidates(counts), nil
}

// affinitySource proposes podcasts sharing a category or tag with podcasts
// the user listened to recently.
type affinitySource struct {
	catalog CatalogStore
	events  EventStore
}

func (a *affinitySource) Name() string { return SourceAffinity }

func (a *affinitySource) Candidates(ctx context.Context, req RecommendRequest) ([]Candidate, error) {
	recent, err := a.events.RecentlyListened(ctx, req.UserID, affinitySeedEpisodes)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(recent))
	var seedIDs []string
	for _, e := range recent {
		if _, ok := seen[e.PodcastID]; ok {
			continue
		}
		seen[e.PodcastID] = struct{}{}
		seedIDs = append(seedIDs, e.PodcastID)
	}

	seeds, err := a.catalog.PublishedPodcastsByIDs(ctx, seedIDs)
	if err != nil {
		return nil, err
	}
	categories := newOrderedSet()
	tags := newOrderedSet()
	for _, p := range seeds {
		categories.add(p.CategoryIDs...)
		tags.add(p.Tags...)
	}
	if categories.len() == 0 && tags.len() == 0 {
		return nil, nil
	}

	related, err := a.catalog.RelatedPodcasts(ctx, categories.items, tags.items, seedIDs, max(req.Limit*2, minPopularityCandidates))
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(related))
	for _, p := range related {
		out = append(out, Candidate{PodcastID: p.ID})
	}
	return out, nil
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (o *orderedSet) add(values ...string) {
	for _, v := range values {
		if _, ok := o.seen[v]; ok {
			continue
		}
		o.seen[v] = struct{}{}
		o.items = append(o.items, v)
	}
}

func (o *orderedSet) len() int { return len(o.items) }
