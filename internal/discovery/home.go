package discovery

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"podcast-discovery/internal/metrics"
)

// HomeFeed is the landing page of a listener. Sections are never nil.
type HomeFeed struct {
	Featured          []MediaItem    `json:"featured"`
	Latest            []MediaItem    `json:"latest"`
	ContinueListening []ContinueItem `json:"continueListening"`
	Recommendations   []MediaItem    `json:"recommendations"`
}

// GetHome assembles the home feed. userID may be empty for anonymous
// listeners, who get trending instead of recommendations and no continue
// listening section. A failing section is logged and left empty.
func (s *Service) GetHome(ctx context.Context, userID string, limit int) HomeFeed {
	defer metrics.ObserveSince("home", time.Now())

	limit = ClampLimit(limit, DefaultHomeSectionSize, MaxRecommendationPageSize)
	feed := HomeFeed{
		Featured:          []MediaItem{},
		Latest:            []MediaItem{},
		ContinueListening: []ContinueItem{},
		Recommendations:   []MediaItem{},
	}

	var g errgroup.Group
	g.Go(func() error {
		page, err := s.GetFeatured(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("home: featured section failed")
			return nil
		}
		feed.Featured = podcastMediaItems(page.Items[:min(limit, len(page.Items))])
		return nil
	})
	g.Go(func() error {
		page, err := s.GetNewReleases(ctx, limit, 0)
		if err != nil {
			s.logger.Error().Err(err).Msg("home: latest section failed")
			return nil
		}
		feed.Latest = episodeMediaItems(page.Items)
		return nil
	})
	if userID != "" {
		g.Go(func() error {
			recent, err := s.events.RecentlyListened(ctx, userID, limit)
			if err != nil {
				s.logger.Error().Err(err).Str("user_id", userID).Msg("home: continue listening section failed")
				return nil
			}
			items := make([]ContinueItem, 0, len(recent))
			for _, e := range recent {
				if !e.IsPublished() {
					continue
				}
				items = append(items, ContinueItem{MediaItem: episodeMediaItem(e.Episode), PlaybackPosition: e.PositionSeconds})
			}
			feed.ContinueListening = items
			return nil
		})
	}
	g.Go(func() error {
		feed.Recommendations = s.homeRecommendations(ctx, userID, limit)
		return nil
	})
	_ = g.Wait()

	return feed
}

func (s *Service) homeRecommendations(ctx context.Context, userID string, limit int) []MediaItem {
	if userID != "" {
		page, err := s.GetRecommendations(ctx, userID, limit, 0)
		if err == nil {
			return podcastMediaItems(page.Items)
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("home: recommendations failed, falling back to trending")
	}
	page, err := s.GetTrending(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("home: trending section failed")
		return []MediaItem{}
	}
	return podcastMediaItems(page.Items)
}
