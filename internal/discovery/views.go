package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podcast-discovery/internal/models"
)

// CategoryRef is the embedded form of a category in responses.
type CategoryRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PodcastView is the public representation of a podcast.
type PodcastView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  *string       `json:"description"`
	Category     *CategoryRef  `json:"category,omitempty"`
	Categories   []CategoryRef `json:"categories"`
	CoverURL     string        `json:"coverUrl"`
	Language     string        `json:"language"`
	Tags         []string      `json:"tags"`
	Status       string        `json:"status"`
	Explicit     bool          `json:"explicit"`
	EpisodeOrder string        `json:"episodeOrder"`
	WebsiteURL   *string       `json:"websiteUrl"`
	OwnerID      string        `json:"ownerId"`
	RSSURL       string        `json:"rssUrl"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

// EpisodeView is the public representation of an episode. CoverURL falls back
// to the podcast cover.
type EpisodeView struct {
	ID            string  `json:"id"`
	PodcastID     string  `json:"podcastId"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	Duration      int     `json:"duration"`
	SeasonNumber  *int    `json:"seasonNumber"`
	EpisodeNumber *int    `json:"episodeNumber"`
	ShowNotes     *string `json:"showNotes"`
	CoverURL      *string `json:"coverUrl"`
	Status        string  `json:"status"`
	PublishedAt   *string `json:"publishedAt"`
	CreatedAt     string  `json:"createdAt"`
}

// SearchPodcastView is the compact podcast form of search results.
type SearchPodcastView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	CoverURL    string       `json:"coverUrl"`
	Category    *CategoryRef `json:"category,omitempty"`
	Status      string       `json:"status"`
}

// SearchEpisodeView is the compact episode form of search results.
type SearchEpisodeView struct {
	ID          string  `json:"id"`
	PodcastID   string  `json:"podcastId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Duration    int     `json:"duration"`
	CoverURL    *string `json:"coverUrl"`
	Status      string  `json:"status"`
	PublishedAt *string `json:"publishedAt"`
}

// SearchView is the response body of a search.
type SearchView struct {
	Podcasts []SearchPodcastView `json:"podcasts"`
	Episodes []SearchEpisodeView `json:"episodes"`
}

// MediaItem is a home feed card.
type MediaItem struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Title           string   `json:"title"`
	Subtitle        *string  `json:"subtitle,omitempty"`
	ImageURL        *string  `json:"imageUrl,omitempty"`
	DurationSeconds *int     `json:"durationSeconds,omitempty"`
	PublishedAt     *string  `json:"publishedAt,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// ContinueItem is a home feed card for an episode in progress.
type ContinueItem struct {
	MediaItem
	PlaybackPosition int `json:"playbackPosition"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// categoryIndex loads every category referenced by podcasts in one query.
func (s *Service) categoryIndex(ctx context.Context, podcasts []models.Podcast) (map[string]CategoryRef, error) {
	ids := newOrderedSet()
	for _, p := range podcasts {
		ids.add(p.CategoryIDs...)
	}
	index := make(map[string]CategoryRef, ids.len())
	if ids.len() == 0 {
		return index, nil
	}
	categories, err := s.catalog.CategoriesByIDs(ctx, ids.items)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	for _, c := range categories {
		index[c.ID] = CategoryRef{ID: c.ID, Slug: c.Slug, Name: c.Name}
	}
	return index, nil
}

func podcastCategories(p models.Podcast, index map[string]CategoryRef) []CategoryRef {
	refs := make([]CategoryRef, 0, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		if ref, ok := index[id]; ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (s *Service) rssURL(podcastID string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/podcasts/" + podcastID + "/rss"
}

// PodcastViews renders podcasts with their categories resolved.
func (s *Service) PodcastViews(ctx context.Context, podcasts []models.Podcast) ([]PodcastView, error) {
	index, err := s.categoryIndex(ctx, podcasts)
	if err != nil {
		return nil, err
	}
	views := make([]PodcastView, len(podcasts))
	for i, p := range podcasts {
		categories := podcastCategories(p, index)
		v := PodcastView{
			ID:           p.ID,
			Title:        p.Title,
			Description:  p.Description,
			Categories:   categories,
			CoverURL:     p.CoverURL,
			Language:     p.Language,
			Tags:         nonNilTags(p.Tags),
			Status:       p.Status,
			Explicit:     p.Explicit,
			EpisodeOrder: p.EpisodeOrder,
			WebsiteURL:   p.WebsiteURL,
			OwnerID:      p.OwnerID,
			RSSURL:       s.rssURL(p.ID),
			CreatedAt:    formatTime(p.CreatedAt),
			UpdatedAt:    formatTime(p.UpdatedAt),
		}
		if len(categories) > 0 {
			v.Category = &categories[0]
		}
		views[i] = v
	}
	return views, nil
}

// EpisodeViews renders episodes.
func EpisodeViews(episodes []models.Episode) []EpisodeView {
	views := make([]EpisodeView, len(episodes))
	for i, e := range episodes {
		views[i] = EpisodeView{
			ID:            e.ID,
			PodcastID:     e.PodcastID,
			Title:         e.Title,
			Description:   e.Description,
			Duration:      e.Duration,
			SeasonNumber:  e.SeasonNumber,
			EpisodeNumber: e.EpisodeNumber,
			ShowNotes:     e.ShowNotes,
			CoverURL:      episodeCover(e),
			Status:        e.Status,
			PublishedAt:   formatTimePtr(e.PublishedAt),
			CreatedAt:     formatTime(e.CreatedAt),
		}
	}
	return views
}

// SearchViews renders a search result in its compact form.
func (s *Service) SearchViews(ctx context.Context, result SearchResult) (SearchView, error) {
	index, err := s.categoryIndex(ctx, result.Podcasts)
	if err != nil {
		return SearchView{}, err
	}
	view := SearchView{
		Podcasts: make([]SearchPodcastView, len(result.Podcasts)),
		Episodes: make([]SearchEpisodeView, len(result.Episodes)),
	}
	for i, p := range result.Podcasts {
		v := SearchPodcastView{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			CoverURL:    p.CoverURL,
			Status:      p.Status,
		}
		if categories := podcastCategories(p, index); len(categories) > 0 {
			v.Category = &categories[0]
		}
		view.Podcasts[i] = v
	}
	for i, e := range result.Episodes {
		view.Episodes[i] = SearchEpisodeView{
			ID:          e.ID,
			PodcastID:   e.PodcastID,
			Title:       e.Title,
			Description: e.Description,
			Duration:    e.Duration,
			CoverURL:    episodeCover(e),
			Status:      e.Status,
			PublishedAt: formatTimePtr(e.PublishedAt),
		}
	}
	return view, nil
}

func episodeCover(e models.Episode) *string {
	if e.CoverURL != nil && *e.CoverURL != "" {
		return e.CoverURL
	}
	return e.PodcastCoverURL
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func podcastMediaItems(podcasts []models.Podcast) []MediaItem {
	items := make([]MediaItem, len(podcasts))
	for i, p := range podcasts {
		items[i] = MediaItem{
			ID:       p.ID,
			Type:     "podcast",
			Title:    p.Title,
			Subtitle: p.Description,
			ImageURL: nonEmpty(p.CoverURL),
			Tags:     p.Tags,
		}
	}
	return items
}

func episodeMediaItem(e models.Episode) MediaItem {
	subtitle := e.PodcastTitle
	if subtitle == nil {
		subtitle = e.Description
	}
	duration := e.Duration
	return MediaItem{
		ID:              e.ID,
		Type:            "episode",
		Title:           e.Title,
		Subtitle:        subtitle,
		ImageURL:        episodeCover(e),
		DurationSeconds: &duration,
		PublishedAt:     formatTimePtr(e.PublishedAt),
	}
}

func episodeMediaItems(episodes []models.Episode) []MediaItem {
	items := make([]MediaItem, len(episodes))
	for i, e := range episodes {
		items[i] = episodeMediaItem(e)
	}
	return items
}
