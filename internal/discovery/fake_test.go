package discovery

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"podcast-discovery/internal/cache"
	"podcast-discovery/internal/models"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory CatalogStore, EventStore and SocialStore.
type fakeStore struct {
	mu         sync.Mutex
	podcasts   map[string]models.Podcast
	episodes   []models.Episode
	categories []models.Category
	featured   []models.FeaturedPodcast
	plays      []models.PlayEvent
	progress   []models.ListeningProgress
	subs       []models.Subscription
	follows    []models.Follow

	errs  map[string]error
	calls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		podcasts: map[string]models.Podcast{},
		errs:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeStore) call(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) failOn(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeStore) addPodcast(id, status string, mods ...func(*models.Podcast)) {
	p := models.Podcast{
		ID:        id,
		OwnerID:   "owner",
		Title:     "Podcast " + id,
		CoverURL:  "https://cdn/" + id + ".jpg",
		Language:  "en",
		Status:    status,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	for _, m := range mods {
		m(&p)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.podcasts[id] = p
}

func (f *fakeStore) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.podcasts[id]
	p.Status = status
	f.podcasts[id] = p
}

func (f *fakeStore) addEpisode(id, podcastID, status string, publishedAt *time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.episodes = append(f.episodes, models.Episode{
		ID:          id,
		PodcastID:   podcastID,
		Title:       "Episode " + id,
		Duration:    600,
		AudioURL:    "https://cdn/" + id + ".mp3",
		Status:      status,
		PublishedAt: publishedAt,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	})
}

func (f *fakeStore) addPlays(podcastID string, n int, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.plays = append(f.plays, models.PlayEvent{PodcastID: podcastID, CreatedAt: at})
	}
}

func (f *fakeStore) addProgress(userID, episodeID string, position int, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, models.ListeningProgress{UserID: userID, EpisodeID: episodeID, PositionSeconds: position, UpdatedAt: at})
}

func (f *fakeStore) subscribe(userID string, podcastIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range podcastIDs {
		f.subs = append(f.subs, models.Subscription{UserID: userID, PodcastID: id})
	}
}

func (f *fakeStore) follow(follower string, followees ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range followees {
		f.follows = append(f.follows, models.Follow{FollowerID: follower, FollowingID: id})
	}
}

func (f *fakeStore) PublishedPodcastsByIDs(_ context.Context, ids []string) ([]models.Podcast, error) {
	if err := f.call("PublishedPodcastsByIDs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Podcast
	for _, id := range ids {
		if p, ok := f.podcasts[id]; ok && p.Status == models.PodcastStatusPublished {
			out = append(out, p)
		}
	}
	// Storage does not promise any order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) matchBrowse(p models.Podcast, filter models.BrowseFilter) bool {
	if p.Status != models.PodcastStatusPublished {
		return false
	}
	if filter.CategoryID != "" && !contains(p.CategoryIDs, filter.CategoryID) {
		return false
	}
	if len(filter.Tags) > 0 && !overlaps(p.Tags, filter.Tags) {
		return false
	}
	return true
}

func (f *fakeStore) browse(filter models.BrowseFilter) []models.Podcast {
	var out []models.Podcast
	for _, p := range f.podcasts {
		if f.matchBrowse(p, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeStore) BrowsePodcasts(_ context.Context, filter models.BrowseFilter, limit, offset int) ([]models.Podcast, error) {
	if err := f.call("BrowsePodcasts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.browse(filter), limit, offset), nil
}

func (f *fakeStore) CountPodcasts(_ context.Context, filter models.BrowseFilter) (int, error) {
	if err := f.call("CountPodcasts"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.browse(filter)), nil
}

func (f *fakeStore) NewestPodcasts(_ context.Context, limit int) ([]models.Podcast, error) {
	if err := f.call("NewestPodcasts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.browse(models.BrowseFilter{})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, 0), nil
}

func (f *fakeStore) RelatedPodcasts(_ context.Context, categoryIDs, tags, exclude []string, limit int) ([]models.Podcast, error) {
	if err := f.call("RelatedPodcasts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Podcast
	for _, p := range f.browse(models.BrowseFilter{}) {
		if contains(exclude, p.ID) {
			continue
		}
		if overlaps(p.CategoryIDs, categoryIDs) || overlaps(p.Tags, tags) {
			out = append(out, p)
		}
	}
	return page(out, limit, 0), nil
}

func (f *fakeStore) SearchPodcasts(_ context.Context, q string, tags []string, limit, offset int) ([]models.Podcast, error) {
	if err := f.call("SearchPodcasts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Podcast
	for _, p := range f.browse(models.BrowseFilter{Tags: tags}) {
		if matchesText(p.Title, q) {
			out = append(out, p)
		}
	}
	return page(out, limit, offset), nil
}

func (f *fakeStore) SearchEpisodes(_ context.Context, q string, tags []string, limit, offset int) ([]models.Episode, error) {
	if err := f.call("SearchEpisodes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var allowed map[string]bool
	if len(tags) > 0 {
		allowed = map[string]bool{}
		for _, p := range f.browse(models.BrowseFilter{Tags: tags}) {
			allowed[p.ID] = true
		}
	}
	var out []models.Episode
	for _, e := range f.publishedEpisodes() {
		if allowed != nil && !allowed[e.PodcastID] {
			continue
		}
		if matchesText(e.Title, q) {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (f *fakeStore) publishedEpisodes() []models.Episode {
	var out []models.Episode
	for _, e := range f.episodes {
		if e.Status == models.EpisodeStatusPublished {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeStore) PublishedEpisodes(_ context.Context, limit, offset int) ([]models.Episode, error) {
	if err := f.call("PublishedEpisodes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.publishedEpisodes(), limit, offset), nil
}

func (f *fakeStore) CountPublishedEpisodes(_ context.Context) (int, error) {
	if err := f.call("CountPublishedEpisodes"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.publishedEpisodes()), nil
}

func (f *fakeStore) FeaturedPodcasts(_ context.Context, limit int) ([]models.FeaturedPodcast, error) {
	if err := f.call("FeaturedPodcasts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]models.FeaturedPodcast(nil), f.featured...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return page(out, limit, 0), nil
}

func (f *fakeStore) CategoriesByIDs(_ context.Context, ids []string) ([]models.Category, error) {
	if err := f.call("CategoriesByIDs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Category
	for _, c := range f.categories {
		if contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) CategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	if err := f.call("CategoryBySlug"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) TopPodcastsByPlays(_ context.Context, since time.Time, limit int) ([]models.PodcastCount, error) {
	if err := f.call("TopPodcastsByPlays"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, e := range f.plays {
		if !since.IsZero() && e.CreatedAt.Before(since) {
			continue
		}
		counts[e.PodcastID]++
	}
	return page(rankCounts(counts), limit, 0), nil
}

func (f *fakeStore) ListenedPodcastIDs(_ context.Context, userID string) ([]string, error) {
	if err := f.call("ListenedPodcastIDs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, lp := range f.progress {
		if lp.UserID != userID {
			continue
		}
		for _, e := range f.episodes {
			if e.ID == lp.EpisodeID && !contains(ids, e.PodcastID) {
				ids = append(ids, e.PodcastID)
			}
		}
	}
	return ids, nil
}

func (f *fakeStore) RecentlyListened(_ context.Context, userID string, limit int) ([]models.ListenedEpisode, error) {
	if err := f.call("RecentlyListened"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ListenedEpisode
	for _, lp := range f.progress {
		if lp.UserID != userID {
			continue
		}
		for _, e := range f.episodes {
			if e.ID == lp.EpisodeID && e.Status == models.EpisodeStatusPublished {
				out = append(out, models.ListenedEpisode{Episode: e, PositionSeconds: lp.PositionSeconds, ProgressAt: lp.UpdatedAt})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProgressAt.After(out[j].ProgressAt) })
	return page(out, limit, 0), nil
}

func (f *fakeStore) FolloweeSubscriptionCounts(_ context.Context, userID string) ([]models.PodcastCount, error) {
	if err := f.call("FolloweeSubscriptionCounts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, fl := range f.follows {
		if fl.FollowerID != userID {
			continue
		}
		for _, s := range f.subs {
			if s.UserID == fl.FollowingID {
				counts[s.PodcastID]++
			}
		}
	}
	return rankCounts(counts), nil
}

func rankCounts(counts map[string]int) []models.PodcastCount {
	out := make([]models.PodcastCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, models.PodcastCount{PodcastID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].PodcastID < out[j].PodcastID
	})
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T(nil), items[offset:end]...)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}

func matchesText(text, q string) bool {
	text = strings.ToLower(text)
	for _, word := range strings.Fields(strings.ToLower(q)) {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}

// memoryCache is a cache.Store over a map, optionally failing every call.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[key] = value
	return nil
}

func (m *memoryCache) ids(t *testing.T, key string) []string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return nil
	}
	ids, err := cache.DecodeIDList(data)
	require.NoError(t, err)
	return ids
}

func newTestService(t *testing.T, store *fakeStore, c cache.Store, mods ...func(*Config)) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = "https://api.example.com/api/v1"
	cfg.Now = func() time.Time { return baseTime }
	for _, m := range mods {
		m(&cfg)
	}
	if c == nil {
		c = cache.Noop{}
	}
	lists := cache.NewIDLists("trending", c, cache.DefaultBreakerSettings(), zerolog.Nop())
	svc, err := New(store, store, store, lists, cfg, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func episodeIDs(episodes []models.Episode) []string {
	out := make([]string, len(episodes))
	for i, e := range episodes {
		out[i] = e.ID
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	return &t
}
