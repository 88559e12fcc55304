package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podcast-discovery/internal/models"
)

func seedHome(store *fakeStore) {
	store.addPodcast("trend", models.PodcastStatusPublished)
	store.addPodcast("friend", models.PodcastStatusPublished)
	store.addPodcast("mine", models.PodcastStatusPublished, func(p *models.Podcast) {
		p.Title = "Mine"
	})
	store.addPlays("trend", 5, baseTime)
	store.follow("fran", "gus")
	store.subscribe("gus", "friend")
	store.addEpisode("e-mine", "mine", models.EpisodeStatusPublished, timePtr(baseTime))
	store.addProgress("fran", "e-mine", 321, baseTime)
}

func TestGetHomeAnonymous(t *testing.T) {
	store := newFakeStore()
	seedHome(store)
	svc := newTestService(t, store, nil)

	feed := svc.GetHome(context.Background(), "", 0)
	assert.Empty(t, feed.ContinueListening)
	assert.NotNil(t, feed.ContinueListening)
	require.Len(t, feed.Recommendations, 1)
	assert.Equal(t, "trend", feed.Recommendations[0].ID)
	assert.Equal(t, "podcast", feed.Recommendations[0].Type)
	require.Len(t, feed.Latest, 1)
	assert.Equal(t, "episode", feed.Latest[0].Type)
	assert.Equal(t, 0, store.callCount("RecentlyListened"))
}

func TestGetHomeListener(t *testing.T) {
	store := newFakeStore()
	seedHome(store)
	svc := newTestService(t, store, nil)

	feed := svc.GetHome(context.Background(), "fran", 6)
	require.Len(t, feed.ContinueListening, 1)
	assert.Equal(t, "e-mine", feed.ContinueListening[0].ID)
	assert.Equal(t, 321, feed.ContinueListening[0].PlaybackPosition)

	var recs []string
	for _, item := range feed.Recommendations {
		recs = append(recs, item.ID)
	}
	assert.Equal(t, []string{"friend", "trend"}, recs)
}

func TestGetHomeSectionLimit(t *testing.T) {
	store := newFakeStore()
	seedHome(store)
	svc := newTestService(t, store, nil)

	feed := svc.GetHome(context.Background(), "fran", 1)
	assert.Len(t, feed.Featured, 1)
	assert.Len(t, feed.Recommendations, 1)
}

func TestGetHomeSectionsFailSoft(t *testing.T) {
	store := newFakeStore()
	seedHome(store)
	store.failOn("PublishedEpisodes", errors.New("episodes down"))
	store.failOn("FolloweeSubscriptionCounts", errors.New("graph down"))
	svc := newTestService(t, store, nil)

	feed := svc.GetHome(context.Background(), "fran", 6)
	assert.NotNil(t, feed.Latest)
	assert.Empty(t, feed.Latest)
	require.Len(t, feed.Recommendations, 1, "recommendations fall back to trending")
	assert.Equal(t, "trend", feed.Recommendations[0].ID)
	assert.NotEmpty(t, feed.Featured)
}
