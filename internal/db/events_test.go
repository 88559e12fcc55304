package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"podcast-discovery/internal/test"
)

func TestTopPodcastsByPlaysAllTime(t *testing.T) {
	store, mock := test.NewMockDB(t)

	mock.ExpectQuery(`SELECT podcast_id, COUNT\(\*\) AS count\s+FROM play_events`).
		WithArgs(nil, 10).
		WillReturnRows(sqlmock.NewRows([]string{"podcast_id", "count"}).
			AddRow("a", 20).
			AddRow("b", 5))

	counts, err := store.TopPodcastsByPlays(context.Background(), time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "a", counts[0].PodcastID)
	assert.Equal(t, 20, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopPodcastsByPlaysWindow(t *testing.T) {
	store, mock := test.NewMockDB(t)
	since := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`GROUP BY podcast_id\s+ORDER BY count DESC, podcast_id ASC`).
		WithArgs(since, 50).
		WillReturnError(errors.New("connection reset"))

	_, err := store.TopPodcastsByPlays(context.Background(), since, 50)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListenedPodcastIDs(t *testing.T) {
	store, mock := test.NewMockDB(t)

	mock.ExpectQuery(`SELECT DISTINCT e.podcast_id\s+FROM listening_progress lp\s+JOIN episodes e`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"podcast_id"}).AddRow("p1").AddRow("p2"))

	ids, err := store.ListenedPodcastIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolloweeSubscriptionCounts(t *testing.T) {
	store, mock := test.NewMockDB(t)

	mock.ExpectQuery(`FROM follows f\s+JOIN subscriptions s ON s.user_id = f.following_id\s+WHERE f.follower_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"podcast_id", "count"}).AddRow("p9", 3))

	counts, err := store.FolloweeSubscriptionCounts(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 3, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentlyListened(t *testing.T) {
	store, mock := test.NewMockDB(t)
	published := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	progressAt := published.Add(48 * time.Hour)

	columns := append(append([]string{}, test.EpisodeColumns...), "position_seconds", "progress_updated_at")
	rows := sqlmock.NewRows(columns).
		AddRow("e1", "p1", "Ep 1", nil, 1800, nil, nil, nil, "https://cdn/a.mp3", nil, "published", "{}",
			published, nil, published, published, "Podcast", "https://cdn/cover.jpg", 42, progressAt)
	mock.ExpectQuery(`FROM listening_progress lp\s+JOIN episodes e ON e.id = lp.episode_id\s+LEFT JOIN podcasts p ON p.id = e.podcast_id\s+WHERE lp.user_id = \$1 AND e.status = 'published'\s+ORDER BY lp.updated_at DESC, e.id ASC\s+LIMIT \$2`).
		WithArgs("u1", 6).
		WillReturnRows(rows)

	listened, err := store.RecentlyListened(context.Background(), "u1", 6)
	require.NoError(t, err)
	require.Len(t, listened, 1)
	assert.Equal(t, "e1", listened[0].ID)
	assert.Equal(t, "p1", listened[0].PodcastID)
	assert.Equal(t, 42, listened[0].PositionSeconds)
	assert.Equal(t, progressAt, listened[0].ProgressAt)
	assert.Equal(t, "Podcast", *listened[0].PodcastTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentlyListenedError(t *testing.T) {
	store, mock := test.NewMockDB(t)

	mock.ExpectQuery(`FROM listening_progress lp`).
		WithArgs("u1", 100).
		WillReturnError(errors.New("connection reset"))

	_, err := store.RecentlyListened(context.Background(), "u1", 100)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
