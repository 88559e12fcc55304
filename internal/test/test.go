package test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"podcast-discovery/internal/db"
)

// NewMockDB returns a Store backed by sqlmock. The connection is closed when
// the test finishes.
func NewMockDB(t *testing.T) (*db.Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	sqlxDB := sqlx.NewDb(mockDb, "sqlmock")

	t.Cleanup(func() {
		mockDb.Close()
	})

	return db.NewStore(sqlxDB), mock
}

// PodcastColumns are the columns selected for a podcast row.
var PodcastColumns = []string{
	"id", "owner_id", "title", "description", "category_ids", "tags", "cover_url", "language",
	"status", "archived_at", "explicit", "episode_order", "website_url", "created_at", "updated_at",
}

// EpisodeColumns are the columns selected for an episode row.
var EpisodeColumns = []string{
	"id", "podcast_id", "title", "description", "duration", "season_number",
	"episode_number", "show_notes", "audio_url", "cover_url", "status", "category_ids",
	"published_at", "archived_at", "created_at", "updated_at",
	"podcast_title", "podcast_cover_url",
}
