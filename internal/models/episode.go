package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	EpisodeStatusDraft     = "draft"
	EpisodeStatusScheduled = "scheduled"
	EpisodeStatusPublished = "published"
	EpisodeStatusArchived  = "archived"
)

type Episode struct {
	ID            string         `db:"id"`
	PodcastID     string         `db:"podcast_id"`
	Title         string         `db:"title"`
	Description   *string        `db:"description"`
	Duration      int            `db:"duration"`
	SeasonNumber  *int           `db:"season_number"`
	EpisodeNumber *int           `db:"episode_number"`
	ShowNotes     *string        `db:"show_notes"`
	AudioURL      string         `db:"audio_url"`
	CoverURL      *string        `db:"cover_url"`
	Status        string         `db:"status"`
	CategoryIDs   pq.StringArray `db:"category_ids"`
	PublishedAt   *time.Time     `db:"published_at"`
	ArchivedAt    *time.Time     `db:"archived_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`

	// Joined from the owning podcast when a query selects them.
	PodcastTitle    *string `db:"podcast_title"`
	PodcastCoverURL *string `db:"podcast_cover_url"`
}

// IsPublished reports whether the episode may be surfaced by discovery.
func (e Episode) IsPublished() bool {
	return e.Status == EpisodeStatusPublished
}

// ListenedEpisode is an episode the listener has progress on.
type ListenedEpisode struct {
	Episode
	PositionSeconds int       `db:"position_seconds"`
	ProgressAt      time.Time `db:"progress_updated_at"`
}
