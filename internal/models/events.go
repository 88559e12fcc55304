package models

import "time"

// PlayEvent is an immutable play fact. It is never updated or deleted.
type PlayEvent struct {
	ID              string    `db:"id"`
	EpisodeID       string    `db:"episode_id"`
	PodcastID       string    `db:"podcast_id"`
	UserID          *string   `db:"user_id"`
	ListenedSeconds int       `db:"listened_seconds"`
	DeviceInfo      *string   `db:"device_info"`
	GeoCountry      *string   `db:"geo_country"`
	CreatedAt       time.Time `db:"created_at"`
}

// ListeningProgress holds the last playback position per (user, episode).
type ListeningProgress struct {
	UserID          string    `db:"user_id"`
	EpisodeID       string    `db:"episode_id"`
	PositionSeconds int       `db:"position_seconds"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// PodcastCount is one row of a per-podcast aggregation: plays for trending and
// popularity, subscriber overlap for the follow graph.
type PodcastCount struct {
	PodcastID string `db:"podcast_id"`
	Count     int    `db:"count"`
}
