package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	PodcastStatusDraft     = "draft"
	PodcastStatusPublished = "published"
	PodcastStatusArchived  = "archived"
)

// Podcast is a row of the podcasts table.
type Podcast struct {
	ID           string         `db:"id"`
	OwnerID      string         `db:"owner_id"`
	Title        string         `db:"title"`
	Description  *string        `db:"description"`
	CategoryIDs  pq.StringArray `db:"category_ids"`
	Tags         pq.StringArray `db:"tags"`
	CoverURL     string         `db:"cover_url"`
	Language     string         `db:"language"`
	Status       string         `db:"status"`
	ArchivedAt   *time.Time     `db:"archived_at"`
	Explicit     bool           `db:"explicit"`
	EpisodeOrder string         `db:"episode_order"`
	WebsiteURL   *string        `db:"website_url"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// IsPublished reports whether the podcast may be surfaced by discovery.
func (p Podcast) IsPublished() bool {
	return p.Status == PodcastStatusPublished
}

// Category is a row of the categories table.
type Category struct {
	ID       string  `db:"id"`
	Slug     string  `db:"slug"`
	Name     string  `db:"name"`
	ParentID *string `db:"parent_id"`
}

// FeaturedPodcast is an admin-curated slot; lower Order comes first.
type FeaturedPodcast struct {
	PodcastID string    `db:"podcast_id"`
	Order     int       `db:"order"`
	CreatedAt time.Time `db:"created_at"`
}

// BrowseFilter narrows a published podcast listing.
type BrowseFilter struct {
	CategoryID string
	Tags       []string
}
