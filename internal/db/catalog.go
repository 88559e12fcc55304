package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"podcast-discovery/internal/models"
)

const podcastColumns = `id, owner_id, title, description, category_ids, tags, cover_url, language,
	status, archived_at, explicit, episode_order, website_url, created_at, updated_at`

const episodeColumns = `e.id, e.podcast_id, e.title, e.description, e.duration, e.season_number,
	e.episode_number, e.show_notes, e.audio_url, e.cover_url, e.status, e.category_ids,
	e.published_at, e.archived_at, e.created_at, e.updated_at,
	p.title AS podcast_title, p.cover_url AS podcast_cover_url`

// PublishedPodcastsByIDs returns the published podcasts among ids, in no
// particular order. Unknown and unpublished ids are silently skipped.
func (s *Store) PublishedPodcastsByIDs(ctx context.Context, ids []string) ([]models.Podcast, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE id = ANY($1::uuid[]) AND status = 'published'`
	var podcasts []models.Podcast
	if err := s.db.SelectContext(ctx, &podcasts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get podcasts by ids: %w", err)
	}
	return podcasts, nil
}

// browseWhere renders the WHERE clause shared by BrowsePodcasts and CountPodcasts.
func browseWhere(filter models.BrowseFilter) (string, []interface{}) {
	conds := []string{"status = 'published'"}
	var args []interface{}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conds = append(conds, fmt.Sprintf("$%d::uuid = ANY(category_ids)", len(args)))
	}
	if len(filter.Tags) > 0 {
		args = append(args, pq.Array(filter.Tags))
		conds = append(conds, fmt.Sprintf("tags && $%d::text[]", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// BrowsePodcasts lists published podcasts matching filter, most recently
// modified first.
func (s *Store) BrowsePodcasts(ctx context.Context, filter models.BrowseFilter, limit, offset int) ([]models.Podcast, error) {
	where, args := browseWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s
		FROM podcasts
		WHERE %s
		ORDER BY updated_at DESC, id ASC
		LIMIT $%d OFFSET $%d`, podcastColumns, where, len(args)-1, len(args))

	var podcasts []models.Podcast
	if err := s.db.SelectContext(ctx, &podcasts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to browse podcasts: %w", err)
	}
	return podcasts, nil
}

// CountPodcasts counts published podcasts matching filter.
func (s *Store) CountPodcasts(ctx context.Context, filter models.BrowseFilter) (int, error) {
	where, args := browseWhere(filter)
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM podcasts WHERE `+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count podcasts: %w", err)
	}
	return count, nil
}

// NewestPodcasts returns the most recently created published podcasts.
func (s *Store) NewestPodcasts(ctx context.Context, limit int) ([]models.Podcast, error) {
	query := `SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE status = 'published'
		ORDER BY created_at DESC, id ASC
		LIMIT $1`
	var podcasts []models.Podcast
	if err := s.db.SelectContext(ctx, &podcasts, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get newest podcasts: %w", err)
	}
	return podcasts, nil
}

// RelatedPodcasts returns published podcasts sharing a category or a tag with
// the given sets, excluding the given ids, most recently modified first.
func (s *Store) RelatedPodcasts(ctx context.Context, categoryIDs, tags, exclude []string, limit int) ([]models.Podcast, error) {
	if len(categoryIDs) == 0 && len(tags) == 0 {
		return nil, nil
	}
	query := `SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE status = 'published'
			AND NOT (id = ANY($3::uuid[]))
			AND (category_ids && $1::uuid[] OR tags && $2::text[])
		ORDER BY updated_at DESC, id ASC
		LIMIT $4`
	var podcasts []models.Podcast
	err := s.db.SelectContext(ctx, &podcasts, query,
		pq.Array(nonNil(categoryIDs)), pq.Array(nonNil(tags)), pq.Array(nonNil(exclude)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get related podcasts: %w", err)
	}
	return podcasts, nil
}

// SearchPodcasts matches published podcasts against the text index.
// Tags, when given, must overlap the podcast's tags.
func (s *Store) SearchPodcasts(ctx context.Context, q string, tags []string, limit, offset int) ([]models.Podcast, error) {
	query := `SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE status = 'published'
			AND search_vector @@ plainto_tsquery('simple', $1)
			AND (cardinality($2::text[]) = 0 OR tags && $2::text[])
		ORDER BY updated_at DESC, id ASC
		LIMIT $3 OFFSET $4`
	var podcasts []models.Podcast
	if err := s.db.SelectContext(ctx, &podcasts, query, q, pq.Array(nonNil(tags)), limit, offset); err != nil {
		return nil, fmt.Errorf("failed to search podcasts: %w", textIndexError(err))
	}
	return podcasts, nil
}

// SearchEpisodes matches published episodes against the text index. Tags,
// when given, restrict episodes to published podcasts with overlapping tags.
func (s *Store) SearchEpisodes(ctx context.Context, q string, tags []string, limit, offset int) ([]models.Episode, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes e
		LEFT JOIN podcasts p ON p.id = e.podcast_id
		WHERE e.status = 'published'
			AND e.search_vector @@ plainto_tsquery('simple', $1)
			AND (cardinality($2::text[]) = 0 OR e.podcast_id IN (
				SELECT id FROM podcasts WHERE status = 'published' AND tags && $2::text[]))
		ORDER BY e.published_at DESC NULLS LAST, e.id ASC
		LIMIT $3 OFFSET $4`
	var episodes []models.Episode
	if err := s.db.SelectContext(ctx, &episodes, query, q, pq.Array(nonNil(tags)), limit, offset); err != nil {
		return nil, fmt.Errorf("failed to search episodes: %w", textIndexError(err))
	}
	return episodes, nil
}

// PublishedEpisodes lists published episodes, newest publication first.
func (s *Store) PublishedEpisodes(ctx context.Context, limit, offset int) ([]models.Episode, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes e
		LEFT JOIN podcasts p ON p.id = e.podcast_id
		WHERE e.status = 'published'
		ORDER BY e.published_at DESC NULLS LAST, e.created_at DESC, e.id ASC
		LIMIT $1 OFFSET $2`
	var episodes []models.Episode
	if err := s.db.SelectContext(ctx, &episodes, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get published episodes: %w", err)
	}
	return episodes, nil
}

// CountPublishedEpisodes counts published episodes.
func (s *Store) CountPublishedEpisodes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM episodes WHERE status = 'published'`); err != nil {
		return 0, fmt.Errorf("failed to count published episodes: %w", err)
	}
	return count, nil
}

// FeaturedPodcasts returns the curated slots in display order.
func (s *Store) FeaturedPodcasts(ctx context.Context, limit int) ([]models.FeaturedPodcast, error) {
	query := `SELECT podcast_id, "order", created_at
		FROM featured_podcasts
		ORDER BY "order" ASC, podcast_id ASC
		LIMIT $1`
	var featured []models.FeaturedPodcast
	if err := s.db.SelectContext(ctx, &featured, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get featured podcasts: %w", err)
	}
	return featured, nil
}

// CategoriesByIDs returns the categories among ids.
func (s *Store) CategoriesByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		`SELECT id, slug, name, parent_id FROM categories WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// CategoryBySlug returns the category with slug, or nil when there is none.
func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category,
		`SELECT id, slug, name, parent_id FROM categories WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
