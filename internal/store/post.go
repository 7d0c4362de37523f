// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"elixirblog/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postSelect selects posts with their category slugs joined in tag order.
// Slugs never contain commas, so a comma-joined list is unambiguous.
const postSelect = `
	SELECT p.id, p.slug, p.title, p.summary, p.body, p.author, p.thumbnail_key,
	       p.reading_time, p.popular, p.featured_rank, p.published_at,
	       p.created_at, p.updated_at,
	       COALESCE(string_agg(c.slug, ',' ORDER BY pc.position), '') AS tags
	FROM posts p
	LEFT JOIN post_categories pc ON pc.post_id = p.id
	LEFT JOIN categories c ON c.id = pc.category_id`

// scanPost scans a postSelect row into a Post.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	var tags string
	err := scanner.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Summary, &p.Body, &p.Author, &p.ThumbnailKey,
		&p.ReadingTime, &p.Popular, &p.FeaturedRank, &p.PublishedAt,
		&p.CreatedAt, &p.UpdatedAt, &tags,
	)
	if err != nil {
		return nil, err
	}
	p.Categories = splitTags(tags)
	return &p, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// ListPublished returns every post whose publication time has passed,
// most recent first.
func (s *PostStore) ListPublished(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+`
		WHERE p.published_at <= NOW()
		GROUP BY p.id
		ORDER BY p.published_at DESC, p.slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a post by slug regardless of publication time.
// Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, postSelect+`
		WHERE p.slug = $1
		GROUP BY p.id
	`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// Upsert inserts a post or updates the one with the same slug, and replaces
// its category tags in the same transaction. Every tag must name an
// existing category.
func (s *PostStore) Upsert(ctx context.Context, p *models.Post) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO posts (slug, title, summary, body, author, thumbnail_key,
		                   reading_time, popular, featured_rank, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			body = EXCLUDED.body,
			author = EXCLUDED.author,
			thumbnail_key = EXCLUDED.thumbnail_key,
			reading_time = EXCLUDED.reading_time,
			popular = EXCLUDED.popular,
			featured_rank = EXCLUDED.featured_rank,
			published_at = EXCLUDED.published_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, p.Slug, p.Title, p.Summary, p.Body, p.Author, p.ThumbnailKey,
		p.ReadingTime, p.Popular, p.FeaturedRank, p.PublishedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert post: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = $1`, p.ID); err != nil {
		return nil, fmt.Errorf("clear post categories: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO post_categories (post_id, category_id, position)
		SELECT $1, id, $3 FROM categories WHERE slug = $2
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("prepare post categories: %w", err)
	}
	defer stmt.Close()

	for i, tag := range p.Categories {
		res, err := stmt.ExecContext(ctx, p.ID, tag, i)
		if err != nil {
			return nil, fmt.Errorf("tag post %s with %s: %w", p.Slug, tag, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if !containsBefore(p.Categories, i) {
				return nil, fmt.Errorf("tag post %s: unknown category %q", p.Slug, tag)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post: %w", err)
	}
	return p, nil
}

// containsBefore reports whether tags[i] already appeared earlier in tags.
func containsBefore(tags []string, i int) bool {
	for j := 0; j < i; j++ {
		if tags[j] == tags[i] {
			return true
		}
	}
	return false
}

// Count returns the number of posts.
func (s *PostStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}
