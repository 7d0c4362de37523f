// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a published blog article. Posts are written by an external
// content process (see the importer) and are read-only to the site.
type Post struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Body         string    `json:"body"` // Markdown source
	Author       string    `json:"author"`
	ThumbnailKey *string   `json:"thumbnail_key,omitempty"`
	ReadingTime  int       `json:"reading_time"` // minutes; 0 means "estimate from body"
	Popular      bool      `json:"popular"`
	FeaturedRank *int      `json:"featured_rank,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Categories holds the post's category slugs in display order.
	Categories []string `json:"categories"`
}

// IsFeatured reports whether the post appears in the home carousel.
func (p *Post) IsFeatured() bool {
	return p.FeaturedRank != nil
}

// HasCategory reports whether the post is tagged with the category slug.
func (p *Post) HasCategory(slug string) bool {
	for _, c := range p.Categories {
		if c == slug {
			return true
		}
	}
	return false
}
