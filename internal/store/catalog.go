package store

import (
	"context"
	"database/sql"

	"elixirblog/internal/models"
)

// Catalog exposes published posts and categories to the content selector.
type Catalog struct {
	posts      *PostStore
	categories *CategoryStore
}

// NewCatalog returns a Catalog reading from db.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{
		posts:      NewPostStore(db),
		categories: NewCategoryStore(db),
	}
}

// Posts returns the published posts.
func (c *Catalog) Posts(ctx context.Context) ([]models.Post, error) {
	return c.posts.ListPublished(ctx)
}

// Categories returns every category.
func (c *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	return c.categories.List(ctx)
}
