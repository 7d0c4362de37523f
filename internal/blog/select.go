// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog selects the posts and categories a public page renders.
// Every count and listing is computed from the current post set on each
// call; nothing derived is stored or cached here.
package blog

import (
	"context"
	"fmt"
	"sort"

	"elixirblog/internal/models"
	"elixirblog/internal/route"
)

// Catalog is the read side of the content store.
type Catalog interface {
	Posts(ctx context.Context) ([]models.Post, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// Section is one per-category block on the home page.
type Section struct {
	Category models.Category
	Posts    []models.Post
}

// HomeView is the content of the home page.
type HomeView struct {
	Featured   []models.Post
	Popular    []models.Post
	Sections   []Section
	Categories []models.CategoryStat
}

// PostView is the content of a post detail page.
type PostView struct {
	Post       models.Post
	Categories []models.Category // the post's tags, resolved, in tag order
}

// CategoryIndexView is the content of the category overview page.
type CategoryIndexView struct {
	Categories []models.CategoryStat
	Popular    []models.Post
}

// CategoryView is the content of a category detail page.
type CategoryView struct {
	Category   models.CategoryStat
	Posts      []models.Post
	Categories []models.CategoryStat // sidebar
}

// Selector answers page queries against a Catalog.
type Selector struct {
	catalog Catalog
}

// NewSelector returns a Selector reading from catalog.
func NewSelector(catalog Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Select loads the view for a resolved page. The returned value is one of
// *HomeView, *PostView, *CategoryIndexView or *CategoryView. Unknown slugs
// yield a *NotFoundError.
func (s *Selector) Select(ctx context.Context, page route.Page) (any, error) {
	switch page.Kind {
	case route.Home:
		return s.Home(ctx)
	case route.PostDetail:
		return s.Post(ctx, page.Slug)
	case route.CategoryIndex:
		return s.CategoryIndex(ctx)
	case route.CategoryDetail:
		return s.Category(ctx, page.Slug)
	}
	return nil, fmt.Errorf("select: unsupported page kind %d", page.Kind)
}

// Home returns the featured carousel, popular posts, per-category sections
// and sidebar statistics.
func (s *Selector) Home(ctx context.Context) (*HomeView, error) {
	posts, cats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var sections []Section
	for _, c := range cats {
		members := PostsInCategory(posts, c.Slug)
		if len(members) == 0 {
			continue
		}
		sections = append(sections, Section{Category: c, Posts: members})
	}

	return &HomeView{
		Featured:   Featured(posts),
		Popular:    Popular(posts),
		Sections:   sections,
		Categories: CategoryStats(posts, cats),
	}, nil
}

// Post looks up one post by slug.
func (s *Selector) Post(ctx context.Context, slug string) (*PostView, error) {
	posts, cats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		if p.Slug != slug {
			continue
		}
		bySlug := indexCategories(cats)
		view := &PostView{Post: p}
		for _, tag := range p.Categories {
			if c, ok := bySlug[tag]; ok {
				view.Categories = append(view.Categories, c)
			}
		}
		return view, nil
	}
	return nil, &NotFoundError{Kind: NotFoundPost, Slug: slug}
}

// CategoryIndex returns every category with its live post count, plus the
// popular posts.
func (s *Selector) CategoryIndex(ctx context.Context) (*CategoryIndexView, error) {
	posts, cats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoryIndexView{
		Categories: CategoryStats(posts, cats),
		Popular:    Popular(posts),
	}, nil
}

// Category looks up a category by slug and returns its member posts,
// most recent first. A category without posts is not an error.
func (s *Selector) Category(ctx context.Context, slug string) (*CategoryView, error) {
	posts, cats, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stats := CategoryStats(posts, cats)
	for _, st := range stats {
		if st.Slug != slug {
			continue
		}
		return &CategoryView{
			Category:   st,
			Posts:      PostsInCategory(posts, slug),
			Categories: stats,
		}, nil
	}
	return nil, &NotFoundError{Kind: NotFoundCategory, Slug: slug}
}

func (s *Selector) load(ctx context.Context) ([]models.Post, []models.Category, error) {
	posts, err := s.catalog.Posts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	cats, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load categories: %w", err)
	}
	cats = append([]models.Category(nil), cats...)
	sortCategories(cats)
	return posts, cats, nil
}

// CategoryStats counts, for each category, the posts tagged with it.
// Categories keep their input order.
func CategoryStats(posts []models.Post, cats []models.Category) []models.CategoryStat {
	counts := make(map[string]int, len(cats))
	for _, p := range posts {
		seen := make(map[string]bool, len(p.Categories))
		for _, tag := range p.Categories {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			counts[tag]++
		}
	}

	stats := make([]models.CategoryStat, 0, len(cats))
	for _, c := range cats {
		stats = append(stats, models.CategoryStat{Category: c, PostCount: counts[c.Slug]})
	}
	return stats
}

// PostsInCategory returns the posts tagged with slug, most recent first.
func PostsInCategory(posts []models.Post, slug string) []models.Post {
	var out []models.Post
	for _, p := range posts {
		if p.HasCategory(slug) {
			out = append(out, p)
		}
	}
	SortRecent(out)
	return out
}

// Featured returns the featured posts in editorial order (rank ascending,
// ties by slug).
func Featured(posts []models.Post) []models.Post {
	var out []models.Post
	for _, p := range posts {
		if p.IsFeatured() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := *out[i].FeaturedRank, *out[j].FeaturedRank
		if ri != rj {
			return ri < rj
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// Popular returns the posts flagged popular, most recent first.
func Popular(posts []models.Post) []models.Post {
	var out []models.Post
	for _, p := range posts {
		if p.Popular {
			out = append(out, p)
		}
	}
	SortRecent(out)
	return out
}

// SortRecent orders posts by publication time descending, breaking ties by
// slug so the order is deterministic.
func SortRecent(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].PublishedAt, posts[j].PublishedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return posts[i].Slug < posts[j].Slug
	})
}

func sortCategories(cats []models.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].SortOrder != cats[j].SortOrder {
			return cats[i].SortOrder < cats[j].SortOrder
		}
		return cats[i].Name < cats[j].Name
	})
}

func indexCategories(cats []models.Category) map[string]models.Category {
	m := make(map[string]models.Category, len(cats))
	for _, c := range cats {
		m[c.Slug] = c
	}
	return m
}
