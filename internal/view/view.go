// Package view defines the page models the public templates render and
// the markup identifiers browser tests rely on.
package view

import (
	"html/template"

	"elixirblog/internal/blog"
	"elixirblog/internal/carousel"
	"elixirblog/internal/markdown"
	"elixirblog/internal/models"
)

// Markup identifiers. Templates and browser tests must agree on these.
const (
	AttrCarousel        = "data-carousel"
	AttrCarouselSlide   = "data-carousel-slide"
	AttrPostCard        = "data-post-card"
	AttrCategorySection = "data-category-section"
	AttrCategorySidebar = "data-category-sidebar"
	TestIDCategoryGrid  = "category-grid"
	TestIDCategoryCard  = "category-card"
	IDTOCNav            = "toc-nav"
	ClassMarkdown       = "markdown-content"
	ClassActiveNav      = "text-primary-600"

	SelCarousel        = "[" + AttrCarousel + "]"
	SelCarouselSlide   = "[" + AttrCarouselSlide + "]"
	SelPostCard        = "[" + AttrPostCard + "]"
	SelCategorySection = "[" + AttrCategorySection + "]"
	SelCategorySidebar = "[" + AttrCategorySidebar + "]"
	SelCategoryGrid    = `[data-testid="` + TestIDCategoryGrid + `"]`
	SelCategoryCard    = `[data-testid="` + TestIDCategoryCard + `"]`
	SelTOCNav          = "#" + IDTOCNav
	SelMarkdown        = "." + ClassMarkdown
	SelCarouselNext    = `button[value="` + carousel.ActionNext + `"]`
	SelCarouselPrev    = `button[value="` + carousel.ActionPrev + `"]`
)

// Section names select the active header link.
const (
	SectionHome       = "home"
	SectionCategories = "categories"
)

// Carousel is the featured-post slider with its current position.
type Carousel struct {
	Slides []models.Post
	State  carousel.State
}

// NewCarousel positions a carousel over slides at the given index.
func NewCarousel(slides []models.Post, index int) Carousel {
	return Carousel{Slides: slides, State: carousel.New(index, len(slides))}
}

// Current returns the visible slide, or nil when there are none.
func (c Carousel) Current() *models.Post {
	if len(c.Slides) == 0 {
		return nil
	}
	return &c.Slides[c.State.Index]
}

// HasControls reports whether paging makes sense.
func (c Carousel) HasControls() bool {
	return len(c.Slides) > 1
}

// SubscribeForm is the email form with the outcome of the last submit.
type SubscribeForm struct {
	Email   string
	Message string
	Error   bool
}

// HomePage is rendered at /.
type HomePage struct {
	blog.HomeView
	Carousel  Carousel
	Subscribe SubscribeForm
}

// PostPage is rendered at /posts/{slug}.
type PostPage struct {
	blog.PostView
	Body         template.HTML
	TOC          []markdown.Heading
	ThumbnailURL string
}

// CategoryIndexPage is rendered at /categories.
type CategoryIndexPage struct {
	blog.CategoryIndexView
}

// CategoryPage is rendered at /categories/{slug}.
type CategoryPage struct {
	blog.CategoryView
}

// Sidebar is the category list shown next to post listings. Current is
// the slug of the category being viewed, if any.
type Sidebar struct {
	Categories []models.CategoryStat
	Current    string
}
