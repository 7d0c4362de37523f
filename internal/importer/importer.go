// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package importer loads blog content from a directory and writes it to
// the store. The layout is:
//
//	categories.yaml     list of {slug, name, description, sort_order}
//	posts/*.md          YAML front matter between "---" lines, then Markdown
//	<thumbnail paths>   files referenced by a post's "thumbnail" field
//
// The whole directory is validated before anything is written, so a
// dangling category tag or a missing title leaves the store untouched.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"elixirblog/internal/markdown"
	"elixirblog/internal/models"
	"elixirblog/internal/slug"
)

const (
	categoriesFile = "categories.yaml"
	postsDir       = "posts"
	thumbnailsKey  = "thumbnails/"
)

// CategoryWriter persists categories. *store.CategoryStore satisfies it.
// FindBySlug returns (nil, nil) for an unknown slug.
type CategoryWriter interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Upsert(ctx context.Context, c *models.Category) (*models.Category, error)
}

// PostWriter persists posts with their tags. *store.PostStore satisfies it.
// FindBySlug returns (nil, nil) for an unknown slug.
type PostWriter interface {
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	Upsert(ctx context.Context, p *models.Post) (*models.Post, error)
}

// Uploader stores thumbnails. *storage.Client satisfies it.
type Uploader interface {
	Exists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
}

// Bundle is a parsed and validated content directory.
type Bundle struct {
	Categories []models.Category
	Posts      []Post
}

// Post is one post file with the local path of its thumbnail, if any.
type Post struct {
	models.Post
	File      string // path inside the content directory
	Thumbnail string // path inside the content directory, "" if none
}

// Result counts what an import wrote. Records identical to what the store
// already holds are skipped, so their updated_at (and with it any cached
// body) stays valid.
type Result struct {
	Categories int // categories created or changed
	Posts      int // posts created or changed
	Thumbnails int // images uploaded
	Unchanged  int // posts and categories skipped

	// Updated lists slugs of existing posts that changed. Their cached
	// bodies are stale.
	Updated []string
}

type categoryEntry struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	SortOrder   int    `yaml:"sort_order"`
}

type frontMatter struct {
	Slug         string    `yaml:"slug"`
	Title        string    `yaml:"title"`
	Summary      string    `yaml:"summary"`
	Author       string    `yaml:"author"`
	PublishedAt  time.Time `yaml:"published_at"`
	Categories   []string  `yaml:"categories"`
	Popular      bool      `yaml:"popular"`
	FeaturedRank *int      `yaml:"featured_rank"`
	ReadingTime  int       `yaml:"reading_time"`
	Thumbnail    string    `yaml:"thumbnail"`
}

// Load parses and validates the content directory rooted at fsys.
func Load(fsys fs.FS) (*Bundle, error) {
	cats, err := loadCategories(fsys)
	if err != nil {
		return nil, err
	}

	names, err := fs.Glob(fsys, postsDir+"/*.md")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	sort.Strings(names)

	b := &Bundle{Categories: cats}
	for _, name := range names {
		p, err := loadPost(fsys, name)
		if err != nil {
			return nil, err
		}
		b.Posts = append(b.Posts, *p)
	}

	if err := b.Validate(fsys); err != nil {
		return nil, err
	}
	return b, nil
}

func loadCategories(fsys fs.FS) ([]models.Category, error) {
	raw, err := fs.ReadFile(fsys, categoriesFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", categoriesFile, err)
	}

	var entries []categoryEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", categoriesFile, err)
	}

	cats := make([]models.Category, 0, len(entries))
	for i, e := range entries {
		if e.SortOrder == 0 {
			e.SortOrder = i + 1
		}
		cats = append(cats, models.Category{
			Slug:        strings.TrimSpace(e.Slug),
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
			SortOrder:   e.SortOrder,
		})
	}
	return cats, nil
}

func loadPost(fsys fs.FS, name string) (*Post, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	head, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var fm frontMatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return nil, fmt.Errorf("%s: parse front matter: %w", name, err)
	}

	if fm.Slug == "" {
		fm.Slug = slug.FromFile(name)
	}
	if fm.ReadingTime == 0 {
		fm.ReadingTime = markdown.ReadingTime(body)
	}

	p := &Post{
		Post: models.Post{
			Slug:         fm.Slug,
			Title:        strings.TrimSpace(fm.Title),
			Summary:      strings.TrimSpace(fm.Summary),
			Author:       strings.TrimSpace(fm.Author),
			Body:         body,
			PublishedAt:  fm.PublishedAt,
			Categories:   fm.Categories,
			Popular:      fm.Popular,
			FeaturedRank: fm.FeaturedRank,
			ReadingTime:  fm.ReadingTime,
		},
		File: name,
	}
	if fm.Thumbnail != "" {
		p.Thumbnail = path.Clean(strings.TrimPrefix(fm.Thumbnail, "/"))
	}
	return p, nil
}

// splitFrontMatter separates the YAML block delimited by "---" lines from
// the Markdown that follows it.
func splitFrontMatter(raw []byte) (head []byte, body string, err error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(raw, []byte("---\n")) {
		return nil, "", fmt.Errorf("missing front matter")
	}
	rest := raw[len("---\n"):]

	end := bytes.Index(rest, []byte("\n---\n"))
	switch {
	case end >= 0:
		return rest[:end], strings.TrimLeft(string(rest[end+len("\n---\n"):]), "\n"), nil
	case bytes.HasSuffix(rest, []byte("\n---")):
		return rest[:len(rest)-len("\n---")], "", nil
	}
	return nil, "", fmt.Errorf("unterminated front matter")
}

// Validate checks the bundle as a whole: required fields, canonical slugs,
// no duplicates, every tag resolving to a category, unique featured ranks
// and present thumbnail files.
func (b *Bundle) Validate(fsys fs.FS) error {
	known := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		err := validation.ValidateStruct(&c,
			validation.Field(&c.Slug, validation.Required, validation.By(canonicalSlug)),
			validation.Field(&c.Name, validation.Required, validation.RuneLength(1, 100)),
		)
		if err != nil {
			return fmt.Errorf("%s: category %q: %w", categoriesFile, c.Slug, err)
		}
		if known[c.Slug] {
			return fmt.Errorf("%s: duplicate category %q", categoriesFile, c.Slug)
		}
		known[c.Slug] = true
	}

	tags := make([]any, 0, len(known))
	for s := range known {
		tags = append(tags, s)
	}

	seen := make(map[string]string, len(b.Posts))
	ranks := make(map[int]string)
	for i := range b.Posts {
		p := &b.Posts[i]
		err := validation.ValidateStruct(p,
			validation.Field(&p.Slug, validation.Required, validation.By(canonicalSlug)),
			validation.Field(&p.Title, validation.Required, validation.RuneLength(1, 200)),
			validation.Field(&p.Author, validation.Required),
			validation.Field(&p.PublishedAt, validation.Required),
			validation.Field(&p.Categories, validation.Each(validation.In(tags...).Error("unknown category"))),
			validation.Field(&p.FeaturedRank, validation.Min(0)),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", p.File, err)
		}

		if other, dup := seen[p.Slug]; dup {
			return fmt.Errorf("%s: slug %q already used by %s", p.File, p.Slug, other)
		}
		seen[p.Slug] = p.File

		if p.FeaturedRank != nil {
			if other, dup := ranks[*p.FeaturedRank]; dup {
				return fmt.Errorf("%s: featured_rank %d already used by %s", p.File, *p.FeaturedRank, other)
			}
			ranks[*p.FeaturedRank] = p.File
		}

		if p.Thumbnail != "" {
			if _, err := fs.Stat(fsys, p.Thumbnail); err != nil {
				return fmt.Errorf("%s: thumbnail: %w", p.File, err)
			}
		}
	}
	return nil
}

func canonicalSlug(v any) error {
	s, _ := v.(string)
	if s != "" && !slug.Valid(s) {
		return fmt.Errorf("must be lower-case letters, digits and single hyphens")
	}
	return nil
}

// Importer writes bundles to the store.
type Importer struct {
	categories CategoryWriter
	posts      PostWriter
	uploader   Uploader
}

// New returns an Importer. uploader may be nil, in which case thumbnails
// are skipped with a warning.
func New(categories CategoryWriter, posts PostWriter, uploader Uploader) *Importer {
	return &Importer{categories: categories, posts: posts, uploader: uploader}
}

// Run loads the directory and upserts its categories, then its posts.
// Unchanged records are left alone and thumbnails already present in
// storage are not uploaded again.
func (im *Importer) Run(ctx context.Context, fsys fs.FS) (Result, error) {
	var res Result

	b, err := Load(fsys)
	if err != nil {
		return res, err
	}

	for i := range b.Categories {
		c := &b.Categories[i]
		current, err := im.categories.FindBySlug(ctx, c.Slug)
		if err != nil {
			return res, fmt.Errorf("import category %s: %w", c.Slug, err)
		}
		if current != nil && sameCategory(current, c) {
			res.Unchanged++
			continue
		}
		if _, err := im.categories.Upsert(ctx, c); err != nil {
			return res, fmt.Errorf("import category %s: %w", c.Slug, err)
		}
		res.Categories++
	}

	for i := range b.Posts {
		p := &b.Posts[i]
		if p.Thumbnail != "" {
			key, uploaded, err := im.thumbnail(ctx, fsys, p)
			if err != nil {
				return res, err
			}
			if key != "" {
				p.ThumbnailKey = &key
			}
			if uploaded {
				res.Thumbnails++
			}
		}

		current, err := im.posts.FindBySlug(ctx, p.Slug)
		if err != nil {
			return res, fmt.Errorf("import post %s: %w", p.Slug, err)
		}
		if current != nil && samePost(current, &p.Post) {
			res.Unchanged++
			continue
		}
		if _, err := im.posts.Upsert(ctx, &p.Post); err != nil {
			return res, fmt.Errorf("import post %s: %w", p.Slug, err)
		}
		res.Posts++
		if current != nil {
			res.Updated = append(res.Updated, p.Slug)
		}
		slog.Debug("post imported", "slug", p.Slug, "file", p.File, "new", current == nil)
	}

	return res, nil
}

func sameCategory(a, b *models.Category) bool {
	return a.Name == b.Name && a.Description == b.Description && a.SortOrder == b.SortOrder
}

// samePost compares the imported fields of two posts.
func samePost(a, b *models.Post) bool {
	return a.Title == b.Title &&
		a.Summary == b.Summary &&
		a.Body == b.Body &&
		a.Author == b.Author &&
		a.ReadingTime == b.ReadingTime &&
		a.Popular == b.Popular &&
		a.PublishedAt.Equal(b.PublishedAt) &&
		equalPtr(a.FeaturedRank, b.FeaturedRank) &&
		equalPtr(a.ThumbnailKey, b.ThumbnailKey) &&
		slices.Equal(a.Categories, b.Categories)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ThumbnailKey names a post image in storage. The content hash in the key
// means a replaced image gets a new key (and a new URL, so browsers and
// CDNs never serve the old one), while re-importing the same image finds
// it already uploaded.
func ThumbnailKey(postSlug, file string, data []byte) string {
	return fmt.Sprintf("%s%s-%016x%s", thumbnailsKey, postSlug, xxhash.Sum64(data), strings.ToLower(path.Ext(file)))
}

// thumbnail makes sure the post's image is in storage and returns its key.
func (im *Importer) thumbnail(ctx context.Context, fsys fs.FS, p *Post) (key string, uploaded bool, err error) {
	if im.uploader == nil {
		slog.Warn("storage not configured, skipping thumbnail", "post", p.Slug, "file", p.Thumbnail)
		return "", false, nil
	}

	data, err := fs.ReadFile(fsys, p.Thumbnail)
	if err != nil {
		return "", false, fmt.Errorf("read thumbnail %s: %w", p.Thumbnail, err)
	}

	key = ThumbnailKey(p.Slug, p.Thumbnail, data)
	exists, err := im.uploader.Exists(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("check thumbnail %s: %w", key, err)
	}
	if exists {
		return key, false, nil
	}

	contentType := mime.TypeByExtension(path.Ext(p.Thumbnail))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := im.uploader.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", false, fmt.Errorf("upload thumbnail %s: %w", key, err)
	}
	return key, true, nil
}
