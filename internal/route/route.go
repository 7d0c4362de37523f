// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package route maps public URL paths to page identities. Resolution is
// purely syntactic: whether a slug names an existing post or category is
// decided later by the content selector.
package route

import "strings"

// Kind identifies which public page a path resolves to.
type Kind int

const (
	Home Kind = iota
	PostDetail
	CategoryIndex
	CategoryDetail
)

// String returns the page name used in logs and as the template name.
func (k Kind) String() string {
	switch k {
	case Home:
		return "home"
	case PostDetail:
		return "post"
	case CategoryIndex:
		return "categories"
	case CategoryDetail:
		return "category"
	}
	return "unknown"
}

// Page is a resolved page identity. Slug is empty for Home and CategoryIndex.
type Page struct {
	Kind Kind
	Slug string
}

// Resolve maps a request path to a page. A single trailing slash is
// tolerated. It returns false for paths outside the public route table.
func Resolve(path string) (Page, bool) {
	if path == "" || path == "/" {
		return Page{Kind: Home}, true
	}
	path = strings.TrimSuffix(path, "/")

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "categories":
		return Page{Kind: CategoryIndex}, true
	case len(parts) == 2 && parts[0] == "posts" && parts[1] != "":
		return Page{Kind: PostDetail, Slug: parts[1]}, true
	case len(parts) == 2 && parts[0] == "categories" && parts[1] != "":
		return Page{Kind: CategoryDetail, Slug: parts[1]}, true
	}
	return Page{}, false
}

// Section catches detail paths Resolve rejects, such as "/posts/a/b" or
// an escaped "/posts/a%2Fb" after decoding. It reports the detail page the
// visitor was after, with everything past the prefix as the slug, so the
// caller can answer like any other unknown slug.
func Section(path string) (Page, bool) {
	path = strings.TrimSuffix(path, "/")
	if rest, ok := strings.CutPrefix(path, "/posts/"); ok && rest != "" {
		return Page{Kind: PostDetail, Slug: rest}, true
	}
	if rest, ok := strings.CutPrefix(path, "/categories/"); ok && rest != "" {
		return Page{Kind: CategoryDetail, Slug: rest}, true
	}
	return Page{}, false
}

// Path returns the canonical URL path for the page.
func (p Page) Path() string {
	switch p.Kind {
	case PostDetail:
		return PostPath(p.Slug)
	case CategoryIndex:
		return "/categories"
	case CategoryDetail:
		return CategoryPath(p.Slug)
	}
	return "/"
}

// PostPath returns the URL of a post detail page.
func PostPath(slug string) string {
	return "/posts/" + slug
}

// CategoryPath returns the URL of a category detail page.
func CategoryPath(slug string) string {
	return "/categories/" + slug
}
