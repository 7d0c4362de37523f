// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site.
// It supports full-page and HTMX partial rendering, automatically detecting
// the request type via the HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"elixirblog/internal/markdown"
	"elixirblog/internal/middleware"
	"elixirblog/internal/models"
	"elixirblog/internal/route"
	"elixirblog/internal/session"
	"elixirblog/internal/view"
)

//go:embed templates/public/*.html
var publicFS embed.FS

// shared holds the layout and the blocks every page may use.
var shared = []string{"base.html", "partials.html"}

// PageData holds all data passed to public templates.
type PageData struct {
	Title     string          // Page title for <title> tag
	Section   string          // Active header link (view.SectionHome, view.SectionCategories)
	SiteName  string          // Shown in the header, footer and title
	CSRFToken string          // CSRF token for forms and HTMX headers
	Flashes   []session.Flash // One-time notices popped from the session
	Data      any             // Page or block model from package view
}

// Options configures a Renderer.
type Options struct {
	// DevMode loads the Tailwind CDN build in addition to the bundled
	// stylesheet.
	DevMode  bool
	SiteName string
	// AssetURL maps an object storage key to a public URL. Nil, or a
	// func returning "", hides thumbnails.
	AssetURL func(key string) string
}

// Renderer handles template parsing and execution for public pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	siteName  string
}

// New creates a Renderer by parsing all public templates from the embedded
// filesystem. Each page template is paired with the base layout and the
// shared partials.
func New(opts Options) (*Renderer, error) {
	if opts.SiteName == "" {
		opts.SiteName = "Elixir 블로그"
	}
	assetURL := opts.AssetURL
	if assetURL == nil {
		assetURL = func(string) string { return "" }
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		siteName:  opts.SiteName,
		funcMap: template.FuncMap{
			"isDev":        func() bool { return opts.DevMode },
			"year":         func() int { return time.Now().Year() },
			"add":          func(a, b int) int { return a + b },
			"koDate":       KoreanDate,
			"isoDate":      func(t time.Time) string { return t.Format("2006-01-02") },
			"minutes":      ReadingMinutes,
			"postPath":     route.PostPath,
			"categoryPath": route.CategoryPath,
			"navClass":     navClass,
			"scope":        scope,
			"sidebarOf": func(cats []models.CategoryStat, current string) view.Sidebar {
				return view.Sidebar{Categories: cats, Current: current}
			},
			// assetURL resolves an optional storage key. Empty means no image.
			"assetURL": func(key *string) string {
				if key == nil || *key == "" {
					return ""
				}
				return assetURL(*key)
			},
		},
	}

	entries, err := publicFS.ReadDir("templates/public")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || name == "partials.html" {
			continue
		}

		files := make([]string, 0, len(shared)+1)
		for _, f := range shared {
			files = append(files, "templates/public/"+f)
		}
		files = append(files, "templates/public/"+name)

		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(publicFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// PageStatus renders a full page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
// For full page loads, the entire base layout is rendered.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	rn.fill(r, data)

	execName := "base.html"
	if IsHTMX(r) {
		execName = "content"
	}
	rn.write(w, status, tmpl, execName, data)
}

// Partial renders one named block of a page template. model becomes the
// block's .Data. HTMX swaps only on 2xx, so partials always answer 200.
func (rn *Renderer) Partial(w http.ResponseWriter, r *http.Request, page, block string, model any) {
	tmpl, ok := rn.templates[page]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", page), http.StatusInternalServerError)
		return
	}
	data := &PageData{Data: model}
	rn.fill(r, data)
	rn.write(w, http.StatusOK, tmpl, block, data)
}

// fill injects request-scoped values into data.
func (rn *Renderer) fill(r *http.Request, data *PageData) {
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.SiteName == "" {
		data.SiteName = rn.siteName
	}
}

// write executes into a buffer first so a template error never leaves a
// half-written page behind a 200 header.
func (rn *Renderer) write(w http.ResponseWriter, status int, tmpl *template.Template, name string, data *PageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// IsHTMX returns true if the request was made by HTMX (has HX-Request header).
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// scope returns a copy of p whose Data is d, so a block gets its own model
// while keeping the CSRF token and site name.
func scope(p *PageData, d any) *PageData {
	c := *p
	c.Data = d
	return &c
}

func navClass(current, target string) string {
	if current == target {
		return view.ClassActiveNav + " font-semibold"
	}
	return "text-gray-600 hover:text-primary-600"
}

// KoreanDate formats t as "2024년 3월 15일".
func KoreanDate(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

// ReadingMinutes returns the stored reading time, or an estimate from the
// body when none was stored.
func ReadingMinutes(p models.Post) int {
	if p.ReadingTime > 0 {
		return p.ReadingTime
	}
	return markdown.ReadingTime(p.Body)
}
