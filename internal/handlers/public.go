// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"elixirblog/internal/blog"
	"elixirblog/internal/carousel"
	"elixirblog/internal/markdown"
	"elixirblog/internal/middleware"
	"elixirblog/internal/models"
	"elixirblog/internal/render"
	"elixirblog/internal/route"
	"elixirblog/internal/session"
	"elixirblog/internal/subscribe"
	"elixirblog/internal/view"
)

// Selector answers page queries. It is satisfied by *blog.Selector.
type Selector interface {
	Select(ctx context.Context, page route.Page) (any, error)
	Home(ctx context.Context) (*blog.HomeView, error)
}

// BodyRenderer turns a post's Markdown body into HTML and a table of
// contents. It is satisfied by *cache.BodyCache.
type BodyRenderer interface {
	Document(ctx context.Context, p *models.Post) (*markdown.Document, error)
}

// SessionSaver persists the visitor session. It is satisfied by
// *session.Store.
type SessionSaver interface {
	Save(ctx context.Context, w http.ResponseWriter, data *session.Data) error
}

// Subscriber records email sign-ups. It is satisfied by *subscribe.Service.
type Subscriber interface {
	Subscribe(ctx context.Context, email string) (subscribe.Outcome, error)
}

// Public groups handlers for the public blog: page rendering, carousel
// paging and the subscription form.
type Public struct {
	renderer      *render.Renderer
	selector      Selector
	bodies        BodyRenderer
	sessions      SessionSaver
	subscriptions Subscriber
	assetURL      func(key string) string
}

// NewPublic creates a new Public handler group. assetURL may be nil when
// object storage is not configured; thumbnails are then hidden.
func NewPublic(renderer *render.Renderer, selector Selector, bodies BodyRenderer, sessions SessionSaver, subscriptions Subscriber, assetURL func(string) string) *Public {
	if assetURL == nil {
		assetURL = func(string) string { return "" }
	}
	return &Public{
		renderer:      renderer,
		selector:      selector,
		bodies:        bodies,
		sessions:      sessions,
		subscriptions: subscriptions,
		assetURL:      assetURL,
	}
}

// Show renders whichever public page the request path resolves to. An
// unknown post or category redirects home with a flash notice instead of
// an error page.
func (p *Public) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, ok := route.Resolve(r.URL.Path)
	if !ok {
		// A slug that can never resolve gets the same treatment as a
		// missing one.
		if section, ok := route.Section(r.URL.Path); ok {
			notice, _ := blog.NoticeFor(notFound(section))
			slog.Info("page not found, redirecting", "kind", section.Kind, "slug", section.Slug)
			p.redirectWithNotice(w, r, notice)
			return
		}
		http.NotFound(w, r)
		return
	}

	result, err := p.selector.Select(ctx, page)
	if err != nil {
		if notice, ok := blog.NoticeFor(err); ok {
			slog.Info("page not found, redirecting", "kind", page.Kind, "slug", page.Slug)
			p.redirectWithNotice(w, r, notice)
			return
		}
		slog.Error("select page failed", "error", err, "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	switch v := result.(type) {
	case *blog.HomeView:
		p.renderHome(w, r, http.StatusOK, v, view.SubscribeForm{})

	case *blog.PostView:
		doc, err := p.bodies.Document(ctx, &v.Post)
		if err != nil {
			slog.Error("render post body failed", "error", err, "slug", v.Post.Slug)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		pp := view.PostPage{
			PostView: *v,
			Body:     template.HTML(doc.HTML), // goldmark output; raw HTML in the source is escaped
			TOC:      doc.TOC,
		}
		if v.Post.ThumbnailKey != nil {
			pp.ThumbnailURL = p.assetURL(*v.Post.ThumbnailKey)
		}
		p.page(w, r, http.StatusOK, "post", &render.PageData{Title: v.Post.Title, Data: pp})

	case *blog.CategoryIndexView:
		p.page(w, r, http.StatusOK, "categories", &render.PageData{
			Title:   "카테고리",
			Section: view.SectionCategories,
			Data:    view.CategoryIndexPage{CategoryIndexView: *v},
		})

	case *blog.CategoryView:
		p.page(w, r, http.StatusOK, "category", &render.PageData{
			Title:   v.Category.Name,
			Section: view.SectionCategories,
			Data:    view.CategoryPage{CategoryView: *v},
		})

	default:
		slog.Error("unexpected page result", "type", result)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Carousel moves the visitor's carousel one slide forward or back. HTMX
// requests get the updated carousel fragment; plain form posts are
// redirected home.
func (p *Public) Carousel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	home, err := p.selector.Home(ctx)
	if err != nil {
		slog.Error("load home for carousel failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := sessionOrNew(r)
	state, ok := carousel.New(sess.CarouselIndex, len(home.Featured)).Apply(r.FormValue("action"))
	if !ok {
		slog.Warn("unknown carousel action", "action", r.FormValue("action"))
	}
	sess.CarouselIndex = state.Index
	p.save(w, r, sess)

	if !render.IsHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	p.renderer.Partial(w, r, "home", "carousel", view.Carousel{Slides: home.Featured, State: state})
}

// Subscribe handles the email form. The outcome is shown inline: HTMX
// requests get the form fragment, plain posts get the whole home page.
func (p *Public) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	form := view.SubscribeForm{Email: email}
	status := http.StatusOK

	outcome, err := p.subscriptions.Subscribe(r.Context(), email)
	switch {
	case errors.Is(err, subscribe.ErrInvalidEmail):
		form.Message = subscribe.MsgInvalidEmail
		form.Error = true
		status = http.StatusUnprocessableEntity
	case err != nil:
		slog.Error("subscribe failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	default:
		slog.Info("subscription recorded", "outcome", outcome)
		form.Email = ""
		form.Message = outcome.Message()
	}

	if render.IsHTMX(r) {
		p.renderer.Partial(w, r, "home", "subscribe_form", form)
		return
	}

	home, err := p.selector.Home(r.Context())
	if err != nil {
		slog.Error("load home failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.renderHome(w, r, status, home, form)
}

// SubscribeLimited answers a sign-up that hit the rate limit. htmx ignores
// non-2xx responses, so HTMX requests get the form fragment with the notice
// at 200; plain posts get the home page with 429.
func (p *Public) SubscribeLimited(w http.ResponseWriter, r *http.Request) {
	form := view.SubscribeForm{
		Email:   r.PostFormValue("email"),
		Message: subscribe.MsgTryLater,
		Error:   true,
	}

	if render.IsHTMX(r) {
		p.renderer.Partial(w, r, "home", "subscribe_form", form)
		return
	}

	home, err := p.selector.Home(r.Context())
	if err != nil {
		slog.Error("load home failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.renderHome(w, r, http.StatusTooManyRequests, home, form)
}

// notFound builds the lookup failure for a detail page.
func notFound(page route.Page) error {
	kind := blog.NotFoundPost
	if page.Kind == route.CategoryDetail {
		kind = blog.NotFoundCategory
	}
	return &blog.NotFoundError{Kind: kind, Slug: page.Slug}
}

func (p *Public) renderHome(w http.ResponseWriter, r *http.Request, status int, home *blog.HomeView, form view.SubscribeForm) {
	sess := sessionOrNew(r)
	p.page(w, r, status, "home", &render.PageData{
		Title:   "홈",
		Section: view.SectionHome,
		Data: view.HomePage{
			HomeView:  *home,
			Carousel:  view.NewCarousel(home.Featured, sess.CarouselIndex),
			Subscribe: form,
		},
	})
}

// page consumes pending flashes and renders a page template.
func (p *Public) page(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		if flashes := sess.PopFlashes(); len(flashes) > 0 {
			data.Flashes = flashes
			p.save(w, r, sess)
		}
	}
	p.renderer.PageStatus(w, r, status, name, data)
}

// redirectWithNotice queues the notice for the next render and sends the
// visitor to its target. HTMX requests are redirected client-side.
func (p *Public) redirectWithNotice(w http.ResponseWriter, r *http.Request, n blog.Notice) {
	sess := sessionOrNew(r)
	sess.AddFlash(n.Level, n.Message)
	p.save(w, r, sess)

	if render.IsHTMX(r) {
		w.Header().Set("HX-Redirect", n.Target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, n.Target, http.StatusSeeOther)
}

// save persists the session. A failure only costs the visitor their view
// state, so it is logged and the request carries on.
func (p *Public) save(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	if err := p.sessions.Save(r.Context(), w, sess); err != nil {
		slog.Warn("session save failed", "error", err)
	}
}

// sessionOrNew returns the request's session, or a detached one when the
// session middleware did not run.
func sessionOrNew(r *http.Request) *session.Data {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess
	}
	return &session.Data{}
}
