// Package router sets up all HTTP routes and middleware chains for the
// blog. Every public page goes through a single handler that resolves the
// path; form endpoints get CSRF protection and, for subscriptions, a
// per-IP rate limit.
package router

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"elixirblog/internal/handlers"
	"elixirblog/internal/middleware"
	"elixirblog/web"
)

// Pinger checks a backing service. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options tunes the router.
type Options struct {
	// SecureCookies marks the CSRF cookie Secure. Enable behind TLS.
	SecureCookies bool
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For / X-Real-IP so
	// logs and the rate limiter see the visitor, not the proxy. Leave it off
	// when clients connect directly, or they can pick their own address.
	TrustProxy bool
	// ContentSecurityPolicy is sent on every response. Empty uses the
	// production policy with no extra image origins.
	ContentSecurityPolicy string
	// SubscribeLimiter throttles POST /subscribe. Nil disables limiting.
	SubscribeLimiter *middleware.RateLimiter
	// Health is pinged by /health. Nil always reports ok.
	Health Pinger
}

// New creates and returns the configured Chi router with all middleware
// and routes wired up.
func New(sessions middleware.SessionLoader, public *handlers.Public, opts Options) chi.Router {
	r := chi.NewRouter()

	csp := opts.ContentSecurityPolicy
	if csp == "" {
		csp = middleware.ContentSecurityPolicy(middleware.CSPOptions{})
	}

	// Global middleware, applied to every request.
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(csp))

	// Health check and assets skip the session and CSRF.
	r.Get("/health", healthHandler(opts.Health))
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))
		r.Use(middleware.LoadSession(sessions))

		r.Get("/", public.Show)
		r.Get("/posts/{slug}", public.Show)
		r.Get("/posts/*", public.Show)
		r.Get("/categories", public.Show)
		r.Get("/categories/{slug}", public.Show)
		r.Get("/categories/*", public.Show)

		r.Post("/carousel", public.Carousel)

		r.Group(func(r chi.Router) {
			if opts.SubscribeLimiter != nil {
				r.Use(opts.SubscribeLimiter.Limit(http.HandlerFunc(public.SubscribeLimited)))
			}
			r.Post("/subscribe", public.Subscribe)
		})
	})

	return r
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		// Only possible if the embed directive changes.
		panic("static assets: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a JSON health check response. When a database is
// configured, it is pinged and a failure answers 503.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				slog.Warn("health check failed", "error", err)
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
