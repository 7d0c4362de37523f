// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// Script origins the page templates load from.
const (
	HTMXOrigin     = "https://unpkg.com"
	TailwindOrigin = "https://cdn.tailwindcss.com"
)

// CSPOptions describes what the blog's pages pull in from other origins.
type CSPOptions struct {
	// Dev allows the Tailwind CDN script, which only development pages load.
	Dev bool
	// ImageOrigins hosts post thumbnails, e.g. the public bucket URL.
	ImageOrigins []string
}

// ContentSecurityPolicy builds the policy header value. Inline styles are
// allowed because highlighted code blocks carry style attributes; inline
// scripts are not.
func ContentSecurityPolicy(opts CSPOptions) string {
	scripts := []string{"'self'", HTMXOrigin}
	if opts.Dev {
		scripts = append(scripts, TailwindOrigin)
	}
	images := []string{"'self'", "data:"}
	for _, o := range opts.ImageOrigins {
		if origin := originOf(o); origin != "" {
			images = append(images, origin)
		}
	}

	return strings.Join([]string{
		"default-src 'self'",
		"script-src " + strings.Join(scripts, " "),
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(images, " "),
		"connect-src 'self'",
		"form-action 'self'",
		"frame-ancestors 'self'",
		"base-uri 'self'",
	}, "; ")
}

// originOf reduces a URL to scheme://host. It returns "" for anything
// that is not an absolute http(s) URL.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// SecureHeaders returns middleware that sets the given Content-Security-Policy
// together with the usual hardening headers on every response.
func SecureHeaders(csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
			next.ServeHTTP(w, r)
		})
	}
}
