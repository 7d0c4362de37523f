// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// MsgServerError is the body of a recovered panic.
const MsgServerError = "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

// Recoverer turns a handler panic into a logged 500. For HTMX requests it
// also sets HX-Reswap: none so the fragment already on screen (carousel,
// subscribe form) stays put instead of being replaced by the error text.
// http.ErrAbortHandler is re-raised, as net/http expects.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Reswap", "none")
			}
			http.Error(w, MsgServerError, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
