// Package web provides the embedded static assets (CSS, JS) of the public
// site, served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree: the bundled stylesheet
// with the utility classes the templates use, and a small script for the
// table of contents.
//
//go:embed all:static
var StaticFS embed.FS
