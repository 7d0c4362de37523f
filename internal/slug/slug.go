// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives and checks the URL slugs of posts and categories.
package slug

import (
	"path"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// canonical is the shape Generate produces.
	canonical = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate creates a URL-friendly slug from the given string. Characters
// outside ASCII letters and digits are dropped, so a Korean title yields
// an empty slug and needs an explicit one.
// Example: "GenServer Deep Dive 2024" → "genserver-deep-dive-2024"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = strings.ReplaceAll(result, "_", " ")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.Join(strings.Fields(result), "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// FromFile derives a slug from a content file name, ignoring directories
// and the extension: "posts/Background_Jobs.md" → "background-jobs".
func FromFile(name string) string {
	base := path.Base(name)
	return Generate(strings.TrimSuffix(base, path.Ext(base)))
}

// Valid reports whether s is already a canonical slug: lower-case ASCII
// letters and digits separated by single hyphens.
func Valid(s string) bool {
	return canonical.MatchString(s)
}
