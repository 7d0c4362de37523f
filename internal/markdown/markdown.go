// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts post bodies from Markdown into HTML using
// goldmark, and extracts the table of contents and reading time shown on
// the post detail page.
package markdown

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks, task lists
		extension.Typographer, // smart quotes and dashes
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // heading ids are the TOC anchors
	),
)

// Heading is one entry of a table of contents.
type Heading struct {
	Level int    // 2 or 3
	ID    string // anchor id without '#'
	Text  string
}

// Anchor returns the in-page link for the heading.
func (h Heading) Anchor() string {
	return "#" + h.ID
}

// Document is a rendered post body.
type Document struct {
	HTML string    `json:"html"`
	TOC  []Heading `json:"toc"`
}

// Render parses source once and produces both the HTML and the table of
// contents built from its h2 and h3 headings. Raw HTML in the source is
// escaped.
func Render(source string) (*Document, error) {
	src := []byte(source)
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	root := md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, root); err != nil {
		return nil, err
	}

	return &Document{
		HTML: buf.String(),
		TOC:  collectHeadings(root, src),
	}, nil
}

// headingIDs generates heading anchors. goldmark's default keeps only
// ASCII, which turns every Korean heading into "heading", "heading-1", ...
// This one keeps letters and digits of any script.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]bool)}
}

// Generate lower-cases value, joins words with '-' and drops punctuation.
// Repeats get a numeric suffix.
func (ids *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	var b strings.Builder
	dash := false
	for _, r := range string(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || unicode.IsSpace(r):
			dash = true
		}
	}

	base := b.String()
	if base == "" {
		base = "heading"
		if kind != ast.KindHeading {
			base = "id"
		}
	}
	id := base
	for i := 1; ids.used[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	ids.used[id] = true
	return []byte(id)
}

// Put reserves an id that is already taken.
func (ids *headingIDs) Put(value []byte) {
	ids.used[string(value)] = true
}

// collectHeadings walks the document and returns level 2 and 3 headings
// that carry an id.
func collectHeadings(root ast.Node, src []byte) []Heading {
	var toc []Heading
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level < 2 || h.Level > 3 {
			return ast.WalkSkipChildren, nil
		}
		id, ok := h.AttributeString("id")
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		idBytes, ok := id.([]byte)
		if !ok || len(idBytes) == 0 {
			return ast.WalkSkipChildren, nil
		}
		toc = append(toc, Heading{
			Level: h.Level,
			ID:    string(idBytes),
			Text:  strings.TrimSpace(nodeText(h, src)),
		})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// nodeText concatenates the literal text under n.
func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(nodeText(c, src))
		}
	}
	return sb.String()
}

// wordsPerMinute is the reading speed used for estimates. Korean text is
// counted in runes of visible text, so a rune budget is derived from it.
const (
	wordsPerMinute = 200
	runesPerMinute = 500
)

// ReadingTime estimates minutes needed to read source. Latin-script text
// is measured in words and Hangul-heavy text in runes; the larger estimate
// wins. The result is at least 1.
func ReadingTime(source string) int {
	words := len(strings.Fields(source))
	byWords := (words + wordsPerMinute - 1) / wordsPerMinute

	hangul := 0
	for _, r := range source {
		if r >= 0xAC00 && r <= 0xD7A3 {
			hangul++
		}
	}
	byRunes := 0
	if hangul > 0 && hangul*2 >= utf8.RuneCountInString(strings.Join(strings.Fields(source), "")) {
		byRunes = (hangul + runesPerMinute - 1) / runesPerMinute
	}

	minutes := max(byWords, byRunes)
	if minutes < 1 {
		return 1
	}
	return minutes
}
