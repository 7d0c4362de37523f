// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against an in-memory catalog and subscriber set so they do
// not need PostgreSQL or Valkey.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"elixirblog/internal/blog"
	"elixirblog/internal/cache"
	"elixirblog/internal/middleware"
	"elixirblog/internal/models"
	"elixirblog/internal/render"
	"elixirblog/internal/session"
	"elixirblog/internal/subscribe"
)

// memCatalog serves a fixed post and category set.
type memCatalog struct {
	posts []models.Post
	cats  []models.Category
	err   error
}

func (m *memCatalog) Posts(context.Context) ([]models.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Post(nil), m.posts...), nil
}

func (m *memCatalog) Categories(context.Context) ([]models.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Category(nil), m.cats...), nil
}

// memSubscribers records addresses in a map.
type memSubscribers struct {
	mu     sync.Mutex
	emails map[string]bool
	err    error
}

func (m *memSubscribers) Insert(_ context.Context, email string) (*models.Subscriber, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emails == nil {
		m.emails = make(map[string]bool)
	}
	sub := &models.Subscriber{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	if m.emails[email] {
		return sub, false, nil
	}
	m.emails[email] = true
	return sub, true, nil
}

// recordingSessions keeps the last saved session instead of writing to
// Valkey.
type recordingSessions struct {
	saves int
	last  *session.Data
	err   error
}

func (s *recordingSessions) Save(_ context.Context, w http.ResponseWriter, data *session.Data) error {
	s.saves++
	if s.err != nil {
		return s.err
	}
	if data.ID == "" {
		data.ID = "test-session"
		http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: data.ID, Path: "/"})
	}
	cp := *data
	cp.Flashes = append([]session.Flash(nil), data.Flashes...)
	s.last = &cp
	return nil
}

func rank(n int) *int { return &n }

func thumb(key string) *string { return &key }

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 9, 0, 0, 0, time.UTC)
}

func testCatalog() *memCatalog {
	return &memCatalog{
		cats: []models.Category{
			{Slug: "elixir", Name: "Elixir", Description: "함수형 언어", SortOrder: 1},
			{Slug: "otp", Name: "OTP", SortOrder: 2},
			{Slug: "database", Name: "데이터베이스", SortOrder: 3},
		},
		posts: []models.Post{
			{
				Slug: "background-jobs", Title: "백그라운드 작업 처리하기", Summary: "Task와 잡 큐",
				Author: "김철수", PublishedAt: day(time.March, 15), ReadingTime: 5,
				Categories: []string{"elixir", "otp"}, Popular: true, FeaturedRank: rank(1),
				Body: "## 소개\n\n백그라운드 작업.\n\n### Task\n\n~~~elixir\nTask.async(fn -> :ok end)\n~~~\n",
			},
			{
				Slug: "pattern-matching", Title: "패턴 매칭 이해하기", Summary: "매치 연산자",
				Author: "이영희", PublishedAt: day(time.March, 8), ReadingTime: 4,
				Categories: []string{"elixir"}, FeaturedRank: rank(2),
				ThumbnailKey: thumb("thumbnails/pattern-matching.png"),
				Body:         "## 매치 연산자\n\n`=` 는 매치 연산자입니다.",
			},
			{
				Slug: "genserver", Title: "GenServer 깊이 보기", Summary: "상태를 가진 프로세스",
				Author: "박민수", PublishedAt: day(time.February, 1), ReadingTime: 7,
				Categories: []string{"otp"},
				Body:       "본문",
			},
		},
	}
}

// testEnv holds the Public handler and the fakes behind it.
type testEnv struct {
	Catalog     *memCatalog
	Subscribers *memSubscribers
	Sessions    *recordingSessions
	Public      *Public
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New(render.Options{AssetURL: assetURL})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env := &testEnv{
		Catalog:     testCatalog(),
		Subscribers: &memSubscribers{},
		Sessions:    &recordingSessions{},
	}
	env.Public = NewPublic(
		renderer,
		blog.NewSelector(env.Catalog),
		cache.NewBodyCache(nil, cache.DefaultBodyTTL),
		env.Sessions,
		subscribe.NewService(env.Subscribers),
		assetURL,
	)
	return env
}

func assetURL(key string) string { return "https://cdn.example.com/" + key }

var errBackend = errors.New("backend down")

// withSession attaches session data to a request the way LoadSession does.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, sess))
}
