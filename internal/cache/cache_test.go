// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"elixirblog/internal/markdown"
	"elixirblog/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, bodyKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	opts := ValkeyOptions{
		Host: envOr("VALKEY_HOST", "localhost"),
		Port: envOr("VALKEY_PORT", "6379"),
		DB:   15,
	}
	client, err := ConnectValkey(context.Background(), opts)
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	if got := client.Options().DB; got != 15 {
		t.Errorf("DB = %d, want 15", got)
	}
	name, err := client.ClientGetName(context.Background()).Result()
	if err != nil {
		t.Fatalf("CLIENT GETNAME: %v", err)
	}
	if name != "elixirblog" {
		t.Errorf("client name = %q", name)
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	_, err := ConnectValkey(context.Background(), ValkeyOptions{Host: "127.0.0.1", Port: "1"})
	if err == nil {
		t.Fatal("expected an error for a closed port")
	}
	if !strings.Contains(err.Error(), "127.0.0.1:1") {
		t.Errorf("error should name the address: %v", err)
	}
}

func TestBodyCacheSetAndGet(t *testing.T) {
	client := testValkeyClient(t)
	bc := NewBodyCache(client, time.Minute)
	ctx := context.Background()

	data, ok := bc.Get(ctx, "test-post:1")
	if ok || data != nil {
		t.Error("expected cache miss")
	}

	doc := &markdown.Document{
		HTML: "<h2 id=\"intro\">Intro</h2>",
		TOC:  []markdown.Heading{{Level: 2, ID: "intro", Text: "Intro"}},
	}
	bc.Set(ctx, "test-post:1", doc)

	got, ok := bc.Get(ctx, "test-post:1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.HTML != doc.HTML || len(got.TOC) != 1 || got.TOC[0].ID != "intro" {
		t.Errorf("got %+v, want %+v", got, doc)
	}
}

func TestBodyCacheDocumentFollowsUpdates(t *testing.T) {
	client := testValkeyClient(t)
	bc := NewBodyCache(client, time.Minute)
	ctx := context.Background()

	p := &models.Post{Slug: "test-versioned", Body: "## First", UpdatedAt: time.Unix(100, 0)}
	doc, err := bc.Document(ctx, p)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if !strings.Contains(doc.HTML, "First") {
		t.Fatalf("unexpected html %q", doc.HTML)
	}

	// Same version: served from cache even if the body changed underneath.
	p.Body = "## Second"
	doc, _ = bc.Document(ctx, p)
	if !strings.Contains(doc.HTML, "First") {
		t.Errorf("expected cached body, got %q", doc.HTML)
	}

	// New version: re-rendered.
	p.UpdatedAt = time.Unix(200, 0)
	doc, _ = bc.Document(ctx, p)
	if !strings.Contains(doc.HTML, "Second") {
		t.Errorf("expected fresh body after update, got %q", doc.HTML)
	}
}

func TestBodyCacheInvalidatePost(t *testing.T) {
	client := testValkeyClient(t)
	bc := NewBodyCache(client, time.Minute)
	ctx := context.Background()

	bc.Set(ctx, BodyKey("invalidate-me", time.Unix(1, 0)), &markdown.Document{HTML: "a"})
	bc.Set(ctx, BodyKey("invalidate-me", time.Unix(2, 0)), &markdown.Document{HTML: "b"})
	bc.Set(ctx, BodyKey("keep-me", time.Unix(1, 0)), &markdown.Document{HTML: "c"})

	bc.InvalidatePost(ctx, "invalidate-me")

	if _, ok := bc.Get(ctx, BodyKey("invalidate-me", time.Unix(1, 0))); ok {
		t.Error("expected miss for first version")
	}
	if _, ok := bc.Get(ctx, BodyKey("invalidate-me", time.Unix(2, 0))); ok {
		t.Error("expected miss for second version")
	}
	if _, ok := bc.Get(ctx, BodyKey("keep-me", time.Unix(1, 0))); !ok {
		t.Error("other posts should stay cached")
	}
}

func TestBodyCacheWithoutClient(t *testing.T) {
	bc := NewBodyCache(nil, 0)
	if bc.ttl != DefaultBodyTTL {
		t.Errorf("expected DefaultBodyTTL (%v), got %v", DefaultBodyTTL, bc.ttl)
	}

	doc, err := bc.Document(context.Background(), &models.Post{Slug: "x", Body: "## Hi"})
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if len(doc.TOC) != 1 || doc.TOC[0].Text != "Hi" {
		t.Errorf("TOC = %+v", doc.TOC)
	}
	// No panics without a client.
	bc.InvalidatePost(context.Background(), "x")
}

func TestBodyKey(t *testing.T) {
	k1 := BodyKey("about", time.Unix(0, 1))
	k2 := BodyKey("about", time.Unix(0, 2))
	if k1 == k2 {
		t.Error("keys for different versions must differ")
	}
	if !strings.HasPrefix(k1, "about:") {
		t.Errorf("BodyKey = %q, want slug prefix", k1)
	}
}
