// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// body.go provides a Valkey-backed cache of rendered post bodies.
// Rendering Markdown with syntax highlighting is the most expensive step of
// a post page, so the HTML and table of contents are stored per post
// version. Listings and post counts are never cached.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"elixirblog/internal/markdown"
	"elixirblog/internal/models"
)

const (
	// bodyKeyPrefix is the Valkey key prefix for rendered bodies.
	bodyKeyPrefix = "body:"

	// DefaultBodyTTL is how long a rendered body stays cached.
	DefaultBodyTTL = 30 * time.Minute
)

// BodyCache caches markdown.Document values in Valkey. A nil client
// disables caching and every lookup renders afresh.
type BodyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBodyCache creates a new body cache backed by the given Valkey client.
func NewBodyCache(client *redis.Client, ttl time.Duration) *BodyCache {
	if ttl == 0 {
		ttl = DefaultBodyTTL
	}
	return &BodyCache{client: client, ttl: ttl}
}

// BodyKey returns the cache key for one version of a post. The update time
// is part of the key, so an edited post never hits an older entry.
func BodyKey(slug string, updatedAt time.Time) string {
	return fmt.Sprintf("%s:%d", slug, updatedAt.UnixNano())
}

// Get retrieves a cached document. Returns false on miss.
func (bc *BodyCache) Get(ctx context.Context, key string) (*markdown.Document, bool) {
	if bc.client == nil {
		return nil, false
	}
	val, err := bc.client.Get(ctx, bodyKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("body cache get error", "key", key, "error", err)
		return nil, false
	}

	var doc markdown.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		slog.Warn("body cache decode error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("body cache hit", "key", key)
	return &doc, true
}

// Set stores a rendered document with the configured TTL.
func (bc *BodyCache) Set(ctx context.Context, key string, doc *markdown.Document) {
	if bc.client == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		slog.Warn("body cache encode error", "key", key, "error", err)
		return
	}
	if err := bc.client.Set(ctx, bodyKeyPrefix+key, data, bc.ttl).Err(); err != nil {
		slog.Warn("body cache set error", "key", key, "error", err)
	}
}

// Document returns the rendered body of p, from the cache when possible.
// Cache errors are logged and never fail the request.
func (bc *BodyCache) Document(ctx context.Context, p *models.Post) (*markdown.Document, error) {
	key := BodyKey(p.Slug, p.UpdatedAt)
	if doc, ok := bc.Get(ctx, key); ok {
		return doc, nil
	}

	doc, err := markdown.Render(p.Body)
	if err != nil {
		return nil, fmt.Errorf("render post %s: %w", p.Slug, err)
	}
	bc.Set(ctx, key, doc)
	return doc, nil
}

// InvalidatePost removes every cached version of a post.
func (bc *BodyCache) InvalidatePost(ctx context.Context, slug string) {
	bc.deletePattern(ctx, bodyKeyPrefix+slug+":*")
}

func (bc *BodyCache) deletePattern(ctx context.Context, pattern string) {
	if bc.client == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := bc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("body cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := bc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("body cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("body cache cleared", "pattern", pattern, "deleted", deleted)
	}
}
