package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"elixirblog/internal/cache"
	"elixirblog/internal/importer"
	"elixirblog/internal/storage"
	"elixirblog/internal/store"
)

// runImport loads a content directory into the database.
func runImport(ctx context.Context, dir string) error {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return fmt.Errorf("content directory %q not found", dir)
	}

	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3BucketPublic, cfg.S3PublicURL,
	)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	var uploader importer.Uploader
	if storageClient != nil {
		uploader = storageClient
	}

	im := importer.New(store.NewCategoryStore(db), store.NewPostStore(db), uploader)
	res, err := im.Run(ctx, os.DirFS(dir))
	if err != nil {
		return err
	}

	// Cached bodies are keyed by update time, so stale entries are never
	// served. Dropping those of edited posts just frees memory early.
	if len(res.Updated) > 0 {
		if vk, err := cache.ConnectValkey(ctx, valkeyOptions(cfg)); err == nil {
			bodies := cache.NewBodyCache(vk, cache.DefaultBodyTTL)
			for _, slug := range res.Updated {
				bodies.InvalidatePost(ctx, slug)
			}
			vk.Close()
		} else {
			slog.Warn("valkey unavailable, cached bodies left to expire", "error", err)
		}
	}

	slog.Info("import finished",
		"dir", dir,
		"categories", res.Categories,
		"posts", res.Posts,
		"thumbnails", res.Thumbnails,
		"unchanged", res.Unchanged,
		"updated", res.Updated,
	)
	return nil
}
