package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"elixirblog/internal/blog"
	"elixirblog/internal/cache"
	"elixirblog/internal/config"
	"elixirblog/internal/database"
	"elixirblog/internal/handlers"
	"elixirblog/internal/middleware"
	"elixirblog/internal/render"
	"elixirblog/internal/router"
	"elixirblog/internal/session"
	"elixirblog/internal/storage"
	"elixirblog/internal/store"
	"elixirblog/internal/subscribe"
)

// runServe connects to services, sets up routing, and runs the HTTP
// server until SIGINT or SIGTERM.
func runServe(ctx context.Context) error {
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"trust_proxy", cfg.TrustProxy,
	)

	// Seed development data (no-op if posts already exist).
	if cfg.IsDev() {
		if err := database.Seed(ctx, store.NewCategoryStore(db), store.NewPostStore(db)); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	// Connect to Valkey (sessions + rendered body cache).
	valkeyClient, err := cache.ConnectValkey(ctx, valkeyOptions(cfg))
	if err != nil {
		return fmt.Errorf("connect to valkey: %w", err)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Object storage is optional; without it thumbnails are hidden.
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3BucketPublic, cfg.S3PublicURL,
	)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	var assetURL func(string) string
	csp := middleware.CSPOptions{Dev: cfg.IsDev()}
	if storageClient != nil {
		assetURL = storageClient.FileURL
		csp.ImageOrigins = append(csp.ImageOrigins, storageClient.FileURL(""))
		slog.Info("s3 storage configured", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, thumbnails disabled")
	}

	renderer, err := render.New(render.Options{
		DevMode:  cfg.IsDev(),
		SiteName: cfg.SiteName,
		AssetURL: assetURL,
	})
	if err != nil {
		return fmt.Errorf("initialize template renderer: %w", err)
	}

	public := handlers.NewPublic(
		renderer,
		blog.NewSelector(store.NewCatalog(db)),
		cache.NewBodyCache(valkeyClient, cache.DefaultBodyTTL),
		sessionStore,
		subscribe.NewService(store.NewSubscriberStore(db)),
		assetURL,
	)

	limiter := middleware.NewRateLimiter(cfg.SubscribeRateLimit, time.Minute)
	defer limiter.Stop()

	r := router.New(sessionStore, public, router.Options{
		SecureCookies:         secureCookies,
		TrustProxy:            cfg.TrustProxy,
		ContentSecurityPolicy: middleware.ContentSecurityPolicy(csp),
		SubscribeLimiter:      limiter,
		Health:                db,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func valkeyOptions(cfg *config.Config) cache.ValkeyOptions {
	return cache.ValkeyOptions{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	}
}
