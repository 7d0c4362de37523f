// Package database opens the blog's PostgreSQL pool and applies the
// embedded goose migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Pool limits. The blog is read-mostly with short queries, so a small pool
// is enough even under load.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Connect opens a PostgreSQL pool and pings it. The ping is retried with
// a doubling delay for up to attempts tries, which covers a database
// container that is still starting; ctx cancels the wait.
func Connect(ctx context.Context, dsn string, attempts int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if attempts < 1 {
		attempts = 1
	}
	delay := 250 * time.Millisecond
	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if i == attempts {
			db.Close()
			return nil, fmt.Errorf("database ping after %d attempts: %w", attempts, err)
		}
		slog.Warn("database not ready, retrying", "attempt", i, "delay", delay.String(), "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("database ping: %w", ctx.Err())
		}
		delay *= 2
	}

	slog.Info("database connected")
	return db, nil
}

// Migrate applies pending migrations and returns the versions it applied,
// oldest first. An up-to-date schema returns an empty slice.
func Migrate(ctx context.Context, db *sql.DB) ([]int64, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}

	// The provider is not closed: Close would close db, which the caller owns.
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, res := range results {
		applied = append(applied, res.Source.Version)
		slog.Info("migration applied", "version", res.Source.Version, "file", res.Source.Path, "duration", res.Duration.String())
	}
	return applied, nil
}
