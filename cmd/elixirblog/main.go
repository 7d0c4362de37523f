// Package main is the entry point for the blog server. The elixirblog
// binary serves the site by default and carries the maintenance commands
// (migrate, seed, import) next to it.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"elixirblog/internal/config"
	"elixirblog/internal/database"
	"elixirblog/internal/store"
)

// connectAttempts bounds how long startup waits for PostgreSQL.
const connectAttempts = 5

var (
	// Global flags
	verbose bool
	envFile string
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "elixirblog",
	Short: "Elixir 블로그 server",
	Long: `elixirblog serves the Elixir 블로그 site.

Configuration comes from environment variables, optionally read from a
.env file. Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotenv(envFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cmd.Context(), cfg.DSN(), connectAttempts)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		applied, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("migrations applied", "count", len(applied), "versions", applied)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the development sample posts (no-op when posts exist)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Seed(cmd.Context(), store.NewCategoryStore(db), store.NewPostStore(db))
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import categories and posts from a content directory",
	Long: `Import reads <dir>/categories.yaml and <dir>/posts/*.md (YAML front
matter followed by Markdown), validates everything, then upserts categories
and posts. Thumbnails are uploaded when object storage is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Read environment variables from this file if it exists")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns a structured logger: text in development, JSON
// everywhere else.
func newLogger(w io.Writer, env string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || env == "development" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if env == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Env, verbose))
	return cfg, nil
}

// openDatabase connects to PostgreSQL and applies pending migrations.
func openDatabase(ctx context.Context) (*config.Config, *sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(ctx, cfg.DSN(), connectAttempts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if _, err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return cfg, db, nil
}
