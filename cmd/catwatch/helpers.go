package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/config"
	"github.com/DiFronzo/CatWatchBot2.0/internal/engine"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/storage"
	"github.com/DiFronzo/CatWatchBot2.0/internal/wiki"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// loadConfig reads the effective configuration from viper.
func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	config.SetDefaults(v)
	return config.Load(v)
}

// initStorage opens the log database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// closeStorage closes store, logging failures.
func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}

// lookupClass returns the named class or an error listing the known ones.
func lookupClass(classes config.Classes, name string) (model.CategoryClass, error) {
	class, ok := classes.Lookup(name)
	if !ok {
		return model.CategoryClass{}, fmt.Errorf("%w: unknown class %q (known: %s)",
			common.ErrInvalidConfig, name, strings.Join(classes.Names(), ", "))
	}
	return class, nil
}

// runLogger returns the default logger tagged with a fresh run id, shared by
// the wiki client and the engine of one command.
func runLogger() *slog.Logger {
	return slog.Default().With("run_id", uuid.NewString())
}

func newWikiClient(cfg *config.Config, logger *slog.Logger) (*wiki.Client, error) {
	return wiki.NewClient(wiki.Config{
		APIURL:            cfg.Wiki.APIURL,
		UserAgent:         cfg.Wiki.UserAgent,
		Timeout:           cfg.Wiki.Timeout,
		RequestsPerSecond: cfg.Wiki.RequestsPerSecond,
		MaxLag:            cfg.Wiki.MaxLag,
		RetryAttempts:     cfg.Wiki.RetryAttempts,
		BatchSize:         cfg.Scan.BatchSize,
	}, wiki.WithLogger(logger))
}

// engineOptions maps the configuration onto engine options. A configured
// pacing delay of zero turns pacing off.
func engineOptions(cfg *config.Config, logger *slog.Logger, dryRun, articlesOnly bool) engine.Options {
	pacing := cfg.Pacing
	if pacing == 0 {
		pacing = engine.PacingOff
	}
	return engine.Options{
		Logger:        logger,
		Pacing:        pacing,
		NewPageWindow: cfg.NewPageWindow,
		MaxRevisions:  cfg.Scan.MaxRevisions,
		DryRun:        dryRun,
		ArticlesOnly:  articlesOnly,
	}
}
