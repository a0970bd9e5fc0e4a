// Package testutil provides shared fixtures for catwatch tests: a migrated
// in-memory log database and a fluent builder for page histories.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
	"github.com/DiFronzo/CatWatchBot2.0/internal/storage"
)

// TestDB is a migrated in-memory log database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates an in-memory database and closes it when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// WithTransaction runs fn in a transaction and commits it, failing the test
// on any error.
func (db *TestDB) WithTransaction(fn func(ctx context.Context, tx service.Transaction) error) {
	db.t.Helper()
	ctx := context.Background()

	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		db.t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		db.t.Fatalf("transaction failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		db.t.Fatalf("failed to commit: %v", err)
	}
}

// SeedSnapshot records pages as current members of category.
func (db *TestDB) SeedSnapshot(date time.Time, category string, pages ...string) {
	db.t.Helper()
	db.WithTransaction(func(ctx context.Context, tx service.Transaction) error {
		for _, page := range pages {
			member := model.SnapshotMember{Date: date, Category: category, Page: page}
			if err := tx.AddSnapshotMember(ctx, member); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedCauses logs the given causes.
func (db *TestDB) SeedCauses(causes ...model.AttributedCause) {
	db.t.Helper()
	db.WithTransaction(func(ctx context.Context, tx service.Transaction) error {
		for _, c := range causes {
			if err := tx.LogCause(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot returns the snapshot members of category.
func (db *TestDB) Snapshot(category string) []string {
	db.t.Helper()
	pages, err := db.Storage.GetSnapshotMembers(context.Background(), category)
	if err != nil {
		db.t.Fatalf("failed to read snapshot: %v", err)
	}
	return pages
}

// Causes returns every cause logged for page, newest first.
func (db *TestDB) Causes(page string) []model.AttributedCause {
	db.t.Helper()
	causes, err := db.Storage.GetCauses(context.Background(), page, "")
	if err != nil {
		db.t.Fatalf("failed to read causes: %v", err)
	}
	return causes
}

// Changes returns every change event logged for category.
func (db *TestDB) Changes(category string) []model.ChangeEvent {
	db.t.Helper()
	events, err := db.Storage.GetChanges(context.Background(), category, time.Time{})
	if err != nil {
		db.t.Fatalf("failed to read changes: %v", err)
	}
	return events
}
