// Package engine detects category membership changes and attributes each one
// to the revision that caused it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// DiffResult is the outcome of one category diff.
type DiffResult struct {
	Category string
	// Additions and Removals are sorted by title.
	Additions []string
	Removals  []string
	// NewPages holds the additions classified as recently created.
	NewPages []string
	// Count is the live member count.
	Count int
	// Seeding is set when the category had no snapshot before this run.
	Seeding bool
}

// Before returns the member count recorded by the previous run.
func (r *DiffResult) Before() int {
	return r.Count - len(r.Additions) + len(r.Removals)
}

// Watcher diffs live category membership against the stored snapshot.
type Watcher struct {
	source     service.WikiSource
	storage    service.Storage
	classifier *NewPageClassifier
	sleep      Sleeper
	now        Clock
	logger     *slog.Logger
	opts       Options
}

// NewWatcher creates a Watcher.
func NewWatcher(source service.WikiSource, storage service.Storage, opts Options) *Watcher {
	opts = opts.withDefaults()
	return &Watcher{
		source:     source,
		storage:    storage,
		classifier: NewNewPageClassifier(source, opts),
		sleep:      opts.Sleep,
		now:        opts.Now,
		logger:     opts.Logger,
		opts:       opts,
	}
}

// Diff compares category's live members with its snapshot, records the
// difference in the change ledger and brings the snapshot up to date. All
// writes for the category are committed together, or rolled back in a dry
// run.
func (w *Watcher) Diff(ctx context.Context, category string) (*DiffResult, error) {
	prior, err := w.storage.GetSnapshotMembers(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot of %s: %w", category, err)
	}

	namespace := service.NamespaceAll
	if w.opts.ArticlesOnly {
		namespace = service.NamespaceMain
	}
	live, err := w.source.ListMembers(ctx, category, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", category, err)
	}

	additions, removals := diffSets(prior, live)
	result := &DiffResult{
		Category:  category,
		Additions: additions,
		Removals:  removals,
		Count:     len(setOf(live)),
		Seeding:   len(prior) == 0 && len(additions) > 0,
	}

	if result.Seeding {
		w.logger.Info("first run for category, seeding snapshot without page checks",
			"category", category, "members", len(additions))
	}

	isNew := make(map[string]bool, len(additions))
	if !result.Seeding {
		for _, page := range additions {
			if w.classifier.IsNew(ctx, page) {
				isNew[page] = true
				result.NewPages = append(result.NewPages, page)
			}
			if err := w.sleep(ctx, w.opts.Pacing); err != nil {
				return nil, err
			}
		}
	}

	if err := w.record(ctx, result, isNew); err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Watcher) record(ctx context.Context, result *DiffResult, isNew map[string]bool) (err error) {
	if len(result.Additions) == 0 && len(result.Removals) == 0 {
		return nil
	}

	tx, err := w.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", result.Category, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	date := w.now()
	for _, page := range result.Removals {
		event := model.ChangeEvent{
			Date:      date,
			Category:  result.Category,
			Page:      page,
			Direction: model.DirectionRemoved,
		}
		if err = tx.LogChange(ctx, event); err != nil {
			return err
		}
		if err = tx.DeleteSnapshotMember(ctx, result.Category, page); err != nil {
			return err
		}
	}

	for _, page := range result.Additions {
		member := model.SnapshotMember{Date: date, Category: result.Category, Page: page}
		if err = tx.AddSnapshotMember(ctx, member); err != nil {
			return err
		}
		event := model.ChangeEvent{
			Date:      date,
			Category:  result.Category,
			Page:      page,
			Direction: model.DirectionAdded,
			IsNewPage: isNew[page],
		}
		if err = tx.LogChange(ctx, event); err != nil {
			return err
		}
	}

	if w.opts.DryRun {
		w.logger.Debug("dry run, discarding category changes", "category", result.Category)
		return tx.Rollback()
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit changes for %s: %w", result.Category, err)
	}
	return nil
}

// diffSets returns live minus prior and prior minus live, each sorted.
func diffSets(prior, live []string) (additions, removals []string) {
	priorSet := setOf(prior)
	liveSet := setOf(live)

	for page := range liveSet {
		if !priorSet[page] {
			additions = append(additions, page)
		}
	}
	for page := range priorSet {
		if !liveSet[page] {
			removals = append(removals, page)
		}
	}
	slices.Sort(additions)
	slices.Sort(removals)
	return additions, removals
}

func setOf(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
