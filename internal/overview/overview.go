// Package overview lists the pages currently in each maintenance class
// together with when they were marked.
package overview

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/config"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// ClassOverview is the backlog of one class.
type ClassOverview struct {
	Class string
	// Untagged pages have no recorded mark, sorted by title.
	Untagged []model.OverviewEntry
	// Tagged pages are sorted oldest mark first.
	Tagged []model.OverviewEntry
}

// Entries returns the untagged pages followed by the tagged ones.
func (c ClassOverview) Entries() []model.OverviewEntry {
	out := make([]model.OverviewEntry, 0, len(c.Untagged)+len(c.Tagged))
	out = append(out, c.Untagged...)
	return append(out, c.Tagged...)
}

// Oldest returns up to n of the longest-marked pages, oldest first.
func (c ClassOverview) Oldest(n int) []model.OverviewEntry {
	return c.Tagged[:min(n, len(c.Tagged))]
}

// Newest returns up to n of the most recently marked pages, newest first.
func (c ClassOverview) Newest(n int) []model.OverviewEntry {
	n = min(n, len(c.Tagged))
	out := make([]model.OverviewEntry, 0, n)
	for i := len(c.Tagged) - 1; i >= len(c.Tagged)-n; i-- {
		out = append(out, c.Tagged[i])
	}
	return out
}

// Builder assembles class overviews from the log.
type Builder struct {
	storage service.Storage
	logger  *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(storage service.Storage, logger *slog.Logger) *Builder {
	return &Builder{storage: storage, logger: common.LoggerOrDefault(logger)}
}

// Build returns one overview per class, in class order.
func (b *Builder) Build(ctx context.Context, classes config.Classes) ([]ClassOverview, error) {
	out := make([]ClassOverview, 0, classes.Len())
	for _, class := range classes.All() {
		ov, err := b.BuildClass(ctx, class)
		if err != nil {
			return nil, err
		}
		out = append(out, ov)
	}
	return out, nil
}

// BuildClass returns the overview of a single class.
func (b *Builder) BuildClass(ctx context.Context, class model.CategoryClass) (ClassOverview, error) {
	entries, err := b.storage.GetClassOverview(ctx, class.Name, class.Categories)
	if err != nil {
		return ClassOverview{}, fmt.Errorf("failed to build overview of %s: %w", class.Name, err)
	}

	ov := ClassOverview{Class: class.Name}
	for _, e := range entries {
		if e.Tagged {
			ov.Tagged = append(ov.Tagged, e)
		} else {
			ov.Untagged = append(ov.Untagged, e)
		}
	}
	sort.SliceStable(ov.Tagged, func(i, j int) bool {
		return ov.Tagged[i].MarkedAt.Before(ov.Tagged[j].MarkedAt)
	})

	b.logger.Info("class overview", "class", class.Name, "tagged", len(ov.Tagged), "untagged", len(ov.Untagged))
	return ov, nil
}
