// Package service defines the interfaces between the engine and its collaborators.
package service

import (
	"context"
	"iter"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// NamespaceAll disables namespace filtering in ListMembers.
const NamespaceAll = -1

// NamespaceMain is the article namespace.
const NamespaceMain = 0

// WikiSource is the read side of the wiki.
type WikiSource interface {
	// ListMembers returns the titles currently in category. A namespace of
	// NamespaceAll returns members from every namespace.
	ListMembers(ctx context.Context, category string, namespace int) ([]string, error)
	// RevisionsBackward yields a page's revisions newest first, starting at
	// startID when it is non-zero. Revisions are fetched lazily in batches.
	RevisionsBackward(ctx context.Context, page string, startID int64) iter.Seq2[model.Revision, error]
	// EarliestRevision returns the first revision of page.
	EarliestRevision(ctx context.Context, page string) (model.Revision, error)
	PageExists(ctx context.Context, page string) (bool, error)
	SiteStatistics(ctx context.Context) (model.SiteStatistics, error)
}

// TickerQuery selects attributed causes for an activity feed.
type TickerQuery struct {
	Fixed  []string
	Marked []string
	Limit  int
}

// Storage is the read side of the log plus transaction control.
type Storage interface {
	GetSnapshotMembers(ctx context.Context, category string) ([]string, error)
	GetChanges(ctx context.Context, category string, since time.Time) ([]model.ChangeEvent, error)
	GetTickerCauses(ctx context.Context, query TickerQuery) ([]model.AttributedCause, error)
	HasLaterMark(ctx context.Context, page, class string, after time.Time) (bool, error)
	GetPagesMissingCauses(ctx context.Context, class string, categories []string) ([]string, error)
	GetClassOverview(ctx context.Context, class string, categories []string) ([]model.OverviewEntry, error)
	// GetCauses lists a page's causes newest first; an empty class matches all.
	GetCauses(ctx context.Context, page, class string) ([]model.AttributedCause, error)
	GetStats(ctx context.Context, class string, from, to time.Time) ([]model.StatsPoint, error)

	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction is one unit of work against the log. Nothing is visible to
// other readers until Commit.
type Transaction interface {
	AddSnapshotMember(ctx context.Context, member model.SnapshotMember) error
	DeleteSnapshotMember(ctx context.Context, category, page string) error
	LogChange(ctx context.Context, event model.ChangeEvent) error
	LogCause(ctx context.Context, cause model.AttributedCause) error
	SaveStats(ctx context.Context, stats model.StatsRollup) error

	Commit() error
	Rollback() error
}
