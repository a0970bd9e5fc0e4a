package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// NewPageClassifier decides whether a page was created recently.
type NewPageClassifier struct {
	source service.WikiSource
	now    Clock
	logger *slog.Logger
	window time.Duration
}

// NewNewPageClassifier creates a classifier using opts.NewPageWindow.
func NewNewPageClassifier(source service.WikiSource, opts Options) *NewPageClassifier {
	opts = opts.withDefaults()
	return &NewPageClassifier{
		source: source,
		now:    opts.Now,
		logger: opts.Logger,
		window: opts.NewPageWindow,
	}
}

// IsNew reports whether page's first revision falls within the trailing
// window. Lookup failures are not propagated: such a page is not new.
func (c *NewPageClassifier) IsNew(ctx context.Context, page string) bool {
	first, err := c.source.EarliestRevision(ctx, page)
	if err != nil {
		c.logger.Debug("new-page lookup failed, treating as not new", "page", page, "error", err)
		return false
	}
	return first.Timestamp.After(c.now().Add(-c.window))
}
