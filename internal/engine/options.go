package engine

import (
	"log/slog"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
)

// Default tuning values.
const (
	DefaultNewPageWindow = 7 * 24 * time.Hour
	DefaultMaxRevisions  = 500
	DefaultPacing        = time.Second
)

// PacingOff disables the pacing delay.
const PacingOff time.Duration = -1

// Options configures the watcher, classifier, scanner and runner.
type Options struct {
	// Sleep implements the pacing delay; nil waits on a timer.
	Sleep Sleeper
	// Now is the clock; nil uses time.Now.
	Now    Clock
	Logger *slog.Logger
	// Pacing is the fixed delay after each new-page lookup and each page scan.
	// Zero means DefaultPacing; PacingOff or any negative value disables it.
	Pacing time.Duration
	// NewPageWindow is how recently a page must have been created to count
	// as new.
	NewPageWindow time.Duration
	// MaxRevisions bounds the backward scan of one page.
	MaxRevisions int
	// DryRun performs every read but rolls back every write.
	DryRun bool
	// ArticlesOnly restricts live membership to the article namespace.
	ArticlesOnly bool
}

func (o Options) withDefaults() Options {
	if o.Sleep == nil {
		o.Sleep = common.SleepContext
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Logger = common.LoggerOrDefault(o.Logger)
	switch {
	case o.Pacing == 0:
		o.Pacing = DefaultPacing
	case o.Pacing < 0:
		o.Pacing = 0
	}
	if o.NewPageWindow <= 0 {
		o.NewPageWindow = DefaultNewPageWindow
	}
	if o.MaxRevisions <= 0 {
		o.MaxRevisions = DefaultMaxRevisions
	}
	return o
}
