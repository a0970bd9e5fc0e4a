// Package ticker builds the recent-activity feed from the attributed-cause
// log.
package ticker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// DefaultIndexURL is the script path used for diff links.
const DefaultIndexURL = "https://no.wikipedia.org/w/index.php"

// Query selects the causes shown in a feed. When both lists are empty every
// class is shown for both actions.
type Query struct {
	Fixed  []string
	Marked []string
	Limit  int
}

// Entry is one line of the feed.
type Entry struct {
	Cause   model.AttributedCause
	DiffURL string
	// Superseded marks a fix that was followed by a new mark of the same
	// page and class.
	Superseded bool
}

// Bucket groups the entries of one calendar day.
type Bucket struct {
	Day     time.Time
	Label   string
	Entries []Entry
}

// Aggregator builds feeds.
type Aggregator struct {
	storage  service.Storage
	logger   *slog.Logger
	indexURL string
}

// NewAggregator creates an Aggregator linking diffs under indexURL.
func NewAggregator(storage service.Storage, indexURL string, logger *slog.Logger) *Aggregator {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	return &Aggregator{
		storage:  storage,
		logger:   common.LoggerOrDefault(logger),
		indexURL: indexURL,
	}
}

// Build returns the newest causes matching q, one per (action, class, page),
// grouped into day buckets. Buckets and the entries inside them are newest
// first.
func (a *Aggregator) Build(ctx context.Context, q Query) ([]Bucket, error) {
	causes, err := a.storage.GetTickerCauses(ctx, service.TickerQuery{
		Fixed:  q.Fixed,
		Marked: q.Marked,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ticker causes: %w", err)
	}

	var buckets []Bucket
	for _, cause := range causes {
		entry := Entry{
			Cause:   cause,
			DiffURL: DiffURL(a.indexURL, cause.Page, cause.RevisionID),
		}
		if cause.Action == model.ActionFixed {
			later, err := a.storage.HasLaterMark(ctx, cause.Page, cause.Class, cause.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("failed to check supersession of %s: %w", cause.Page, err)
			}
			entry.Superseded = later
		}

		day := truncateDay(cause.Timestamp)
		if n := len(buckets); n == 0 || !buckets[n-1].Day.Equal(day) {
			buckets = append(buckets, Bucket{Day: day, Label: DayLabel(day)})
		}
		last := &buckets[len(buckets)-1]
		last.Entries = append(last.Entries, entry)
	}

	a.logger.Debug("built ticker", "causes", len(causes), "days", len(buckets))
	return buckets, nil
}

// DiffURL links to the change a revision made.
func DiffURL(indexURL, title string, revisionID int64) string {
	v := url.Values{}
	v.Set("title", title)
	v.Set("diff", "prev")
	v.Set("oldid", strconv.FormatInt(revisionID, 10))
	return indexURL + "?" + v.Encode()
}

// IndexURL derives the index.php script path from an api.php URL.
func IndexURL(apiURL string) string {
	if base, ok := strings.CutSuffix(apiURL, "api.php"); ok {
		return base + "index.php"
	}
	return DefaultIndexURL
}

var monthAbbrev = [...]string{"jan", "feb", "mar", "apr", "mai", "jun", "jul", "aug", "sep", "okt", "nov", "des"}

// DayLabel formats a day the way the feed headings show it, for example
// "14. mai" or " 3. des".
func DayLabel(day time.Time) string {
	return fmt.Sprintf("%2d. %s", day.Day(), monthAbbrev[day.Month()-1])
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
