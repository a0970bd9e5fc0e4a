package testutil

import (
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// HistoryBuilder assembles a page history oldest first, the way it was
// written, and returns it newest first, the way the wiki serves it.
//
// Example:
//
//	revs := testutil.NewHistory(100, start).
//		Edit("Alice", "{{opprydning}} Tekst").
//		Edit("Bob", "Tekst").
//		Build()
type HistoryBuilder struct {
	start  time.Time
	revs   []model.Revision
	nextID int64
}

// NewHistory starts a history whose first revision has id firstID and is
// saved at start. Each further edit is one hour later.
func NewHistory(firstID int64, start time.Time) *HistoryBuilder {
	return &HistoryBuilder{nextID: firstID, start: start}
}

// Edit appends a visible revision.
func (b *HistoryBuilder) Edit(user, text string) *HistoryBuilder {
	return b.add(model.Revision{User: user, Text: text})
}

// HiddenUser appends a revision whose author has been suppressed.
func (b *HistoryBuilder) HiddenUser(text string) *HistoryBuilder {
	return b.add(model.Revision{Text: text, UserHidden: true})
}

// HiddenText appends a revision whose content has been suppressed.
func (b *HistoryBuilder) HiddenText(user string) *HistoryBuilder {
	return b.add(model.Revision{User: user, TextHidden: true})
}

func (b *HistoryBuilder) add(rev model.Revision) *HistoryBuilder {
	rev.ID = b.nextID
	if len(b.revs) > 0 {
		rev.ParentID = b.revs[len(b.revs)-1].ID
	}
	rev.Timestamp = b.start.Add(time.Duration(len(b.revs)) * time.Hour)
	b.revs = append(b.revs, rev)
	b.nextID++
	return b
}

// Build returns the history newest first.
func (b *HistoryBuilder) Build() []model.Revision {
	out := make([]model.Revision, len(b.revs))
	for i, rev := range b.revs {
		out[len(b.revs)-1-i] = rev
	}
	return out
}

// Latest returns the newest revision built so far.
func (b *HistoryBuilder) Latest() model.Revision {
	return b.revs[len(b.revs)-1]
}
