package model

import (
	"fmt"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
)

// Revision is one entry of a page's edit history.
type Revision struct {
	Timestamp time.Time
	User      string
	Text      string
	ID        int64
	// ParentID is zero for the first revision of a page.
	ParentID   int64
	TextHidden bool
	UserHidden bool
}

// Hidden reports whether the revision's text or author has been suppressed.
func (r Revision) Hidden() bool {
	return r.TextHidden || r.UserHidden
}

// Content returns the revision text, or common.ErrRevisionHidden when the
// revision has been suppressed.
func (r Revision) Content() (string, error) {
	if r.Hidden() {
		return "", fmt.Errorf("revision %d: %w", r.ID, common.ErrRevisionHidden)
	}
	return r.Text, nil
}

// IsFirst reports whether no earlier revision exists.
func (r Revision) IsFirst() bool {
	return r.ParentID == 0
}

// SiteStatistics holds the global counters reported by the wiki.
type SiteStatistics struct {
	Articles int
	Pages    int
	Edits    int
	Users    int
}
