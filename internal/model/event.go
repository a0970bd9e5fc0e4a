package model

import "time"

// SnapshotMember is the last known membership of a page in a category.
type SnapshotMember struct {
	Date     time.Time
	Category string
	Page     string
}

// ChangeEvent is a write-once record of a membership transition.
type ChangeEvent struct {
	Date      time.Time
	Category  string
	Page      string
	Direction Direction
	// IsNewPage is only meaningful for additions.
	IsNewPage bool
}

// AttributedCause records the revision that inserted or removed a marker.
type AttributedCause struct {
	Timestamp  time.Time
	Class      string
	Action     Action
	Page       string
	User       string
	ID         int64
	RevisionID int64
}

// OverviewEntry is a page currently in a class together with the time it was
// last marked, if known.
type OverviewEntry struct {
	MarkedAt   time.Time
	Page       string
	RevisionID int64
	Tagged     bool
}
