package model

import "time"

// StatsRollup is the daily member count per category class.
type StatsRollup struct {
	Date         time.Time
	Counts       map[string]int
	ArticleCount int
}

// StatsPoint is one dated count for a single class.
type StatsPoint struct {
	Date  time.Time
	Count int
}
