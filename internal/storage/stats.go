package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// SaveStats appends a daily rollup row with one count per class.
func (t *sqliteTransaction) SaveStats(ctx context.Context, stats model.StatsRollup) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStats(stats); err != nil {
		return err
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO stats (date, articlecount) VALUES (?, ?)`,
		formatDate(stats.Date), stats.ArticleCount)
	if err != nil {
		return fmt.Errorf("failed to insert stats: %w", err)
	}
	statsID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read stats id: %w", err)
	}

	classes := make([]string, 0, len(stats.Counts))
	for class := range stats.Counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO stats_counts (stats_id, class, count) VALUES (?, ?, ?)`,
			statsID, class, stats.Counts[class]); err != nil {
			return fmt.Errorf("failed to insert count for %s: %w", class, err)
		}
	}
	return nil
}

// GetStats returns the count of class for each day in [from, to], oldest
// first. When a day has several rollups the latest one wins.
func (s *SQLiteStorage) GetStats(ctx context.Context, class string, from, to time.Time) ([]model.StatsPoint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(class, "class"); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRng, to, from)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.date, c.count
		FROM stats s
		JOIN stats_counts c ON c.stats_id = s.id
		WHERE c.class = ? AND s.date >= ? AND s.date <= ?
		AND s.id = (SELECT MAX(id) FROM stats WHERE date = s.date)
		ORDER BY s.date`,
		class, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []model.StatsPoint
	for rows.Next() {
		var (
			date  string
			point model.StatsPoint
		)
		if err := rows.Scan(&date, &point.Count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		if point.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}
