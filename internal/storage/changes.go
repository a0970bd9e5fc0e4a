package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// LogChange appends a membership transition to the change ledger.
func (t *sqliteTransaction) LogChange(ctx context.Context, event model.ChangeEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateChangeEvent(event); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO catlog (date, category, page, added, new) VALUES (?, ?, ?, ?, ?)`,
		formatDate(event.Date), event.Category, event.Page,
		boolToInt(event.Direction == model.DirectionAdded), boolToInt(event.IsNewPage))
	if err != nil {
		return fmt.Errorf("failed to log change: %w", err)
	}
	return nil
}

// GetChanges returns the ledger entries for category dated on or after since,
// oldest first. An empty category matches all categories.
func (s *SQLiteStorage) GetChanges(ctx context.Context, category string, since time.Time) ([]model.ChangeEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT date, category, page, added, new FROM catlog WHERE date >= ?`
	args := []any{formatDate(since)}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.ChangeEvent
	for rows.Next() {
		var (
			date         string
			added, isNew int
			event        model.ChangeEvent
		)
		if err := rows.Scan(&date, &event.Category, &event.Page, &added, &isNew); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		if event.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		event.Direction = model.DirectionRemoved
		if added == 1 {
			event.Direction = model.DirectionAdded
		}
		event.IsNewPage = isNew == 1
		events = append(events, event)
	}
	return events, rows.Err()
}
