package storage

import (
	"context"
	"fmt"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// GetSnapshotMembers returns the pages last seen in category.
func (s *SQLiteStorage) GetSnapshotMembers(ctx context.Context, category string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT page FROM catmembers WHERE category = ? ORDER BY page`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []string
	for rows.Next() {
		var page string
		if err := rows.Scan(&page); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// AddSnapshotMember records that a page is in a category. Re-adding an
// existing pair only refreshes its date.
func (t *sqliteTransaction) AddSnapshotMember(ctx context.Context, member model.SnapshotMember) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMember(member); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO catmembers (date, category, page) VALUES (?, ?, ?)
		ON CONFLICT (category, page) DO UPDATE SET date = excluded.date`,
		formatDate(member.Date), member.Category, member.Page)
	if err != nil {
		return fmt.Errorf("failed to add snapshot member: %w", err)
	}
	return nil
}

// DeleteSnapshotMember forgets a page's membership in a category.
func (t *sqliteTransaction) DeleteSnapshotMember(ctx context.Context, category, page string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if err := validateString(page, "page"); err != nil {
		return err
	}

	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM catmembers WHERE category = ? AND page = ?`, category, page); err != nil {
		return fmt.Errorf("failed to delete snapshot member: %w", err)
	}
	return nil
}
