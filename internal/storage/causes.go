package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

const causeColumns = `id, date, category, action, page, user, revision`

// LogCause appends an attributed cause. Duplicates are not rejected; callers
// needing idempotence de-duplicate on (page, class, action, revision).
func (t *sqliteTransaction) LogCause(ctx context.Context, cause model.AttributedCause) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCause(cause); err != nil {
		return err
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO cleanlog (date, category, action, page, user, revision) VALUES (?, ?, ?, ?, ?, ?)`,
		formatTimestamp(cause.Timestamp), cause.Class, string(cause.Action), cause.Page, cause.User, cause.RevisionID)
	if err != nil {
		return fmt.Errorf("failed to log cause: %w", err)
	}
	return nil
}

// GetTickerCauses returns the most recent causes matching query, one per
// (action, class, page), newest first. When both class lists are empty every
// cause is eligible.
func (s *SQLiteStorage) GetTickerCauses(ctx context.Context, query service.TickerQuery) ([]model.AttributedCause, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if query.Limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var (
		clauses []string
		args    []any
	)
	if len(query.Fixed) > 0 {
		clauses = append(clauses, fmt.Sprintf(`(action = 'fikset' AND category IN (%s))`, placeholders(len(query.Fixed))))
		args = appendStrings(args, query.Fixed)
	}
	if len(query.Marked) > 0 {
		clauses = append(clauses, fmt.Sprintf(`(action = 'merket' AND category IN (%s))`, placeholders(len(query.Marked))))
		args = appendStrings(args, query.Marked)
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " OR ")
	}

	// #nosec G201 - only placeholders are interpolated
	q := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY action, category, page ORDER BY date DESC, id DESC
			) AS rn
			FROM cleanlog %s
		) WHERE rn = 1
		ORDER BY date DESC, id DESC
		LIMIT ?`, causeColumns, where)
	args = append(args, query.Limit)

	return s.queryCauses(ctx, q, args...)
}

// HasLaterMark reports whether page was marked for class strictly after the
// given time.
func (s *SQLiteStorage) HasLaterMark(ctx context.Context, page, class string, after time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cleanlog
			WHERE page = ? AND category = ? AND action = 'merket' AND date > ?
		)`, page, class, formatTimestamp(after)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up later mark: %w", err)
	}
	return exists, nil
}

// GetPagesMissingCauses returns snapshot pages in any of categories that have
// no cause at all logged for class.
func (s *SQLiteStorage) GetPagesMissingCauses(ctx context.Context, class string, categories []string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}

	// #nosec G201 - only placeholders are interpolated
	q := fmt.Sprintf(`
		SELECT DISTINCT m.page FROM catmembers m
		WHERE m.category IN (%s)
		AND NOT EXISTS (SELECT 1 FROM cleanlog c WHERE c.page = m.page AND c.category = ?)
		ORDER BY m.page`, placeholders(len(categories)))
	args := appendStrings(nil, categories)
	args = append(args, class)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages missing causes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []string
	for rows.Next() {
		var page string
		if err := rows.Scan(&page); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// GetClassOverview lists the snapshot pages of a class with their most recent
// mark, ordered by title.
func (s *SQLiteStorage) GetClassOverview(ctx context.Context, class string, categories []string) ([]model.OverviewEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}

	// #nosec G201 - only placeholders are interpolated
	q := fmt.Sprintf(`
		SELECT m.page, c.date, c.revision
		FROM (SELECT DISTINCT page FROM catmembers WHERE category IN (%s)) m
		LEFT JOIN cleanlog c ON c.id = (
			SELECT id FROM cleanlog
			WHERE page = m.page AND category = ? AND action = 'merket'
			ORDER BY date DESC, id DESC LIMIT 1
		)
		ORDER BY m.page`, placeholders(len(categories)))
	args := appendStrings(nil, categories)
	args = append(args, class)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overview: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.OverviewEntry
	for rows.Next() {
		var (
			entry    model.OverviewEntry
			date     sql.NullString
			revision sql.NullInt64
		)
		if err := rows.Scan(&entry.Page, &date, &revision); err != nil {
			return nil, fmt.Errorf("failed to scan overview row: %w", err)
		}
		if date.Valid {
			if entry.MarkedAt, err = parseTimestamp(date.String); err != nil {
				return nil, err
			}
			entry.Tagged = true
			entry.RevisionID = revision.Int64
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetCauses lists every cause logged for page, newest first.
func (s *SQLiteStorage) GetCauses(ctx context.Context, page, class string) ([]model.AttributedCause, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(page, "page"); err != nil {
		return nil, err
	}

	q := `SELECT ` + causeColumns + ` FROM cleanlog WHERE page = ?`
	args := []any{page}
	if class != "" {
		q += ` AND category = ?`
		args = append(args, class)
	}
	q += ` ORDER BY date DESC, id DESC`

	return s.queryCauses(ctx, q, args...)
}

func (s *SQLiteStorage) queryCauses(ctx context.Context, query string, args ...any) ([]model.AttributedCause, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query causes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var causes []model.AttributedCause
	for rows.Next() {
		var (
			cause  model.AttributedCause
			date   string
			action string
		)
		if err := rows.Scan(&cause.ID, &date, &cause.Class, &action, &cause.Page, &cause.User, &cause.RevisionID); err != nil {
			return nil, fmt.Errorf("failed to scan cause row: %w", err)
		}
		if cause.Timestamp, err = parseTimestamp(date); err != nil {
			return nil, err
		}
		cause.Action = model.Action(action)
		causes = append(causes, cause)
	}
	return causes, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func appendStrings(args []any, values []string) []any {
	for _, v := range values {
		args = append(args, v)
	}
	return args
}
