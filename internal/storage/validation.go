package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrInvalidEvent   = errors.New("invalid change event")
	ErrInvalidCause   = errors.New("invalid attributed cause")
	ErrInvalidStats   = errors.New("invalid stats rollup")
	ErrInvalidLimit   = errors.New("limit must be positive")
	ErrInvalidDateRng = errors.New("start date must be before end date")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateMember(m model.SnapshotMember) error {
	if err := validateString(m.Category, "category"); err != nil {
		return err
	}
	if err := validateString(m.Page, "page"); err != nil {
		return err
	}
	if m.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEvent)
	}
	return nil
}

func validateChangeEvent(e model.ChangeEvent) error {
	if strings.TrimSpace(e.Category) == "" || strings.TrimSpace(e.Page) == "" {
		return fmt.Errorf("%w: missing category or page", ErrInvalidEvent)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEvent)
	}
	switch e.Direction {
	case model.DirectionAdded:
	case model.DirectionRemoved:
		if e.IsNewPage {
			return fmt.Errorf("%w: removal cannot be a new page", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidEvent, e.Direction)
	}
	return nil
}

func validateCause(c model.AttributedCause) error {
	if strings.TrimSpace(c.Class) == "" || strings.TrimSpace(c.Page) == "" {
		return fmt.Errorf("%w: missing class or page", ErrInvalidCause)
	}
	if !c.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidCause, c.Action)
	}
	if c.RevisionID <= 0 {
		return fmt.Errorf("%w: missing revision", ErrInvalidCause)
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidCause)
	}
	return nil
}

func validateStats(s model.StatsRollup) error {
	if s.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidStats)
	}
	if s.ArticleCount < 0 {
		return fmt.Errorf("%w: negative article count", ErrInvalidStats)
	}
	for class, n := range s.Counts {
		if strings.TrimSpace(class) == "" || n < 0 {
			return fmt.Errorf("%w: bad count for class %q", ErrInvalidStats, class)
		}
	}
	return nil
}
