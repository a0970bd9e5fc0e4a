package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// ScanState is the state of the backward revision walk for one page.
type ScanState int

// Scan states. Every state other than StateScanning is terminal.
const (
	// StateScanning is the initial state: revisions are being inspected.
	StateScanning ScanState = iota
	// StateFoundMarkerChange means the causal revision was found and logged.
	StateFoundMarkerChange
	// StateFoundRedirect means the page was a redirect at some point in the
	// walk. Nothing is logged.
	StateFoundRedirect
	// StateExhausted means the page no longer exists.
	StateExhausted
	// StateTaggedFromBeginning means the page has been in its current state
	// since its first revision.
	StateTaggedFromBeginning
	// StateNoCausalRevision means the history ran out, or the revision bound
	// was reached, before the marker changed.
	StateNoCausalRevision
	// StateNoMarkerChange means the newest readable revision already
	// contradicts the membership change, so membership came from elsewhere
	// (a transcluded template, for example).
	StateNoMarkerChange
	// StateFailed means an upstream error aborted the walk.
	StateFailed
)

var scanStateNames = map[ScanState]string{
	StateScanning:            "scanning",
	StateFoundMarkerChange:   "found_marker_change",
	StateFoundRedirect:       "found_redirect",
	StateExhausted:           "exhausted",
	StateTaggedFromBeginning: "tagged_from_beginning",
	StateNoCausalRevision:    "no_causal_revision",
	StateNoMarkerChange:      "no_marker_change",
	StateFailed:              "failed",
}

func (s ScanState) String() string {
	if name, ok := scanStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ScanState(%d)", int(s))
}

// ScanResult is the terminal outcome of a page scan.
type ScanResult struct {
	// Cause is set only in StateFoundMarkerChange.
	Cause *model.AttributedCause
	// Err is the upstream error for StateFailed.
	Err     error
	Page    string
	Action  model.Action
	Class   string
	State   ScanState
	Checked int
}

// redirectPattern matches the English and Norwegian redirect magic words.
var redirectPattern = regexp.MustCompile(`(?i)#(?:REDIRECT|OMDIRIGERING)\s*\[\[`)

// MarkerPattern returns the case-insensitive expression matching a template
// call of any of markers: "{{name" followed by optional whitespace and then
// "|" or "}}".
func MarkerPattern(markers []string) *regexp.Regexp {
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return regexp.MustCompile(`(?i)\{\{(?:` + strings.Join(quoted, "|") + `)\s*(?:\||\}\})`)
}

// Scanner walks a page's history backward to find the revision that added
// or removed one of a class's markers.
type Scanner struct {
	source       service.WikiSource
	storage      service.Storage
	sleep        Sleeper
	logger       *slog.Logger
	patterns     map[string]*regexp.Regexp
	pacing       time.Duration
	maxRevisions int
	dryRun       bool
}

// NewScanner creates a Scanner.
func NewScanner(source service.WikiSource, storage service.Storage, opts Options) *Scanner {
	opts = opts.withDefaults()
	return &Scanner{
		source:       source,
		storage:      storage,
		sleep:        opts.Sleep,
		logger:       opts.Logger,
		patterns:     make(map[string]*regexp.Regexp),
		pacing:       opts.Pacing,
		maxRevisions: opts.MaxRevisions,
		dryRun:       opts.DryRun,
	}
}

// walk holds the mutable state of one scan.
type walk struct {
	marker  *regexp.Regexp
	lastRev *model.Revision
	action  model.Action
	state   ScanState
	checked int
}

// step inspects one revision and returns the resulting state.
func (w *walk) step(rev model.Revision) ScanState {
	w.checked++

	text, err := rev.Content()
	if err != nil {
		// A suppressed first revision still ends the history.
		if rev.IsFirst() && w.lastRev != nil {
			return StateTaggedFromBeginning
		}
		return StateScanning
	}
	if redirectPattern.MatchString(text) {
		w.lastRev = nil
		return StateFoundRedirect
	}

	present := w.marker.MatchString(text)
	// A fix is found at the newest revision still carrying the marker; a mark
	// at the newest revision without it.
	if present == (w.action == model.ActionFixed) {
		if w.lastRev == nil {
			return StateNoMarkerChange
		}
		return StateFoundMarkerChange
	}

	r := rev
	w.lastRev = &r
	if rev.IsFirst() {
		return StateTaggedFromBeginning
	}
	return StateScanning
}

// Scan attributes action on page to a revision and logs it as a cause of
// class. Upstream failures end in StateFailed and are not returned; the
// returned error reports storage failures only. Scan always waits for the
// pacing delay before returning.
func (s *Scanner) Scan(ctx context.Context, page string, action model.Action, class model.CategoryClass) (ScanResult, error) {
	defer func() {
		_ = s.sleep(ctx, s.pacing)
	}()

	result := ScanResult{Page: page, Action: action, Class: class.Name, State: StateScanning}
	logger := s.logger.With("page", page, "action", string(action), "class", class.Name)

	exists, err := s.source.PageExists(ctx, page)
	if err != nil {
		result.State, result.Err = StateFailed, err
		logger.Warn("page lookup failed", "error", err)
		return result, nil
	}
	if !exists {
		result.State = StateExhausted
		logger.Info("page does not exist (deleted?)")
		return result, nil
	}

	w := &walk{marker: s.pattern(class), action: action, state: StateScanning}
	for rev, revErr := range s.source.RevisionsBackward(ctx, page, 0) {
		if revErr != nil {
			if errors.Is(revErr, common.ErrPageNotFound) {
				w.state = StateExhausted
			} else {
				w.state, result.Err = StateFailed, revErr
			}
			break
		}
		logger.Debug("checking revision", "revision", rev.ID)
		if w.state = w.step(rev); w.state != StateScanning {
			break
		}
		if w.checked >= s.maxRevisions {
			break
		}
	}
	if w.state == StateScanning {
		w.state = StateNoCausalRevision
	}

	result.State = w.state
	result.Checked = w.checked

	switch w.state {
	case StateFoundMarkerChange:
		cause := model.AttributedCause{
			Timestamp:  w.lastRev.Timestamp,
			Class:      class.Name,
			Action:     action,
			Page:       page,
			User:       w.lastRev.User,
			RevisionID: w.lastRev.ID,
		}
		logger.Info("found causal revision",
			"revision", cause.RevisionID, "user", cause.User, "checked", w.checked)
		if err := s.logCause(ctx, cause); err != nil {
			return result, err
		}
		result.Cause = &cause
	case StateFoundRedirect:
		logger.Info("found redirect page", "checked", w.checked)
	case StateExhausted:
		logger.Info("page disappeared during scan")
	case StateTaggedFromBeginning:
		logger.Info("page was tagged from beginning", "checked", w.checked)
	case StateNoMarkerChange:
		logger.Info("newest revision does not reflect the change", "checked", w.checked)
	case StateNoCausalRevision:
		logger.Warn("no template change was found", "checked", w.checked)
	case StateFailed:
		logger.Warn("revision scan failed", "checked", w.checked, "error", result.Err)
	}
	return result, nil
}

func (s *Scanner) logCause(ctx context.Context, cause model.AttributedCause) (err error) {
	tx, err := s.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.LogCause(ctx, cause); err != nil {
		return err
	}
	if s.dryRun {
		return tx.Rollback()
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cause: %w", err)
	}
	return nil
}

func (s *Scanner) pattern(class model.CategoryClass) *regexp.Regexp {
	if p, ok := s.patterns[class.Name]; ok {
		return p
	}
	p := MarkerPattern(class.Markers)
	s.patterns[class.Name] = p
	return p
}
