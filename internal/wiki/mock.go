package wiki

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// MockSource is an in-memory service.WikiSource for tests.
type MockSource struct {
	// Members maps category to member titles.
	Members map[string][]string
	// Namespaces maps a title to its namespace; absent titles are articles.
	Namespaces map[string]int
	// Revisions maps a title to its history, newest first.
	Revisions map[string][]model.Revision
	// Errors forces the named operation ("members:<category>",
	// "revisions:<page>", "earliest:<page>", "stats") to fail.
	Errors map[string]error
	// FailAfter makes RevisionsBackward fail once this many revisions of a
	// page have been yielded.
	FailAfter map[string]int
	Stats     model.SiteStatistics

	mu sync.Mutex

	ListMembersCalls []string
	RevisionCalls    []string
	EarliestCalls    []string
	PageExistsCalls  []string
	RevisionsYielded int
	SiteStatsCalls   int
}

// NewMockSource creates an empty mock.
func NewMockSource() *MockSource {
	return &MockSource{
		Members:    map[string][]string{},
		Namespaces: map[string]int{},
		Revisions:  map[string][]model.Revision{},
		Errors:     map[string]error{},
		FailAfter:  map[string]int{},
	}
}

// ListMembers implements service.WikiSource.
func (m *MockSource) ListMembers(_ context.Context, category string, namespace int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListMembersCalls = append(m.ListMembersCalls, category)

	if err := m.Errors["members:"+category]; err != nil {
		return nil, err
	}
	var out []string
	for _, title := range m.Members[category] {
		if namespace != service.NamespaceAll && m.Namespaces[title] != namespace {
			continue
		}
		out = append(out, title)
	}
	return out, nil
}

// RevisionsBackward implements service.WikiSource.
func (m *MockSource) RevisionsBackward(_ context.Context, page string, startID int64) iter.Seq2[model.Revision, error] {
	return func(yield func(model.Revision, error) bool) {
		m.mu.Lock()
		m.RevisionCalls = append(m.RevisionCalls, page)
		err := m.Errors["revisions:"+page]
		history, ok := m.Revisions[page]
		failAfter, limited := m.FailAfter[page]
		m.mu.Unlock()

		if err != nil {
			yield(model.Revision{}, err)
			return
		}
		if !ok {
			yield(model.Revision{}, fmt.Errorf("%w: %s", common.ErrPageNotFound, page))
			return
		}

		started := startID == 0
		yielded := 0
		for _, rev := range history {
			if !started {
				if rev.ID != startID {
					continue
				}
				started = true
			}
			if limited && yielded >= failAfter {
				yield(model.Revision{}, fmt.Errorf("%w: connection reset", common.ErrUpstream))
				return
			}
			m.mu.Lock()
			m.RevisionsYielded++
			m.mu.Unlock()
			yielded++
			if !yield(rev, nil) {
				return
			}
		}
	}
}

// EarliestRevision implements service.WikiSource.
func (m *MockSource) EarliestRevision(_ context.Context, page string) (model.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EarliestCalls = append(m.EarliestCalls, page)

	if err := m.Errors["earliest:"+page]; err != nil {
		return model.Revision{}, err
	}
	history, ok := m.Revisions[page]
	if !ok {
		return model.Revision{}, fmt.Errorf("%w: %s", common.ErrPageNotFound, page)
	}
	if len(history) == 0 {
		return model.Revision{}, fmt.Errorf("%w: %s", common.ErrNoRevisions, page)
	}
	return history[len(history)-1], nil
}

// PageExists implements service.WikiSource.
func (m *MockSource) PageExists(_ context.Context, page string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageExistsCalls = append(m.PageExistsCalls, page)
	_, ok := m.Revisions[page]
	return ok, nil
}

// SiteStatistics implements service.WikiSource.
func (m *MockSource) SiteStatistics(_ context.Context) (model.SiteStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SiteStatsCalls++
	if err := m.Errors["stats"]; err != nil {
		return model.SiteStatistics{}, err
	}
	return m.Stats, nil
}

// Ensure MockSource implements WikiSource.
var _ service.WikiSource = (*MockSource)(nil)

// Ensure Client implements WikiSource.
var _ service.WikiSource = (*Client)(nil)
