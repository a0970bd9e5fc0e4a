package engine

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/testutil"
	"github.com/DiFronzo/CatWatchBot2.0/internal/wiki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cat = "Opprydning-statistikk"

func TestWatcher_ExistingPageAdded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedSnapshot(now.AddDate(0, 0, -1), cat, "PageX")

	source := wiki.NewMockSource()
	source.Members[cat] = []string{"PageX", "PageY"}
	source.Revisions["PageY"] = testutil.NewHistory(1, now.AddDate(0, 0, -10)).Edit("Creator", "tekst").Build()

	rec := &sleepRecorder{}
	result, err := NewWatcher(source, db.Storage, testOptions(rec)).Diff(context.Background(), cat)
	require.NoError(t, err)

	assert.Equal(t, []string{"PageY"}, result.Additions)
	assert.Empty(t, result.Removals)
	assert.Empty(t, result.NewPages)
	assert.False(t, result.Seeding)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 1, result.Before())
	assert.Equal(t, 1, rec.count(), "one pacing delay per classified addition")

	assert.Equal(t, []string{"PageX", "PageY"}, db.Snapshot(cat))
	events := db.Changes(cat)
	require.Len(t, events, 1)
	assert.Equal(t, model.DirectionAdded, events[0].Direction)
	assert.Equal(t, "PageY", events[0].Page)
	assert.False(t, events[0].IsNewPage)
}

func TestWatcher_NewPageClassification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedSnapshot(now, cat, "Gammel")

	source := wiki.NewMockSource()
	source.Members[cat] = []string{"Gammel", "Fersk", "Ukjent", "Grense"}
	source.Revisions["Fersk"] = testutil.NewHistory(1, now.Add(-48*time.Hour)).Edit("A", "x").Build()
	source.Revisions["Grense"] = testutil.NewHistory(5, now.Add(-7*24*time.Hour)).Edit("A", "x").Build()
	source.Errors["earliest:Ukjent"] = errors.New("timeout")

	_, err := NewWatcher(source, db.Storage, testOptions(&sleepRecorder{})).Diff(context.Background(), cat)
	require.NoError(t, err)

	isNew := map[string]bool{}
	for _, e := range db.Changes(cat) {
		isNew[e.Page] = e.IsNewPage
	}
	assert.Equal(t, map[string]bool{"Fersk": true, "Ukjent": false, "Grense": false}, isNew)
}

func TestWatcher_Seeding(t *testing.T) {
	db := testutil.SetupTestDB(t)

	source := wiki.NewMockSource()
	source.Members[cat] = []string{"B", "A", "C"}

	rec := &sleepRecorder{}
	result, err := NewWatcher(source, db.Storage, testOptions(rec)).Diff(context.Background(), cat)
	require.NoError(t, err)

	assert.True(t, result.Seeding)
	assert.Equal(t, []string{"A", "B", "C"}, result.Additions)
	assert.Empty(t, source.EarliestCalls, "seeding skips new-page lookups")
	assert.Zero(t, rec.count(), "seeding skips pacing")
	assert.Equal(t, []string{"A", "B", "C"}, db.Snapshot(cat))
	for _, e := range db.Changes(cat) {
		assert.False(t, e.IsNewPage)
	}
}

func TestWatcher_Removal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedSnapshot(now, cat, "Blir", "Går")

	source := wiki.NewMockSource()
	source.Members[cat] = []string{"Blir"}

	result, err := NewWatcher(source, db.Storage, testOptions(&sleepRecorder{})).Diff(context.Background(), cat)
	require.NoError(t, err)

	assert.Equal(t, []string{"Går"}, result.Removals)
	assert.Equal(t, []string{"Blir"}, db.Snapshot(cat))
	events := db.Changes(cat)
	require.Len(t, events, 1)
	assert.Equal(t, model.DirectionRemoved, events[0].Direction)
	assert.Equal(t, "Går", events[0].Page)
}

func TestWatcher_DryRunWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedSnapshot(now, cat, "Går")

	source := wiki.NewMockSource()
	source.Members[cat] = []string{"Kommer"}
	source.Revisions["Kommer"] = testutil.NewHistory(1, now.Add(-time.Hour)).Edit("A", "x").Build()

	opts := testOptions(&sleepRecorder{})
	opts.DryRun = true
	result, err := NewWatcher(source, db.Storage, opts).Diff(context.Background(), cat)
	require.NoError(t, err)

	assert.Equal(t, []string{"Kommer"}, result.Additions)
	assert.Equal(t, []string{"Kommer"}, result.NewPages, "reads and classification still happen")
	assert.Equal(t, []string{"Går"}, db.Snapshot(cat))
	assert.Empty(t, db.Changes(cat))
}

func TestWatcher_ArticlesOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedSnapshot(now, cat, "Artikkel")

	source := wiki.NewMockSource()
	source.Members[cat] = []string{"Artikkel", "Mal:Opprydning", "Fil:Bilde.jpg"}
	source.Namespaces["Mal:Opprydning"] = 10
	source.Namespaces["Fil:Bilde.jpg"] = 6

	opts := testOptions(&sleepRecorder{})
	opts.ArticlesOnly = true
	result, err := NewWatcher(source, db.Storage, opts).Diff(context.Background(), cat)
	require.NoError(t, err)

	assert.Empty(t, result.Additions)
	assert.Equal(t, 1, result.Count)
}

func TestWatcher_ListFailureLeavesSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedSnapshot(now, cat, "A")

	source := wiki.NewMockSource()
	source.Errors["members:"+cat] = common.ErrUpstream

	_, err := NewWatcher(source, db.Storage, testOptions(&sleepRecorder{})).Diff(context.Background(), cat)
	require.ErrorIs(t, err, common.ErrUpstream)
	assert.Equal(t, []string{"A"}, db.Snapshot(cat))
	assert.Empty(t, db.Changes(cat))
}

func TestWatcher_SnapshotAlgebra(t *testing.T) {
	tests := []struct {
		name  string
		prior []string
		live  []string
	}{
		{name: "disjoint", prior: []string{"A", "B"}, live: []string{"C"}},
		{name: "overlap", prior: []string{"A", "B", "C"}, live: []string{"B", "C", "D", "E"}},
		{name: "identical", prior: []string{"A"}, live: []string{"A"}},
		{name: "emptied", prior: []string{"A", "B"}, live: nil},
		{name: "duplicates in listing", prior: []string{"A"}, live: []string{"B", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			db.SeedSnapshot(now, cat, tt.prior...)

			source := wiki.NewMockSource()
			source.Members[cat] = tt.live

			result, err := NewWatcher(source, db.Storage, testOptions(&sleepRecorder{})).Diff(context.Background(), cat)
			require.NoError(t, err)

			for _, added := range result.Additions {
				assert.NotContains(t, result.Removals, added)
			}

			want := map[string]bool{}
			for _, p := range tt.prior {
				if !slices.Contains(result.Removals, p) {
					want[p] = true
				}
			}
			for _, p := range result.Additions {
				want[p] = true
			}
			got := map[string]bool{}
			for _, p := range db.Snapshot(cat) {
				got[p] = true
			}
			assert.Equal(t, want, got)
		})
	}
}
