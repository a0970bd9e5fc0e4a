package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hours int) time.Time {
	return time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC).Add(time.Duration(hours) * time.Hour)
}

func seedCauses(t *testing.T, store *SQLiteStorage, causes ...model.AttributedCause) {
	t.Helper()
	withTx(t, store, func(tx service.Transaction) {
		for _, c := range causes {
			require.NoError(t, tx.LogCause(context.Background(), c))
		}
	})
}

func cause(hours int, class string, action model.Action, page string, rev int64) model.AttributedCause {
	return model.AttributedCause{
		Timestamp:  at(hours),
		Class:      class,
		Action:     action,
		Page:       page,
		User:       "Editor",
		RevisionID: rev,
	}
}

func TestGetTickerCauses_DedupAndOrder(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedCauses(t, store,
		cause(0, "kilder", model.ActionMarked, "Oslo", 1),
		cause(5, "kilder", model.ActionMarked, "Oslo", 2),
		cause(3, "kilder", model.ActionFixed, "Oslo", 3),
		cause(1, "opprydning", model.ActionMarked, "Bergen", 4),
		cause(30, "opprydning", model.ActionFixed, "Bergen", 5),
	)

	causes, err := store.GetTickerCauses(ctx, service.TickerQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, causes, 4)

	revisions := make([]int64, len(causes))
	for i, c := range causes {
		revisions[i] = c.RevisionID
	}
	// Oslo/kilder/merket keeps only revision 2, the latest.
	assert.Equal(t, []int64{5, 2, 3, 4}, revisions)

	for i := 1; i < len(causes); i++ {
		assert.False(t, causes[i].Timestamp.After(causes[i-1].Timestamp))
	}
	assert.Equal(t, "Editor", causes[0].User)
	assert.Equal(t, at(30), causes[0].Timestamp)
}

func TestGetTickerCauses_Filtering(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedCauses(t, store,
		cause(0, "kilder", model.ActionMarked, "A", 1),
		cause(1, "kilder", model.ActionFixed, "B", 2),
		cause(2, "opprydning", model.ActionMarked, "C", 3),
		cause(3, "opprydning", model.ActionFixed, "D", 4),
		cause(4, "interwiki", model.ActionFixed, "E", 5),
	)

	tests := []struct {
		name  string
		query service.TickerQuery
		want  []int64
	}{
		{
			name:  "fixed and marked lists",
			query: service.TickerQuery{Fixed: []string{"kilder", "interwiki"}, Marked: []string{"opprydning"}, Limit: 10},
			want:  []int64{5, 3, 2},
		},
		{
			name:  "only fixed list excludes all marks",
			query: service.TickerQuery{Fixed: []string{"opprydning"}, Limit: 10},
			want:  []int64{4},
		},
		{
			name:  "limit applies after ordering",
			query: service.TickerQuery{Limit: 2},
			want:  []int64{5, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			causes, err := store.GetTickerCauses(ctx, tt.query)
			require.NoError(t, err)
			got := make([]int64, len(causes))
			for i, c := range causes {
				got[i] = c.RevisionID
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := store.GetTickerCauses(ctx, service.TickerQuery{})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestHasLaterMark(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedCauses(t, store,
		cause(0, "kilder", model.ActionFixed, "Oslo", 1),
		cause(2, "kilder", model.ActionMarked, "Oslo", 2),
		cause(2, "opprydning", model.ActionFixed, "Oslo", 3),
	)

	later, err := store.HasLaterMark(ctx, "Oslo", "kilder", at(0))
	require.NoError(t, err)
	assert.True(t, later)

	later, err = store.HasLaterMark(ctx, "Oslo", "kilder", at(2))
	require.NoError(t, err)
	assert.False(t, later, "same timestamp is not later")

	later, err = store.HasLaterMark(ctx, "Oslo", "opprydning", at(0))
	require.NoError(t, err)
	assert.False(t, later, "a fix is not a mark")
}

func TestGetPagesMissingCauses(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	withTx(t, store, func(tx service.Transaction) {
		for _, m := range []model.SnapshotMember{
			{Date: day, Category: "Artikler uten kilder", Page: "Oslo"},
			{Date: day, Category: "Artikler uten kilder", Page: "Bergen"},
			{Date: day, Category: "Artikler uten referanser", Page: "Bergen"},
			{Date: day, Category: "Artikler uten referanser", Page: "Tromsø"},
			{Date: day, Category: "Ukategorisert", Page: "Molde"},
		} {
			require.NoError(t, tx.AddSnapshotMember(ctx, m))
		}
	})
	seedCauses(t, store,
		cause(0, "kilder", model.ActionMarked, "Oslo", 1),
		cause(0, "opprydning", model.ActionMarked, "Tromsø", 2),
	)

	pages, err := store.GetPagesMissingCauses(ctx, "kilder", []string{"Artikler uten kilder", "Artikler uten referanser"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bergen", "Tromsø"}, pages)

	pages, err = store.GetPagesMissingCauses(ctx, "kilder", nil)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestGetClassOverview(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	withTx(t, store, func(tx service.Transaction) {
		require.NoError(t, tx.AddSnapshotMember(ctx, model.SnapshotMember{Date: day, Category: "Ukategorisert", Page: "Oslo"}))
		require.NoError(t, tx.AddSnapshotMember(ctx, model.SnapshotMember{Date: day, Category: "Ukategorisert", Page: "Bergen"}))
	})
	seedCauses(t, store,
		cause(0, "ukategorisert", model.ActionMarked, "Oslo", 10),
		cause(4, "ukategorisert", model.ActionMarked, "Oslo", 11),
		cause(6, "ukategorisert", model.ActionFixed, "Oslo", 12),
	)

	entries, err := store.GetClassOverview(ctx, "ukategorisert", []string{"Ukategorisert"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Bergen", entries[0].Page)
	assert.False(t, entries[0].Tagged)

	assert.Equal(t, "Oslo", entries[1].Page)
	assert.True(t, entries[1].Tagged)
	assert.Equal(t, int64(11), entries[1].RevisionID)
	assert.Equal(t, at(4), entries[1].MarkedAt)
}

func TestGetCauses(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedCauses(t, store,
		cause(0, "kilder", model.ActionMarked, "Oslo", 1),
		cause(1, "opprydning", model.ActionMarked, "Oslo", 2),
		cause(1, "kilder", model.ActionMarked, "Bergen", 3),
	)

	all, err := store.GetCauses(ctx, "Oslo", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].RevisionID)

	kilder, err := store.GetCauses(ctx, "Oslo", "kilder")
	require.NoError(t, err)
	require.Len(t, kilder, 1)
	assert.Equal(t, model.ActionMarked, kilder[0].Action)
}

func TestLogCause_AllowsDuplicates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	c := cause(0, "kilder", model.ActionFixed, "Oslo", 42)
	seedCauses(t, store, c, c)

	all, err := store.GetCauses(ctx, "Oslo", "kilder")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLogCause_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	bad := []model.AttributedCause{
		{Timestamp: at(0), Class: "kilder", Action: "tagged", Page: "P", RevisionID: 1},
		{Timestamp: at(0), Class: "kilder", Action: model.ActionMarked, Page: "P"},
		{Class: "kilder", Action: model.ActionMarked, Page: "P", RevisionID: 1},
		{Timestamp: at(0), Action: model.ActionMarked, Page: "P", RevisionID: 1},
	}
	for _, c := range bad {
		assert.ErrorIs(t, tx.LogCause(ctx, c), ErrInvalidCause)
	}
}
