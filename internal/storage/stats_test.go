package storage

import (
	"context"
	"testing"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_SaveAndQuery(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	withTx(t, store, func(tx service.Transaction) {
		require.NoError(t, tx.SaveStats(ctx, model.StatsRollup{
			Date: day, ArticleCount: 600000,
			Counts: map[string]int{"kilder": 10, "opprydning": 4},
		}))
		require.NoError(t, tx.SaveStats(ctx, model.StatsRollup{
			Date: day.AddDate(0, 0, 1), ArticleCount: 600010,
			Counts: map[string]int{"kilder": 12, "opprydning": 3},
		}))
		// A second run on the same day supersedes the first.
		require.NoError(t, tx.SaveStats(ctx, model.StatsRollup{
			Date: day.AddDate(0, 0, 1), ArticleCount: 600011,
			Counts: map[string]int{"kilder": 13, "opprydning": 3},
		}))
	})

	points, err := store.GetStats(ctx, "kilder", day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, day, points[0].Date)
	assert.Equal(t, 10, points[0].Count)
	assert.Equal(t, 13, points[1].Count)

	points, err = store.GetStats(ctx, "opprydning", day.AddDate(0, 0, 1), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 3, points[0].Count)

	_, err = store.GetStats(ctx, "kilder", day, day.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidDateRng)
}

func TestStats_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	assert.ErrorIs(t, tx.SaveStats(ctx, model.StatsRollup{}), ErrInvalidStats)
	assert.ErrorIs(t, tx.SaveStats(ctx, model.StatsRollup{Date: day, Counts: map[string]int{"kilder": -1}}), ErrInvalidStats)
}
