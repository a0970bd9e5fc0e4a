package ticker

import (
	"context"
	"testing"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day, hour int) time.Time {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
}

func cause(at time.Time, class string, action model.Action, page string, rev int64) model.AttributedCause {
	return model.AttributedCause{Timestamp: at, Class: class, Action: action, Page: page, User: "U", RevisionID: rev}
}

func TestAggregator_Build(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedCauses(
		cause(ts(13, 9), "kilder", model.ActionMarked, "Oslo", 1),
		cause(ts(14, 10), "kilder", model.ActionFixed, "Oslo", 2),
		cause(ts(14, 12), "opprydning", model.ActionMarked, "Bergen", 3),
		cause(ts(14, 8), "opprydning", model.ActionMarked, "Bergen", 4),
		cause(ts(15, 7), "kilder", model.ActionMarked, "Oslo", 5),
		cause(ts(15, 6), "interwiki", model.ActionFixed, "Tromsø", 6),
	)

	buckets, err := NewAggregator(db.Storage, "", nil).Build(context.Background(), Query{Limit: 50})
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, "15. mai", buckets[0].Label)
	assert.Equal(t, ts(15, 0), buckets[0].Day)
	require.Len(t, buckets[0].Entries, 2)
	assert.Equal(t, int64(5), buckets[0].Entries[0].Cause.RevisionID)
	assert.Equal(t, int64(6), buckets[0].Entries[1].Cause.RevisionID)
	assert.False(t, buckets[0].Entries[1].Superseded)

	assert.Equal(t, "14. mai", buckets[1].Label)
	require.Len(t, buckets[1].Entries, 2)
	assert.Equal(t, int64(3), buckets[1].Entries[0].Cause.RevisionID, "older Bergen mark is deduplicated away")
	fix := buckets[1].Entries[1]
	assert.Equal(t, int64(2), fix.Cause.RevisionID)
	assert.True(t, fix.Superseded, "Oslo was re-marked after the fix")
	assert.Equal(t, "https://no.wikipedia.org/w/index.php?diff=prev&oldid=2&title=Oslo", fix.DiffURL)

	var prev time.Time
	seen := map[string]bool{}
	for i, b := range buckets {
		for j, e := range b.Entries {
			if i+j > 0 {
				assert.False(t, e.Cause.Timestamp.After(prev))
			}
			prev = e.Cause.Timestamp
			key := string(e.Cause.Action) + "|" + e.Cause.Class + "|" + e.Cause.Page
			assert.False(t, seen[key], "duplicate %s", key)
			seen[key] = true
		}
	}
}

func TestAggregator_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedCauses(
		cause(ts(14, 10), "kilder", model.ActionFixed, "A", 1),
		cause(ts(14, 11), "kilder", model.ActionMarked, "B", 2),
		cause(ts(14, 12), "opprydning", model.ActionMarked, "C", 3),
	)

	buckets, err := NewAggregator(db.Storage, "", nil).Build(context.Background(), Query{
		Fixed:  []string{"kilder"},
		Marked: []string{"opprydning"},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	var pages []string
	for _, e := range buckets[0].Entries {
		pages = append(pages, e.Cause.Page)
	}
	assert.Equal(t, []string{"C", "A"}, pages)
}

func TestAggregator_EmptyLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	buckets, err := NewAggregator(db.Storage, "", nil).Build(context.Background(), Query{Limit: 12})
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestDayLabelAndLinks(t *testing.T) {
	assert.Equal(t, " 3. des", DayLabel(time.Date(2023, 12, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "https://no.wikipedia.org/w/index.php", IndexURL("https://no.wikipedia.org/w/api.php"))
	assert.Equal(t, DefaultIndexURL, IndexURL("http://example.org/"))
	assert.Equal(t,
		"http://localhost/index.php?diff=prev&oldid=7&title=Kategori%3AX+Y",
		DiffURL("http://localhost/index.php", "Kategori:X Y", 7))
}

func TestVerb(t *testing.T) {
	assert.Equal(t, "kildebelagt", Verb(model.ActionFixed, "kilder"))
	assert.Equal(t, "trenger rydding", Verb(model.ActionMarked, "opprydning"))
	assert.Equal(t, "merket nyklasse", Verb(model.ActionMarked, "nyklasse"))
}
