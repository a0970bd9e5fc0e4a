package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/engine"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/overview"
	"github.com/DiFronzo/CatWatchBot2.0/internal/storage"
	"github.com/DiFronzo/CatWatchBot2.0/internal/ticker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestRenderTicker(t *testing.T) {
	buckets := []ticker.Bucket{
		{
			Day:   day,
			Label: ticker.DayLabel(day),
			Entries: []ticker.Entry{
				{
					Cause: model.AttributedCause{
						Timestamp: day.Add(9*time.Hour + 30*time.Minute), Class: "opprydning",
						Action: model.ActionFixed, Page: "Oslo", User: "Alice", RevisionID: 42,
					},
					DiffURL:    ticker.DiffURL(ticker.DefaultIndexURL, "Oslo", 42),
					Superseded: true,
				},
				{
					Cause: model.AttributedCause{
						Timestamp: day.Add(8 * time.Hour), Class: "kilder",
						Action: model.ActionMarked, Page: "Bergen", User: "Bob", RevisionID: 41,
					},
					DiffURL: ticker.DiffURL(ticker.DefaultIndexURL, "Bergen", 41),
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTicker(&buf, buckets))

	out := buf.String()
	assert.Contains(t, out, "14. mai")
	assert.Contains(t, out, "09:30 Oslo ryddet (Alice)")
	assert.Contains(t, out, "08:00 Bergen trenger kilder (Bob)")
	assert.Contains(t, out, "oldid=42")
	assert.Less(t, strings.Index(out, "Oslo"), strings.Index(out, "Bergen"))
}

func TestRenderTicker_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTicker(&buf, nil))
	assert.Contains(t, buf.String(), "No activity recorded yet.")
}

func TestRenderOverview(t *testing.T) {
	tagged := func(n int) []model.OverviewEntry {
		out := make([]model.OverviewEntry, n)
		for i := range n {
			out[i] = model.OverviewEntry{
				Page:     fmt.Sprintf("Side %02d", i),
				MarkedAt: day.AddDate(0, 0, i),
				Tagged:   true,
			}
		}
		return out
	}

	tests := []struct {
		name        string
		overview    overview.ClassOverview
		contains    []string
		notContains []string
	}{
		{
			name: "small class lists everything",
			overview: overview.ClassOverview{
				Class:    "kilder",
				Untagged: []model.OverviewEntry{{Page: "Uten"}},
				Tagged:   tagged(3),
			},
			contains:    []string{"kilder: 4 pages (1 untagged, 3 tagged)", "Untagged", "Uten", "Tagged", "2024-05-14  Side 00", "Side 02"},
			notContains: []string{"Eldste", "Nyeste"},
		},
		{
			name:        "large class is split",
			overview:    overview.ClassOverview{Class: "opprydning", Tagged: tagged(60)},
			contains:    []string{"Eldste", "Nyeste", "Side 00", "Side 09", "Side 59", "Side 50", "40 more tagged pages"},
			notContains: []string{"Side 10", "Side 49", "Untagged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderOverview(&buf, []overview.ClassOverview{tt.overview}))
			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderStats(t *testing.T) {
	points := []model.StatsPoint{
		{Date: day, Count: 10},
		{Date: day.AddDate(0, 0, 1), Count: 20},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderStats(&buf, "kilder", points))

	out := buf.String()
	assert.Contains(t, out, "kilder")
	assert.Contains(t, out, "2024-05-14")
	assert.Contains(t, out, "2024-05-15")
	assert.Contains(t, out, strings.Repeat("█", statsBarWidth))
	assert.NotContains(t, out, strings.Repeat("█", statsBarWidth+1))

	buf.Reset()
	require.NoError(t, RenderStats(&buf, "kilder", nil))
	assert.Contains(t, buf.String(), "No statistics in range.")
}

func TestRenderRunReport(t *testing.T) {
	report := &engine.RunReport{
		Classes: []engine.ClassReport{
			{Name: "opprydning", Before: 10, After: 11, Marked: []string{"A", "B"}, Fixed: []string{"C"}},
			{Name: "kilder", Seeded: true, After: 5},
			{Name: "språkvask", Failed: true},
		},
		Scans: engine.ScanSummary{
			Scanned: 3,
			Causes:  2,
			ByState: map[engine.ScanState]int{
				engine.StateNoCausalRevision:  1,
				engine.StateFoundMarkerChange: 2,
			},
		},
		Duration:   1500 * time.Millisecond,
		Articles:   600000,
		StatsSaved: true,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderRunReport(&buf, report, true))

	out := buf.String()
	assert.Contains(t, out, "Run Summary")
	assert.Contains(t, out, "+2  -1")
	assert.Contains(t, out, "seeded")
	assert.Contains(t, out, FlagIcon+" failed")
	assert.Contains(t, out, "Pages scanned: 3, causes logged: 2")
	assert.Less(t, strings.Index(out, "found_marker_change"), strings.Index(out, "no_causal_revision"))
	assert.Contains(t, out, "Statistics saved (600000 articles)")
	assert.Contains(t, out, "Runtime was 1.5s")
	assert.Contains(t, out, "Simulation")
}

func TestRenderScanSummary(t *testing.T) {
	var buf bytes.Buffer
	summary := &engine.ScanSummary{
		Scanned: 2,
		Causes:  1,
		ByState: map[engine.ScanState]int{engine.StateFoundMarkerChange: 1, engine.StateExhausted: 1},
	}
	require.NoError(t, RenderScanSummary(&buf, summary))
	assert.Contains(t, buf.String(), "Backfill scanned 2 pages, logged 1 causes")
	assert.Contains(t, buf.String(), "exhausted")
}

func TestRenderChanges(t *testing.T) {
	events := []model.ChangeEvent{
		{Date: day, Category: "Kilder", Page: "Oslo", Direction: model.DirectionAdded, IsNewPage: true},
		{Date: day, Category: "Kilder", Page: "Bergen", Direction: model.DirectionRemoved},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderChanges(&buf, "Kilder", "kilder", events))

	out := buf.String()
	assert.Contains(t, out, "class kilder")
	assert.Contains(t, out, "+ added")
	assert.Contains(t, out, "- removed")
	assert.Contains(t, out, "new page")
	assert.Contains(t, out, "Bergen")

	buf.Reset()
	require.NoError(t, RenderChanges(&buf, "Gammel kategori", "", nil))
	assert.Contains(t, buf.String(), "not part of any configured class")
	assert.Contains(t, buf.String(), "No changes recorded.")
}

func TestRenderCauses(t *testing.T) {
	causes := []model.AttributedCause{
		{Timestamp: day.Add(time.Hour), Class: "kilder", Action: model.ActionMarked, Page: "Oslo", User: "Alice", RevisionID: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderCauses(&buf, "Oslo", causes))

	out := buf.String()
	assert.Contains(t, out, "2024-05-14 01:00")
	assert.Contains(t, out, "trenger kilder")
	assert.Contains(t, out, "Alice")

	buf.Reset()
	require.NoError(t, RenderCauses(&buf, "Oslo", nil))
	assert.Contains(t, buf.String(), "No causes recorded.")
}

func TestRenderCheckpoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCheckpoints(&buf, []storage.CheckpointInfo{
		{ID: "pre-backfill", CreatedAt: day, FileSize: 2048, IsAuto: true, Description: "Before backfill"},
	}))

	out := buf.String()
	assert.Contains(t, out, "pre-backfill")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "auto")
	assert.Contains(t, out, "Before backfill")
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		want string
		n    int64
	}{
		{n: 0, want: "0 B"},
		{n: 1023, want: "1023 B"},
		{n: 1536, want: "1.5 KB"},
		{n: 5 * 1024 * 1024, want: "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.n))
	}
}

func TestRenderers_PropagateWriteErrors(t *testing.T) {
	assert.Error(t, RenderTicker(failingWriter{}, nil))
	assert.Error(t, RenderStats(failingWriter{}, "kilder", []model.StatsPoint{{Date: day, Count: 1}}))
	assert.Error(t, RenderRunReport(failingWriter{}, &engine.RunReport{}, false))
}

func TestBackfillProgress(t *testing.T) {
	var buf syncBuffer
	progress := BackfillProgress(&buf)
	for i, page := range []string{"A", "B", "C"} {
		progress(i+1, 3, page)
	}

	out := buf.String()
	assert.Contains(t, out, "Backfilling causes...")
	assert.Contains(t, out, "/3")
}
