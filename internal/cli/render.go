package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/engine"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/overview"
	"github.com/DiFronzo/CatWatchBot2.0/internal/storage"
	"github.com/DiFronzo/CatWatchBot2.0/internal/ticker"
)

// OverviewSplitThreshold is the tagged count above which an overview shows
// only the oldest and newest pages.
const OverviewSplitThreshold = 50

// overviewSectionSize is the length of the oldest and newest sections.
const overviewSectionSize = 10

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
	statsBarWidth  = 40
)

// printer remembers the first write error so renderers can write line by
// line and check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) println(a ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintln(p.w, a...)
	}
}

func (p *printer) printf(format string, a ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, a...)
	}
}

// table writes tab separated rows through a tabwriter.
func (p *printer) table(header []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	styled := make([]string, len(header))
	rules := make([]string, len(header))
	for i, h := range header {
		styled[i] = BoldStyle.Render(h)
		rules[i] = strings.Repeat("─", max(len(h), 4))
	}
	lines := append([][]string{styled, rules}, rows...)
	for _, row := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			p.err = err
			return
		}
	}
	p.err = tw.Flush()
}

// RenderTicker writes the activity feed grouped by day. Superseded fixes are
// struck through.
func RenderTicker(w io.Writer, buckets []ticker.Bucket) error {
	p := &printer{w: w}
	if len(buckets) == 0 {
		p.println(InfoStyle.Render("No activity recorded yet."))
		return p.err
	}

	for i, b := range buckets {
		if i > 0 {
			p.println()
		}
		p.println(BoldStyle.Render(b.Label))
		for _, e := range b.Entries {
			c := e.Cause
			line := fmt.Sprintf("%s %s %s (%s)",
				c.Timestamp.UTC().Format("15:04"), c.Page, ticker.Verb(c.Action, c.Class), c.User)
			if e.Superseded {
				line = StrikeStyle.Render(line)
			} else if c.Action == model.ActionFixed {
				line = SuccessStyle.Render(line)
			}
			p.printf("  %s  %s\n", line, SubtleStyle.Render(e.DiffURL))
		}
	}
	return p.err
}

// RenderOverview writes the backlog of every class. Large classes list only
// their oldest and newest marked pages.
func RenderOverview(w io.Writer, overviews []overview.ClassOverview) error {
	p := &printer{w: w}
	for i, ov := range overviews {
		if i > 0 {
			p.println()
		}
		p.println(FormatTitle(fmt.Sprintf("%s: %d pages (%d untagged, %d tagged)",
			ov.Class, len(ov.Untagged)+len(ov.Tagged), len(ov.Untagged), len(ov.Tagged))))

		if len(ov.Untagged) > 0 {
			p.println(WarningStyle.Render("Untagged"))
			for _, e := range ov.Untagged {
				p.printf("  %s\n", e.Page)
			}
		}

		if len(ov.Tagged) > OverviewSplitThreshold {
			p.println(InfoStyle.Render("Eldste"))
			writeOverviewEntries(p, ov.Oldest(overviewSectionSize))
			p.println(InfoStyle.Render("Nyeste"))
			writeOverviewEntries(p, ov.Newest(overviewSectionSize))
			p.println(SubtleStyle.Render(fmt.Sprintf("  ... %d more tagged pages",
				len(ov.Tagged)-2*overviewSectionSize)))
		} else if len(ov.Tagged) > 0 {
			p.println(InfoStyle.Render("Tagged"))
			writeOverviewEntries(p, ov.Tagged)
		}
	}
	return p.err
}

func writeOverviewEntries(p *printer, entries []model.OverviewEntry) {
	for _, e := range entries {
		p.printf("  %s  %s\n", e.MarkedAt.UTC().Format(dateLayout), e.Page)
	}
}

// RenderStats writes the daily counts of one class with a proportional bar.
func RenderStats(w io.Writer, class string, points []model.StatsPoint) error {
	p := &printer{w: w}
	p.println(FormatTitle(ChartIcon + " " + class))
	if len(points) == 0 {
		p.println(InfoStyle.Render("No statistics in range."))
		return p.err
	}

	peak := 0
	for _, pt := range points {
		peak = max(peak, pt.Count)
	}

	rows := make([][]string, 0, len(points))
	for _, pt := range points {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", pt.Count*statsBarWidth/peak)
		}
		rows = append(rows, []string{pt.Date.Format(dateLayout), fmt.Sprint(pt.Count), InfoStyle.Render(bar)})
	}
	p.table([]string{"Date", "Members", ""}, rows)
	return p.err
}

// RenderRunReport writes the summary box printed after a run.
func RenderRunReport(w io.Writer, report *engine.RunReport, dryRun bool) error {
	var b strings.Builder
	for _, c := range report.Classes {
		line := fmt.Sprintf("%-14s %5d → %-5d  +%d  -%d", c.Name, c.Before, c.After, len(c.Marked), len(c.Fixed))
		switch {
		case c.Failed:
			line = ErrorStyle.Render(line + "  " + FlagIcon + " failed")
		case c.Seeded:
			line = SubtleStyle.Render(line + "  seeded")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Pages scanned: %d, causes logged: %d\n", report.Scans.Scanned, report.Scans.Causes)
	for _, s := range sortedStates(report.Scans.ByState) {
		fmt.Fprintf(&b, "  %-22s %d\n", s, report.Scans.ByState[s])
	}

	b.WriteString("\n")
	if report.StatsSaved {
		b.WriteString(StyleSuccess(fmt.Sprintf("%s Statistics saved (%d articles)", SuccessIcon, report.Articles)))
	} else {
		b.WriteString(StyleWarning("Statistics not saved"))
	}
	b.WriteString("\n" + SubtleStyle.Render("Runtime was "+report.Duration.Round(time.Millisecond).String()))
	if dryRun {
		b.WriteString("\n" + StyleWarning("Simulation: nothing was written"))
	}

	_, err := fmt.Fprintln(w, RenderBox("Run Summary", b.String()))
	return err
}

// RenderScanSummary writes the outcome counts of a backfill.
func RenderScanSummary(w io.Writer, summary *engine.ScanSummary) error {
	p := &printer{w: w}
	p.println(FormatSuccess(fmt.Sprintf("Backfill scanned %d pages, logged %d causes", summary.Scanned, summary.Causes)))
	for _, s := range sortedStates(summary.ByState) {
		p.printf("  %-22s %d\n", s, summary.ByState[s])
	}
	return p.err
}

func sortedStates(counts map[engine.ScanState]int) []engine.ScanState {
	states := make([]engine.ScanState, 0, len(counts))
	for s := range counts {
		states = append(states, s)
	}
	slices.Sort(states)
	return states
}

// RenderChanges writes membership change events.
func RenderChanges(w io.Writer, category, class string, events []model.ChangeEvent) error {
	p := &printer{w: w}
	p.println(FormatTitle(category))
	if class != "" {
		p.println(SubtleStyle.Render("class " + class))
	} else {
		p.println(FormatWarning("not part of any configured class"))
	}
	if len(events) == 0 {
		p.println(InfoStyle.Render("No changes recorded."))
		return p.err
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		dir := SuccessStyle.Render("+ " + string(e.Direction))
		if e.Direction == model.DirectionRemoved {
			dir = ErrorStyle.Render("- " + string(e.Direction))
		}
		newPage := ""
		if e.IsNewPage {
			newPage = "new page"
		}
		rows = append(rows, []string{e.Date.Format(dateLayout), dir, e.Page, newPage})
	}
	p.table([]string{"Date", "Change", "Page", ""}, rows)
	return p.err
}

// RenderCauses writes the attributed causes of one page.
func RenderCauses(w io.Writer, page string, causes []model.AttributedCause) error {
	p := &printer{w: w}
	p.println(FormatTitle(page))
	if len(causes) == 0 {
		p.println(InfoStyle.Render("No causes recorded."))
		return p.err
	}

	rows := make([][]string, 0, len(causes))
	for _, c := range causes {
		rows = append(rows, []string{
			c.Timestamp.UTC().Format(dateTimeLayout),
			c.Class,
			ticker.Verb(c.Action, c.Class),
			c.User,
			fmt.Sprint(c.RevisionID),
		})
	}
	p.table([]string{"Time", "Class", "Event", "User", "Revision"}, rows)
	return p.err
}

// RenderCheckpoints writes the checkpoint list.
func RenderCheckpoints(w io.Writer, checkpoints []storage.CheckpointInfo) error {
	p := &printer{w: w}
	if len(checkpoints) == 0 {
		p.println(InfoStyle.Render("No checkpoints found."))
		return p.err
	}

	rows := make([][]string, 0, len(checkpoints))
	for _, cp := range checkpoints {
		kind := "manual"
		if cp.IsAuto {
			kind = "auto"
		}
		rows = append(rows, []string{
			cp.ID,
			cp.CreatedAt.Local().Format(dateTimeLayout),
			formatSize(cp.FileSize),
			kind,
			cp.Description,
		})
	}
	p.println(FormatTitle(FolderIcon + " Checkpoints"))
	p.table([]string{"ID", "Created", "Size", "Kind", "Description"}, rows)
	return p.err
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
