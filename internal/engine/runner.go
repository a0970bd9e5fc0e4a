package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/config"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/DiFronzo/CatWatchBot2.0/internal/service"
)

// ClassReport summarizes one class after the diff phase.
type ClassReport struct {
	Name string
	// Fixed and Marked are the pages that left and joined the class,
	// de-duplicated across its categories.
	Fixed  []string
	Marked []string
	// Before and After are member counts summed over the class's categories.
	Before int
	After  int
	Seeded bool
	// Failed is set when at least one category could not be diffed.
	Failed bool
}

// ScanSummary counts scan outcomes.
type ScanSummary struct {
	ByState map[ScanState]int
	Scanned int
	Causes  int
}

func (s *ScanSummary) add(r ScanResult) {
	if s.ByState == nil {
		s.ByState = make(map[ScanState]int)
	}
	s.Scanned++
	s.ByState[r.State]++
	if r.Cause != nil {
		s.Causes++
	}
}

// RunReport describes a completed run.
type RunReport struct {
	Started  time.Time
	Classes  []ClassReport
	Scans    ScanSummary
	Duration time.Duration
	Articles int
	// StatsSaved is false when the rollup was skipped.
	StatsSaved bool
}

// BackfillProgress is called after each backfilled page.
type BackfillProgress func(done, total int, page string)

// Runner runs the whole pipeline over a class table.
type Runner struct {
	source  service.WikiSource
	storage service.Storage
	watcher *Watcher
	scanner *Scanner
	now     Clock
	logger  *slog.Logger
	classes config.Classes
	dryRun  bool
}

// NewRunner creates a Runner for classes.
func NewRunner(source service.WikiSource, storage service.Storage, classes config.Classes, opts Options) *Runner {
	opts = opts.withDefaults()
	return &Runner{
		source:  source,
		storage: storage,
		watcher: NewWatcher(source, storage, opts),
		scanner: NewScanner(source, storage, opts),
		now:     opts.Now,
		logger:  opts.Logger,
		classes: classes,
		dryRun:  opts.DryRun,
	}
}

// Run diffs every category of every class, attributes the changes of classes
// that were not seeded in this run, and writes the daily stats rollup.
// Failures of single categories or pages are logged and the run continues;
// category failures are returned joined at the end and suppress the rollup.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{Started: r.now()}
	r.logger.Info("looking for member changes in maintenance categories")

	var diffErrs []error
	for _, class := range r.classes.All() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cr, errs := r.diffClass(ctx, class)
		diffErrs = append(diffErrs, errs...)
		report.Classes = append(report.Classes, cr)
	}

	r.logger.Info("locating revisions when templates were inserted or removed")
	for _, cr := range report.Classes {
		if cr.Seeded {
			r.logger.Info("skipping revision scan for seeded class", "class", cr.Name)
			continue
		}
		class, _ := r.classes.Lookup(cr.Name)
		for _, change := range []struct {
			dir   model.Direction
			pages []string
		}{
			{model.DirectionRemoved, cr.Fixed},
			{model.DirectionAdded, cr.Marked},
		} {
			if err := r.scanAll(ctx, class, model.ActionFor(change.dir), change.pages, &report.Scans, nil); err != nil {
				return report, err
			}
		}
	}

	if len(diffErrs) > 0 {
		r.logger.Error("skipping stats rollup, some categories failed", "failed", len(diffErrs))
	} else if err := r.saveStats(ctx, report); err != nil {
		return report, err
	}

	report.Duration = r.now().Sub(report.Started)
	r.logger.Info("run complete",
		"runtime", report.Duration.Round(time.Millisecond),
		"scanned", report.Scans.Scanned,
		"causes", report.Scans.Causes)

	return report, errors.Join(diffErrs...)
}

func (r *Runner) diffClass(ctx context.Context, class model.CategoryClass) (ClassReport, []error) {
	cr := ClassReport{Name: class.Name}
	var errs []error

	for _, category := range class.Categories {
		res, err := r.watcher.Diff(ctx, category)
		if err != nil {
			r.logger.Error("category diff failed", "class", class.Name, "category", category, "error", err)
			errs = append(errs, fmt.Errorf("class %s: %w", class.Name, err))
			cr.Failed = true
			continue
		}
		cr.Seeded = cr.Seeded || res.Seeding
		cr.Before += res.Before()
		cr.After += res.Count
		cr.Fixed = appendUnique(cr.Fixed, res.Removals...)
		cr.Marked = appendUnique(cr.Marked, res.Additions...)
	}

	if len(cr.Fixed) > 0 || len(cr.Marked) > 0 {
		r.logger.Info("class changed",
			"class", class.Name, "before", cr.Before, "after", cr.After,
			"fixed", len(cr.Fixed), "marked", len(cr.Marked))
		r.logger.Debug("class change details", "class", class.Name, "fixed", cr.Fixed, "marked", cr.Marked)
	} else {
		r.logger.Info("no changes", "class", class.Name)
	}
	return cr, errs
}

func (r *Runner) scanAll(ctx context.Context, class model.CategoryClass, action model.Action, pages []string, summary *ScanSummary, progress func(page string)) error {
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.scanner.Scan(ctx, page, action, class)
		if err != nil {
			return fmt.Errorf("failed to record scan of %s: %w", page, err)
		}
		summary.add(res)
		if progress != nil {
			progress(page)
		}
	}
	return nil
}

func (r *Runner) saveStats(ctx context.Context, report *RunReport) (err error) {
	r.logger.Info("updating stats")
	site, err := r.source.SiteStatistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch site statistics: %w", err)
	}
	report.Articles = site.Articles

	rollup := model.StatsRollup{
		Date:         r.now(),
		ArticleCount: site.Articles,
		Counts:       make(map[string]int, len(report.Classes)),
	}
	for _, cr := range report.Classes {
		rollup.Counts[cr.Name] = cr.After
	}

	tx, err := r.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = tx.SaveStats(ctx, rollup); err != nil {
		return err
	}
	if r.dryRun {
		return tx.Rollback()
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}
	report.StatsSaved = true
	return nil
}

// Backfill scans, as marks, every snapshot page that has no cause logged for
// its class. It does not diff. Each page's outcome is committed on its own,
// so an interrupted backfill resumes where it stopped.
func (r *Runner) Backfill(ctx context.Context, progress BackfillProgress) (*ScanSummary, error) {
	type job struct {
		class model.CategoryClass
		pages []string
	}

	var (
		jobs  []job
		total int
	)
	for _, class := range r.classes.All() {
		pages, err := r.storage.GetPagesMissingCauses(ctx, class.Name, class.Categories)
		if err != nil {
			return nil, fmt.Errorf("failed to find pages to backfill for %s: %w", class.Name, err)
		}
		if len(pages) == 0 {
			r.logger.Info("all pages already have causes", "class", class.Name)
			continue
		}
		r.logger.Info("pages to backfill", "class", class.Name, "pages", len(pages))
		jobs = append(jobs, job{class: class, pages: pages})
		total += len(pages)
	}

	summary := &ScanSummary{}
	done := 0
	for _, j := range jobs {
		err := r.scanAll(ctx, j.class, model.ActionMarked, j.pages, summary, func(page string) {
			done++
			if progress != nil {
				progress(done, total, page)
			}
		})
		if err != nil {
			return summary, err
		}
	}

	r.logger.Info("backfill complete", "processed", done, "causes", summary.Causes)
	return summary, nil
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		if !slices.Contains(dst, item) {
			dst = append(dst, item)
		}
	}
	return dst
}
