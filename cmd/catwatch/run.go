package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/engine"
	"github.com/DiFronzo/CatWatchBot2.0/internal/metrics"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		simulate     bool
		articlesOnly bool
		backfill     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Record membership changes and attribute them to revisions",
		Long: `Compare every maintenance category with the last recorded snapshot, log
the pages that joined or left, find the revision that inserted or removed the
maintenance template, and store today's member counts.

Each category and each page is committed on its own, so an interrupted run
can simply be started again.`,
		Example: `  # Daily run
  catwatch run

  # See what would be recorded without writing anything
  catwatch run --simulate --log-level debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "catwatch run")
			defer handler.Stop()

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			logger := runLogger()
			client, err := newWikiClient(cfg, logger)
			if err != nil {
				return err
			}

			if simulate {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("Simulation mode: nothing will be written")) //nolint:errcheck // best effort notice
			}

			runner := engine.NewRunner(client, store, cfg.Classes, engineOptions(cfg, logger, simulate, articlesOnly))
			report, runErr := runner.Run(ctx)
			if report != nil {
				if err := cli.RenderRunReport(cmd.OutOrStdout(), report, simulate); err != nil {
					slog.Warn("failed to render run report", "error", err)
				}
			}
			if report != nil && cfg.MetricsTextfile != "" {
				recorder := metrics.NewRecorder()
				recorder.ObserveRun(report, time.Now(), runErr == nil)
				if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
					slog.Warn("failed to write metrics", "error", err)
				}
			}
			if handler.WasInterrupted() {
				return common.NewUserError("run interrupted", ctx.Err())
			}
			if runErr != nil {
				return fmt.Errorf("run finished with errors: %w", runErr)
			}

			if !backfill {
				return nil
			}
			summary, err := runner.Backfill(ctx, cli.BackfillProgress(cmd.ErrOrStderr()))
			if summary != nil {
				if renderErr := cli.RenderScanSummary(cmd.OutOrStdout(), summary); renderErr != nil {
					slog.Warn("failed to render backfill summary", "error", renderErr)
				}
			}
			if handler.WasInterrupted() {
				return common.NewUserError("backfill interrupted", ctx.Err())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Read everything but write nothing")
	cmd.Flags().BoolVar(&articlesOnly, "articles-only", false, "Only consider pages in the article namespace")
	cmd.Flags().BoolVar(&backfill, "backfill", false, "Afterwards, scan tagged pages that have no recorded cause")

	return cmd
}
