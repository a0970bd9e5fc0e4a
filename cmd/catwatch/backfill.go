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

func backfillCmd() *cobra.Command {
	var (
		simulate   bool
		checkpoint bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Find causes for tagged pages that have none",
		Long: `Scan the history of every page in the snapshot that has no recorded cause
for its class, and log the revision that inserted the maintenance template.

Use this after seeding a new class. No membership diff is made.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "catwatch backfill")
			defer handler.Stop()

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if checkpoint && !simulate {
				manager, err := store.NewCheckpointManager()
				if err != nil {
					return fmt.Errorf("failed to create checkpoint manager: %w", err)
				}
				tag := "pre-backfill-" + time.Now().Format("2006-01-02-150405")
				info, err := manager.Create(ctx, tag, "Before backfill", true)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Created checkpoint "+info.ID)) //nolint:errcheck // best effort notice
			}

			logger := runLogger()
			client, err := newWikiClient(cfg, logger)
			if err != nil {
				return err
			}

			runner := engine.NewRunner(client, store, cfg.Classes, engineOptions(cfg, logger, simulate, false))
			summary, err := runner.Backfill(ctx, cli.BackfillProgress(cmd.ErrOrStderr()))
			if summary != nil {
				if cfg.MetricsTextfile != "" {
					recorder := metrics.NewRecorder()
					recorder.ObserveScans(summary)
					if mErr := recorder.WriteTextfile(cfg.MetricsTextfile); mErr != nil {
						slog.Warn("failed to write metrics", "error", mErr)
					}
				}
				if renderErr := cli.RenderScanSummary(cmd.OutOrStdout(), summary); renderErr != nil {
					return renderErr
				}
			}
			if handler.WasInterrupted() {
				return common.NewUserError("backfill interrupted", ctx.Err())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Read everything but write nothing")
	cmd.Flags().BoolVar(&checkpoint, "checkpoint", false, "Create a database checkpoint first")

	return cmd
}
