package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/config"
	"github.com/DiFronzo/CatWatchBot2.0/internal/ticker"
	"github.com/DiFronzo/CatWatchBot2.0/internal/tui"
	"github.com/spf13/cobra"
)

func tickerCmd() *cobra.Command {
	var (
		preset string
		class  string
		limit       int
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "ticker",
		Short: "Show recent fixes and new markings",
		Long: `Show the latest attributed causes grouped by day. Fixes that were later
undone by a new marking of the same page are struck through.`,
		Example: `  # The short feed
  catwatch ticker --preset mini

  # Everything that happened to one class
  catwatch ticker --class kilder --limit 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			query, err := tickerQuery(cfg, preset, class, limit)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			agg := ticker.NewAggregator(store, ticker.IndexURL(cfg.Wiki.APIURL), slog.Default())
			buckets, err := agg.Build(ctx, query)
			if err != nil {
				return err
			}
			if !interactive {
				return cli.RenderTicker(cmd.OutOrStdout(), buckets)
			}

			var buf bytes.Buffer
			if err := cli.RenderTicker(&buf, buckets); err != nil {
				return err
			}
			return tui.Run(ctx, "Ticker: "+preset, buf.String(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "full", "Ticker preset from the configuration (mini, full)")
	cmd.Flags().StringVar(&class, "class", "", "Only show fixes and markings of this class")
	cmd.Flags().IntVar(&limit, "limit", 0, "Override the preset's row limit")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse the feed in a scrollable view")

	return cmd
}

// tickerQuery resolves the preset and flag overrides into a feed query.
func tickerQuery(cfg *config.Config, preset, class string, limit int) (ticker.Query, error) {
	p, ok := cfg.Tickers[preset]
	if !ok {
		return ticker.Query{}, fmt.Errorf("%w: unknown ticker preset %q", common.ErrInvalidConfig, preset)
	}

	q := ticker.Query{
		Fixed:  slices.Clone(p.Fixed),
		Marked: slices.Clone(p.Marked),
		Limit:  p.Limit,
	}
	if class != "" {
		if _, err := lookupClass(cfg.Classes, class); err != nil {
			return ticker.Query{}, err
		}
		q.Fixed = []string{class}
		q.Marked = []string{class}
	}
	if limit > 0 {
		q.Limit = limit
	}
	return q, nil
}
