package main

import (
	"fmt"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var (
		class string
		year  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the daily member count of a class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := lookupClass(cfg.Classes, class); err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().Year()
			}
			from, to := yearRange(year)

			ctx := cmd.Context()
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			points, err := store.GetStats(ctx, class, from, to)
			if err != nil {
				return err
			}
			return cli.RenderStats(cmd.OutOrStdout(), fmt.Sprintf("%s %d", class, year), points)
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Category class")
	cmd.Flags().IntVar(&year, "year", 0, "Calendar year (default: this year)")
	_ = cmd.MarkFlagRequired("class")

	return cmd
}

// yearRange returns the first and last day of year in UTC.
func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return from, to
}
