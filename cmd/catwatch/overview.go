package main

import (
	"bytes"
	"log/slog"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/DiFronzo/CatWatchBot2.0/internal/overview"
	"github.com/DiFronzo/CatWatchBot2.0/internal/tui"
	"github.com/spf13/cobra"
)

func overviewCmd() *cobra.Command {
	var (
		class       string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "List the pages in each class and when they were marked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			builder := overview.NewBuilder(store, slog.Default())
			var overviews []overview.ClassOverview
			if class == "" {
				overviews, err = builder.Build(ctx, cfg.Classes)
				if err != nil {
					return err
				}
			} else {
				cls, err := lookupClass(cfg.Classes, class)
				if err != nil {
					return err
				}
				ov, err := builder.BuildClass(ctx, cls)
				if err != nil {
					return err
				}
				overviews = []overview.ClassOverview{ov}
			}

			if !interactive {
				return cli.RenderOverview(cmd.OutOrStdout(), overviews)
			}
			var buf bytes.Buffer
			if err := cli.RenderOverview(&buf, overviews); err != nil {
				return err
			}
			return tui.Run(ctx, "Overview", buf.String(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Only show this class")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse the overview in a scrollable view")

	return cmd
}
