package main

import (
	"fmt"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/spf13/cobra"
)

const defaultChangesWindow = 30 * 24 * time.Hour

func changesCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "changes <category>",
		Short: "Show pages that joined or left a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			from, err := parseSince(since, time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			events, err := store.GetChanges(ctx, args[0], from)
			if err != nil {
				return err
			}
			class, _ := cfg.Classes.ClassOf(args[0])
			return cli.RenderChanges(cmd.OutOrStdout(), args[0], class, events)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "First day to show, YYYY-MM-DD (default: 30 days ago)")

	return cmd
}

func historyCmd() *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:   "history <page>",
		Short: "Show the recorded causes for a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if class != "" {
				if _, err := lookupClass(cfg.Classes, class); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			causes, err := store.GetCauses(ctx, args[0], class)
			if err != nil {
				return err
			}
			return cli.RenderCauses(cmd.OutOrStdout(), args[0], causes)
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Only show causes of this class")

	return cmd
}

// parseSince parses a YYYY-MM-DD day; empty means defaultChangesWindow
// before now.
func parseSince(since string, now time.Time) (time.Time, error) {
	if since == "" {
		return now.Add(-defaultChangesWindow).UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse("2006-01-02", since)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: %w", since, err)
	}
	return t, nil
}
