package main

import (
	"fmt"
	"log/slog"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/DiFronzo/CatWatchBot2.0/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates automatically; this one is useful to create the
database up front or to check its version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(store)

			ctx := cmd.Context()
			current, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status {
				_, err := fmt.Fprintf(out, "%s\n  Database: %s\n  Current version: %d\n  Latest version: %d\n",
					cli.FormatTitle(cli.FolderIcon+" Database Migration Status"),
					cfg.DatabasePath, current, storage.ExpectedSchemaVersion)
				return err
			}

			slog.Info("Running database migrations", "database", cfg.DatabasePath, "from", current)
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
			return err
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Show current migration status without applying changes")

	return cmd
}
