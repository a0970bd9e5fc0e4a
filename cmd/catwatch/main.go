package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DiFronzo/CatWatchBot2.0/internal/cli"
	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "catwatch",
		Short: "🧹 Maintenance category watcher for Wikipedia",
		Long: `catwatch follows the maintenance categories of a wiki, records which pages
joined or left them, and finds the revision and user that added or removed
the maintenance template.

The activity feed, class overview and daily statistics are read from the
local log.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/catwatch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(tickerCmd())
	rootCmd.AddCommand(overviewCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(changesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(classesCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkpointCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the top-level error. A UserError shows only its message;
// a bare cancellation prints nothing since the interrupt handler already did.
func reportError(w io.Writer, err error) {
	var userErr *common.UserError
	switch {
	case errors.As(err, &userErr):
		fmt.Fprintln(w, cli.FormatError(userErr.UserMessage)) //nolint:errcheck // exiting anyway
	case errors.Is(err, context.Canceled):
	default:
		fmt.Fprintln(w, cli.FormatError(err.Error())) //nolint:errcheck // exiting anyway
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/catwatch", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CATWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(os.Stderr, viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "catwatch %s\n", version)
			return err
		},
	}
}
