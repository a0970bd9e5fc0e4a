package main

import (
	"fmt"

	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// classesDocument mirrors the "classes" key of the config file.
type classesDocument struct {
	Classes []model.CategoryClass `yaml:"classes"`
}

func classesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Print the effective class table as YAML",
		Long: `Print the category classes in effect, either from the configuration file
or the built-in table. The output can be pasted into config.yaml.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(classesDocument{Classes: cfg.Classes.All()}); err != nil {
				return fmt.Errorf("failed to encode classes: %w", err)
			}
			return enc.Close()
		},
	}
}
