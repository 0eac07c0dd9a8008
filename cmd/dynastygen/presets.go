package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/talgya/dynasty-gen/internal/config"
	"github.com/talgya/dynasty-gen/internal/demography"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Print the built-in mortality and fertility presets as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(map[string]any{
			"presets":  demography.Presets(),
			"tunables": demography.DefaultTunables(),
		})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective run configuration as YAML",
	Long: `Config prints the configuration generate would use after merging the
defaults, the config file and DYNASTYGEN_* environment variables. The
output is a valid config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := config.Load(v)
		if err != nil {
			return err
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		out, err := r.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(configCmd)
}
