// Command dynastygen grows stochastic dynasties and exports them to
// GEDCOM and CK3 history files.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/dynasty-gen/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// v holds flags, environment and config file values for every command.
var v = config.NewViper("")

// configErr is set by initConfig and reported before any command runs.
var configErr error

var rootCmd = &cobra.Command{
	Use:   "dynastygen",
	Short: "Generate stochastic family trees for noble dynasties",
	Long: `dynastygen grows a dynasty from a single founder, generation by generation,
drawing lifespans, marriages and births from configurable mortality and
fertility profiles. Runs are reproducible from their seed, can be saved to
SQLite, and can be exported as GEDCOM or as a CK3 character history file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)
		return configErr
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./dynastygen.yaml or ~/.config/dynastygen/dynastygen.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "SQLite database for saved runs")
	v.BindPFlag("output.db", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	if err := config.ReadFile(v); err != nil {
		configErr = err
		return
	}
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
