package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ecagent",
	Short: "ecagent - erosion control rules engine",
	Long: `ecagent turns roadway project facts into erosion-control recommendations.

Each run evaluates a declarative rule set against the project and produces:
  - Temporary and permanent practices with computed quantities
  - Pay items with unit costs from the rules or bid history
  - A citation for every practice, traced back to the rule that fired
  - An evidence record of what went in and what came out`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
