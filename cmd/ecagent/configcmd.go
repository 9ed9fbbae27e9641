package main

import (
	"strings"

	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/config"
)

var configFlags struct {
	format string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults and ECAGENT_* environment
overrides have been applied.

Examples:
  ecagent config
  ECAGENT_TELEMETRY_LOGGING_LEVEL=debug ecagent config --format json`,
	Args: cobra.NoArgs,
	RunE: showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configFlags.format, "format", "f", "yaml", "output format: yaml, json")
}

func showConfig(cmd *cobra.Command, args []string) error {
	switch cli.OutputFormat(strings.ToLower(configFlags.format)) {
	case "", cli.FormatText:
		return cli.NewConfigError("format", "config is shown as yaml or json")
	}
	formatter, err := cli.NewFormatter(cli.OutputFormat(configFlags.format))
	if err != nil {
		return err
	}
	if _, err := loadConfig(); err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), config.Current())
}
