package main

import (
	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for ecagent.

Bash:
  $ source <(ecagent completion bash)
  $ ecagent completion bash > /etc/bash_completion.d/ecagent

Zsh:
  $ ecagent completion zsh > "${fpath[1]}/_ecagent"
  $ compinit

Fish:
  $ ecagent completion fish > ~/.config/fish/completions/ecagent.fish

PowerShell:
  PS> ecagent completion powershell | Out-String | Invoke-Expression
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      generateCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)

	// Project and rule arguments are YAML files.
	yamlFiles := func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	}
	processCmd.ValidArgsFunction = yamlFiles
	validateCmd.ValidArgsFunction = yamlFiles
	watchCmd.ValidArgsFunction = yamlFiles
	rulesLintCmd.ValidArgsFunction = yamlFiles
}

func generateCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return cli.NewConfigError("shell", "unsupported shell: "+args[0])
}
