package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/citation"
	"ecagent-hq/ecagent/pkg/citation/index"
	"ecagent-hq/ecagent/pkg/cli"
)

var citationsFlags struct {
	dir    string
	topK   int
	format string
}

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "Search and check reference documents",
	Long: `Work with the local reference documents that back practice citations.

Subcommands:
  search  - Find passages relevant to a query
  check   - Report problems with the resources directory`,
}

var citationsSearchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Find reference passages for a query",
	Long: `Search the indexed reference documents and print the best matching
passages with their citation labels. Passages from documents the citation
policy rejects are marked as such.

Examples:
  ecagent citations search silt fence perimeter
  ecagent citations search --top-k 5 --format json inlet protection`,
	Args: cobra.MinimumNArgs(1),
	RunE: searchCitations,
}

var citationsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the resources directory",
	Args:  cobra.NoArgs,
	RunE:  checkCitations,
}

func init() {
	rootCmd.AddCommand(citationsCmd)
	citationsCmd.AddCommand(citationsSearchCmd, citationsCheckCmd)

	citationsCmd.PersistentFlags().StringVar(&citationsFlags.dir, "dir", "", "resources directory (overrides citations.resources_dir)")
	citationsSearchCmd.Flags().IntVarP(&citationsFlags.topK, "top-k", "k", 0, "number of passages (default: citations.top_k)")
	citationsSearchCmd.Flags().StringVarP(&citationsFlags.format, "format", "f", "text", "output format: text, json, yaml")
}

// searchHit is one passage returned by citations search.
type searchHit struct {
	citation.Citation `yaml:",inline"`
	Label             string `json:"label" yaml:"label"`
	Accepted          bool   `json:"accepted" yaml:"accepted"`
}

type searchHits []searchHit

func (h searchHits) String() string {
	if len(h) == 0 {
		return "No matching passages."
	}
	var b strings.Builder
	for i, hit := range h {
		marker := ""
		if !hit.Accepted {
			marker = " (rejected by citation policy)"
		}
		fmt.Fprintf(&b, "%d. %s score=%.3f%s\n", i+1, hit.Label, hit.Score, marker)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func searchCitations(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(citationsFlags.format))
	if err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if citationsFlags.dir != "" {
		cfg.Citations.ResourcesDir = citationsFlags.dir
	}
	topK := cfg.Citations.TopK
	if citationsFlags.topK > 0 {
		topK = citationsFlags.topK
	}

	idx, err := index.Build(cfg.Citations.ResourcesDir, logger)
	if err != nil {
		return cli.NewCommandError("citations search", err)
	}
	matches, err := idx.Retrieve(commandContext(cmd), strings.Join(args, " "), topK)
	if err != nil {
		return cli.NewCommandError("citations search", err)
	}

	policy := citationPolicy(cfg)
	hits := make(searchHits, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, searchHit{
			Citation: m,
			Label:    m.Label(cfg.Citations.RequiredPrefix),
			Accepted: policy.Accepts(m.DocID),
		})
	}
	return formatter.FormatTo(cmd.OutOrStdout(), hits)
}

func checkCitations(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if citationsFlags.dir != "" {
		cfg.Citations.ResourcesDir = citationsFlags.dir
	}

	out := cmd.OutOrStdout()
	problems := index.ValidateResources(cfg.Citations.ResourcesDir)
	if len(problems) == 0 {
		fmt.Fprintf(out, "✓ %s: all manifest documents present\n", cfg.Citations.ResourcesDir)
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(out, "✗ %s\n", p)
	}
	return cli.NewCommandError("citations check", fmt.Errorf("%d problems in %s", len(problems), cfg.Citations.ResourcesDir))
}
