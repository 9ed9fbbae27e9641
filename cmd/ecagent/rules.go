package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/rules/ast"
)

var rulesFlags struct {
	format string
	file   string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule files",
	Long: `Inspect and validate erosion control rule files.

Subcommands:
  lint  - Validate rule files
  list  - List the rules in a rule set, in evaluation order`,
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint [RULE_FILE...]",
	Short: "Validate rule files",
	Long: `Parse and validate rule files.

The lint command checks each file the same way the engine loads it:
  - YAML syntax and size limits
  - Required fields and value types
  - Practice types and operators
  - Composite conditions and nesting depth
  - Quantity formulas

Without arguments the configured rule file (or the built-in rules) is checked.

Examples:
  ecagent rules lint rules.yaml
  ecagent rules lint --format json rules/*.yaml`,
	RunE: lintRules,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Long: `List the rules of the configured rule set, or of --file, in the order the
engine evaluates them.

Examples:
  ecagent rules list
  ecagent rules list --file rules.yaml --format yaml`,
	Args: cobra.NoArgs,
	RunE: listRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesLintCmd, rulesListCmd)

	rulesLintCmd.Flags().StringVarP(&rulesFlags.format, "format", "f", "text", "output format: text, json, yaml")
	rulesListCmd.Flags().StringVarP(&rulesFlags.format, "format", "f", "text", "output format: text, json, yaml")
	rulesListCmd.Flags().StringVar(&rulesFlags.file, "file", "", "rule file (overrides rules.file)")
}

// lintResult is the outcome of linting one rule file.
type lintResult struct {
	File   string   `json:"file" yaml:"file"`
	Valid  bool     `json:"valid" yaml:"valid"`
	Rules  int      `json:"rules" yaml:"rules"`
	Hash   string   `json:"hash,omitempty" yaml:"hash,omitempty"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type lintResults []lintResult

func (r lintResults) String() string {
	var b strings.Builder
	valid := 0
	for _, res := range r {
		if res.Valid {
			valid++
			fmt.Fprintf(&b, "✓ %s: %d rules (%s)\n", res.File, res.Rules, shortHash(res.Hash))
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", res.File)
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\n%d of %d files valid", valid, len(r))
	return b.String()
}

func lintRules(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(rulesFlags.format))
	if err != nil {
		return err
	}
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files = []string{cfg.Rules.File}
	}

	loader := newLoader(cfg)
	results := make(lintResults, 0, len(files))
	failed := 0
	for _, file := range files {
		res := lintResult{File: displayRuleFile(file)}
		rs, err := loader.Load(file)
		if err != nil {
			res.Errors = errorMessages(err)
			failed++
		} else {
			res.Valid = true
			res.Rules = rs.Len()
			res.Hash = rs.Hash
		}
		results = append(results, res)
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if failed > 0 {
		return cli.NewCommandError("rules lint", fmt.Errorf("%d of %d rule files are invalid", failed, len(files)))
	}
	return nil
}

// ruleSummary is one row of rules list.
type ruleSummary struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Priority  int      `json:"priority" yaml:"priority"`
	Practice  string   `json:"practice_type" yaml:"practice_type"`
	Temporary bool     `json:"is_temporary" yaml:"is_temporary"`
	Quantity  string   `json:"quantity_formula" yaml:"quantity_formula"`
	Unit      string   `json:"unit" yaml:"unit"`
	PayItem   string   `json:"pay_item,omitempty" yaml:"pay_item,omitempty"`
	UnitCost  *float64 `json:"estimated_unit_cost,omitempty" yaml:"estimated_unit_cost,omitempty"`
	Source    string   `json:"source" yaml:"source"`
}

type ruleSummaries []ruleSummary

func (r ruleSummaries) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Priority", "ID", "Practice", "Quantity", "Unit", "Pay Item", "Source"})
	for _, s := range r {
		practice := s.Practice
		if s.Temporary {
			practice += " (temp)"
		}
		t.AppendRow(table.Row{strconv.Itoa(s.Priority), s.ID, practice, s.Quantity, s.Unit, s.PayItem, s.Source})
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}

func listRules(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(rulesFlags.format))
	if err != nil {
		return err
	}
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	rs, _, err := loadRules(cfg, rulesFlags.file)
	if err != nil {
		return cli.NewCommandError("rules list", err)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), summarizeRules(rs))
}

func summarizeRules(rs *ast.RuleSet) ruleSummaries {
	out := make(ruleSummaries, 0, rs.Len())
	for _, r := range rs.Rules {
		out = append(out, ruleSummary{
			ID:        r.ID,
			Name:      r.Name,
			Priority:  r.Priority,
			Practice:  string(r.Action.PracticeType),
			Temporary: r.Action.IsTemporary,
			Quantity:  r.Action.QuantityFormula,
			Unit:      r.Action.Unit,
			PayItem:   r.Action.PayItemNumber,
			UnitCost:  r.Action.EstimatedUnitCost,
			Source:    r.Source,
		})
	}
	return out
}

func displayRuleFile(path string) string {
	if path == "" {
		return "<defaults>"
	}
	return path
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
