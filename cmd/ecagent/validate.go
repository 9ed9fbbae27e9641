package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ecagent-hq/ecagent/pkg/cli"
	"ecagent-hq/ecagent/pkg/project"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate PROJECT_FILE...",
	Short: "Validate project files",
	Long: `Check project files against the input schema and list the clarifying
questions each project leaves open.

Questions do not fail validation; they name inputs that change which rules
fire, such as proximity to waters or maximum slope.

Examples:
  ecagent validate project.yaml
  ecagent validate --format json projects/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateProjects,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format: text, json, yaml")
}

// projectCheck is the validation result for one project file.
type projectCheck struct {
	File      string   `json:"file" yaml:"file"`
	Project   string   `json:"project,omitempty" yaml:"project,omitempty"`
	Valid     bool     `json:"valid" yaml:"valid"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Questions []string `json:"questions,omitempty" yaml:"questions,omitempty"`
}

type projectChecks []projectCheck

func (c projectChecks) String() string {
	var b strings.Builder
	for i, check := range c {
		if i > 0 {
			b.WriteByte('\n')
		}
		if check.Valid {
			fmt.Fprintf(&b, "✓ %s", check.File)
		} else {
			fmt.Fprintf(&b, "✗ %s", check.File)
		}
		if check.Project != "" {
			fmt.Fprintf(&b, " (%s)", check.Project)
		}
		b.WriteByte('\n')
		for _, e := range check.Errors {
			fmt.Fprintf(&b, "  error: %s\n", e)
		}
		for _, q := range check.Questions {
			fmt.Fprintf(&b, "  question: %s\n", q)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func validateProjects(cmd *cobra.Command, args []string) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(validateFlags.format))
	if err != nil {
		return err
	}

	checks := make(projectChecks, 0, len(args))
	invalid := 0
	for _, path := range args {
		check := checkProject(path)
		if !check.Valid {
			invalid++
		}
		checks = append(checks, check)
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), checks); err != nil {
		return err
	}
	if invalid > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d of %d projects are invalid", invalid, len(args)))
	}
	return nil
}

// checkProject decodes path without validating so that every invalid field
// is reported on its own and clarifying questions are listed either way.
func checkProject(path string) projectCheck {
	check := projectCheck{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		check.Errors = []string{fmt.Sprintf("failed to read project file: %v", err)}
		return check
	}
	input, err := project.Parse(data, project.FormatFromPath(path))
	if err != nil {
		check.Errors = []string{fmt.Sprintf("failed to parse %s: %v", path, err)}
		return check
	}
	input.SourceFile = path
	check.Project = input.ProjectName
	check.Questions = input.ClarifyingQuestions()

	if err := input.Validate(); err != nil {
		check.Errors = errorMessages(err)
		return check
	}
	check.Valid = true
	return check
}

// errorMessages flattens an ErrorList into one message per error.
func errorMessages(err error) []string {
	var list *ruleErrors.ErrorList
	if errors.As(err, &list) {
		messages := make([]string, 0, len(list.Errors))
		for _, e := range list.Errors {
			messages = append(messages, e.Error())
		}
		return messages
	}
	return []string{err.Error()}
}
