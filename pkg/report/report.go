package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ecagent-hq/ecagent/pkg/citation"
	"ecagent-hq/ecagent/pkg/engine"
	"ecagent-hq/ecagent/pkg/project"
)

const title = "# INDOT Erosion Control Recommendations"

// Report is everything a rendered report draws on.
type Report struct {
	Project *project.ProjectInput
	Output  *engine.ProjectOutput

	// MissingResources lists problems with the citation resources
	// directory, as returned by index.ValidateResources.
	MissingResources []string

	// Placeholder is the label used for practices without a citation.
	// Default: citation.DefaultPolicy().Placeholder()
	Placeholder string
}

// WriteMarkdown renders r as a markdown document.
func WriteMarkdown(w io.Writer, r Report) error {
	if r.Output == nil {
		return fmt.Errorf("report has no output to render")
	}
	if r.Placeholder == "" {
		r.Placeholder = citation.DefaultPolicy().Placeholder()
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	out := r.Output

	line(title)
	line("")
	line("## Executive summary")
	line("")
	line("Recommendations for **%s** generated deterministically from rules and local resources on %s.",
		orDash(out.ProjectName), out.Timestamp)
	line("")
	line("- Rules evaluated: %d, fired: %d", out.Summary.RulesEvaluated, out.Summary.RulesFired)
	line("- Temporary practices: %d, permanent practices: %d",
		out.Summary.TotalTemporaryPractices, out.Summary.TotalPermanentPractices)
	line("- Pay items: %d, estimated cost: $%.2f", out.Summary.TotalPayItems, out.Summary.TotalEstimatedCost)
	if out.Summary.UnverifiedCitations > 0 {
		line("- Practices without a verified citation: %d", out.Summary.UnverifiedCitations)
	}
	line("")

	line("## Inputs")
	line("")
	line("```")
	b.WriteString(inputSummary(r.Project))
	line("```")
	line("")

	line("## Temporary erosion control recommendations")
	line("")
	writePractices(&b, out.TemporaryPractices, r.Placeholder)
	line("")
	line("## Permanent erosion control recommendations")
	line("")
	writePractices(&b, out.PermanentPractices, r.Placeholder)
	line("")

	line("## Pay items")
	line("")
	if len(out.PayItems) == 0 {
		line("No pay items mapped.")
	} else {
		line(payItemTable(out.PayItems).RenderMarkdown())
	}
	line("")

	line("## Traceability matrix")
	line("")
	line(traceabilityTable(out, r.Placeholder).RenderMarkdown())
	line("")

	line("## Assumptions and clarifying questions")
	line("")
	var questions []string
	if r.Project != nil {
		questions = r.Project.ClarifyingQuestions()
	}
	if len(questions) == 0 {
		line("- All key inputs supplied.")
	} else {
		line("The following clarifications are needed:")
		for _, q := range questions {
			line("- %s", q)
		}
	}
	line("")

	line("## Annotations and risks")
	line("")
	line("- VERIFY WITH INDOT SOURCE for thresholds and pay item numbers where flagged.")
	for _, a := range out.Summary.Annotations {
		line("- **%s** (%s): %s", a.RuleID, a.Kind, a.Message)
	}
	line("")

	line("## Needs INDOT resource")
	line("")
	if len(r.MissingResources) == 0 {
		line("- All referenced INDOT resources present in manifest.")
	} else {
		for _, m := range r.MissingResources {
			line("- Missing INDOT resource: %s", m)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTables renders the practices and pay items of out as console tables.
func WriteTables(w io.Writer, out *engine.ProjectOutput) {
	practices := table.NewWriter()
	practices.SetOutputMirror(w)
	practices.SetStyle(table.StyleLight)
	practices.SetTitle(fmt.Sprintf("%s (%s)", orDash(out.ProjectName), out.Timestamp))
	practices.AppendHeader(table.Row{"Phase", "Practice", "Quantity", "Unit", "Rule", "Citation"})
	for _, p := range out.Practices() {
		phase := "permanent"
		if p.IsTemporary {
			phase = "temporary"
		}
		label := ""
		if p.Citation != nil {
			label = p.Citation.Label
		}
		practices.AppendRow(table.Row{phase, p.PracticeType, engine.Round2(p.Quantity), p.Unit, p.RuleID, label})
	}
	practices.Render()

	items := payItemTable(out.PayItems)
	items.SetOutputMirror(w)
	items.SetStyle(table.StyleLight)
	items.AppendFooter(table.Row{"", "", "", "", "Total", fmt.Sprintf("%.2f", out.Summary.TotalEstimatedCost)})
	items.Render()

	fmt.Fprintf(w, "(%d rules evaluated, %d fired, %d annotations)\n",
		out.Summary.RulesEvaluated, out.Summary.RulesFired, len(out.Summary.Annotations))
}

func writePractices(b *strings.Builder, practices []engine.Practice, placeholder string) {
	if len(practices) == 0 {
		b.WriteString("- None identified\n")
		return
	}
	for _, p := range practices {
		fmt.Fprintf(b, "- **%s** (%s): %s %s at %s. %s %s\n",
			p.PracticeType, p.RuleID, formatQuantity(p.Quantity), p.Unit,
			orDash(p.Location), p.Justification, citationLabel(&p, placeholder))
		if p.Notes != "" {
			fmt.Fprintf(b, "  - Note: %s\n", p.Notes)
		}
	}
}

func payItemTable(items []engine.PayItem) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Pay Item", "Description", "Quantity", "Unit", "Unit Cost", "Extended", "Practice"})
	for _, p := range items {
		unitCost := "n/a"
		if p.EstimatedUnitCost != nil {
			unitCost = fmt.Sprintf("%.2f", *p.EstimatedUnitCost)
			if p.PriceSource != "" {
				unitCost += " (" + p.PriceSource + ")"
			}
		}
		t.AppendRow(table.Row{
			orDash(p.ItemNumber), p.Description, formatQuantity(p.Quantity), p.Unit,
			unitCost, fmt.Sprintf("%.2f", engine.Round2(p.ExtendedCost())), p.ECPracticeRef,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return t
}

func traceabilityTable(out *engine.ProjectOutput, placeholder string) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Practice", "Rule", "Rule source", "INDOT source"})
	for _, p := range out.Practices() {
		t.AppendRow(table.Row{p.PracticeType, p.RuleID, p.RuleSource, citationLabel(p, placeholder)})
	}
	return t
}

func citationLabel(p *engine.Practice, placeholder string) string {
	if p.Citation == nil || p.Citation.Label == "" {
		return placeholder
	}
	return p.Citation.Label
}

func inputSummary(p *project.ProjectInput) string {
	if p == nil {
		return "(project input not available)\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", p.ProjectName)
	fmt.Fprintf(&b, "Jurisdiction: %s\n", orDash(p.Jurisdiction))
	fmt.Fprintf(&b, "Disturbed area: %s acres\n", formatQuantity(p.TotalDisturbedAcres))
	fmt.Fprintf(&b, "Soil: %s, slope: %s (%s%%)\n", p.PredominantSoil, p.PredominantSlope, formatQuantity(p.AverageSlopePercent))
	fmt.Fprintf(&b, "Drainage features: %d\n", len(p.DrainageFeatures))
	for _, d := range p.DrainageFeatures {
		fmt.Fprintf(&b, "  - %s %s at %s (%s acres)\n", d.ID, d.Type, orDash(d.Location), formatQuantity(d.DrainageAreaAcres))
	}
	fmt.Fprintf(&b, "Phases: %d\n", len(p.Phases))
	return b.String()
}

func formatQuantity(v float64) string {
	s := fmt.Sprintf("%.2f", engine.Round2(v))
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
