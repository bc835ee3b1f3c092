package cli

import (
	"fmt"
	"strings"

	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/service"
)

// RenderExtraction formats one extraction result for terminal review.
func RenderExtraction(file string, result model.ExtractionResult) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("⛽ %s", file)))
	b.WriteString("\n")

	if !result.Success {
		for _, e := range result.Errors {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  ✗ %s", e)))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  lines: %d extracted, %d filtered\n",
		len(result.Lines), result.FilteredLines))
	if result.InvoiceMetadata.InvoiceNumber != "" {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("  invoice %s", result.InvoiceMetadata.InvoiceNumber)))
		if result.InvoiceMetadata.InvoiceDate != nil {
			b.WriteString(SubtleStyle.Render(fmt.Sprintf(" of %s", result.InvoiceMetadata.InvoiceDate.Format("2006-01-02"))))
		}
		b.WriteString("\n")
	}

	for _, line := range result.Lines {
		b.WriteString(renderLine(&line))
	}

	return b.String()
}

func renderLine(line *model.ExtractedLine) string {
	var parts []string
	for _, name := range model.FieldNames {
		if value, ok := line.FieldString(name); ok {
			parts = append(parts, fmt.Sprintf("%s=%s", name, value))
		}
	}

	out := fmt.Sprintf("  %3d. %s\n", line.LineNumber, strings.Join(parts, "  "))
	for _, e := range line.Errors {
		out += WarningStyle.Render(fmt.Sprintf("       ⚠ %s", e)) + "\n"
	}
	return out
}

// RenderDecisions formats match decisions as a review table.
func RenderDecisions(decisions []model.MatchDecision) string {
	if len(decisions) == 0 {
		return SubtleStyle.Render("no lines to match") + "\n"
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-6s %-10s %-10s %s", "line", "outcome", "score", "candidate")))
	b.WriteString("\n")

	for _, decision := range decisions {
		switch decision.Outcome {
		case model.OutcomeAuto:
			b.WriteString(SuccessStyle.Render(fmt.Sprintf("%-6d %-10s %-10.2f plate %s",
				decision.LineNumber, decision.Outcome,
				decision.Matched.Composite, decision.Matched.Candidate.Plate)))
			b.WriteString("\n")
		case model.OutcomeSuggested:
			top := decision.Suggestions[0]
			b.WriteString(WarningStyle.Render(fmt.Sprintf("%-6d %-10s %-10.2f plate %s (+%d more)",
				decision.LineNumber, decision.Outcome,
				top.Composite, top.Candidate.Plate, len(decision.Suggestions)-1)))
			b.WriteString("\n")
		case model.OutcomeUnmatched:
			b.WriteString(SubtleStyle.Render(fmt.Sprintf("%-6d %-10s", decision.LineNumber, decision.Outcome)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderImportSummary formats the aggregate outcome of an import run.
func RenderImportSummary(summary *service.ImportSummary) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Import summary"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  run %s\n", summary.RunID))
	b.WriteString(fmt.Sprintf("  files: %d imported, %d skipped, %d failed\n",
		summary.Imported, summary.Skipped, summary.Failed))
	b.WriteString(fmt.Sprintf("  lines: %d auto-matched, %d suggested, %d unmatched\n",
		summary.Auto, summary.Suggested, summary.Unmatched))

	for _, result := range summary.Results {
		if result.Err != nil && !result.Skipped {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  ✗ %s: %v", result.File, result.Err)))
			b.WriteString("\n")
		}
	}

	return b.String()
}
