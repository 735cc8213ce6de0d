package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs plain text reports for terminals.
type SimpleWriter struct {
	baseWriter

	// verbose adds descriptions and impact to each issue.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeIssues(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs one line per report.
func (w *SimpleWriter) WriteSummary(reports []*model.Report) (int, error) {
	var sb strings.Builder

	writeSection(&sb, "AUDIT SUMMARY")
	fmt.Fprintf(&sb, "  %-40s %6s %9s %9s %6s\n", "SOURCE", "SCORE", "CRITICAL", "MODERATE", "MINOR")
	for _, r := range reports {
		fmt.Fprintf(&sb, "  %-40s %6d %9d %9d %6d\n",
			truncateString(r.Source(), 40), r.Score(), r.CriticalCount(), r.ModerateCount(), r.MinorCount())
	}

	accessible := 0
	for _, r := range reports {
		if r.IsAccessible() {
			accessible++
		}
	}
	fmt.Fprintf(&sb, "\n  %d of %d audited pages are accessible\n\n", accessible, len(reports))

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                      ACCESSIBILITY REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Source:     %s\n", report.Source())
	fmt.Fprintf(sb, "Scan Date:  %s\n", report.ScannedAt().Format(timeLayout))
	fmt.Fprintf(sb, "Score:      %d/100 (%s)\n", report.Score(), status(report.Score()))
	fmt.Fprintf(sb, "Rating:     %s\n\n", rating(report.Score()))
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "SEVERITY SUMMARY")

	fmt.Fprintf(sb, "  CRITICAL: %d\n", report.CriticalCount())
	fmt.Fprintf(sb, "  MODERATE: %d\n", report.ModerateCount())
	fmt.Fprintf(sb, "  MINOR:    %d\n", report.MinorCount())
	fmt.Fprintf(sb, "\n  TOTAL:    %d issues\n\n", report.TotalCount())

	counts := report.CategoryCounts()
	if len(counts) == 0 {
		return
	}
	sb.WriteString("  By category:\n")
	for _, c := range model.AllCategories() {
		if n := counts[c]; n > 0 {
			fmt.Fprintf(sb, "    %-12s %d\n", label(c.String()), n)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIssues(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "ISSUES")

	if !report.HasIssues() {
		sb.WriteString("  No accessibility issues found. Excellent accessibility!\n\n")
		return
	}

	for _, severity := range severityOrder {
		issues := report.IssuesBySeverity(severity)
		if len(issues) == 0 {
			continue
		}

		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), label(severity.String()))
		for _, issue := range issues {
			fmt.Fprintf(sb, "  * %s\n", issue.Title)
			fmt.Fprintf(sb, "    Category:   %s\n", label(issue.Category.String()))
			if issue.Element != "" {
				fmt.Fprintf(sb, "    Element:    %s\n", oneLine(issue.Element))
			}
			if issue.Guideline != "" {
				fmt.Fprintf(sb, "    Guideline:  %s\n", issue.Guideline)
			}
			if issue.Suggestion != "" {
				fmt.Fprintf(sb, "    Fix:        %s\n", issue.Suggestion)
			}
			if w.verbose {
				if issue.Description != "" {
					fmt.Fprintf(sb, "    Details:    %s\n", issue.Description)
				}
				fmt.Fprintf(sb, "    Impact:     %d/10\n", issue.Impact)
			}
		}
		sb.WriteString("\n")
	}
}

func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityModerate:
		return "!!"
	case model.SeverityMinor:
		return "-"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by a11yscan\n")
	sb.WriteString("https://github.com/nao1215/a11yscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
