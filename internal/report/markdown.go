package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/a11yscan/internal/model"
)

// MarkdownWriter outputs GitHub flavored Markdown reports with tables,
// alerts and a mermaid pie chart of the severity distribution.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeCategories(md, report)
	w.writeIssues(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs a table with one row per report.
func (w *MarkdownWriter) WriteSummary(reports []*model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Accessibility Audit Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(reports))
	accessible := 0
	for _, r := range reports {
		if r.IsAccessible() {
			accessible++
		}
		rows = append(rows, []string{
			"`" + tableCell(r.Source()) + "`",
			strconv.Itoa(r.Score()),
			status(r.Score()),
			strconv.Itoa(r.CriticalCount()),
			strconv.Itoa(r.ModerateCount()),
			strconv.Itoa(r.MinorCount()),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Score", "Status", "Critical", "Moderate", "Minor"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("%d of %d audited pages are accessible.", accessible, len(reports))
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Accessibility Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + tableCell(report.Source()) + "`"},
			{"Scan Date", report.ScannedAt().Format(timeLayout)},
			{"Score", fmt.Sprintf("**%d/100**", report.Score())},
			{"Status", statusIcon(report.Score()) + " " + status(report.Score())},
		},
	})
	md.PlainText("")
	md.PlainText("*" + rating(report.Score()) + "*")
	md.PlainText("")
}

func statusIcon(score int) string {
	if model.IsAccessible(score) {
		return "✅"
	}
	return "⚠️"
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count", "Penalty"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount()), "-" + strconv.Itoa(model.CriticalPenalty) + " each"},
			{"🟡 Moderate", strconv.Itoa(report.ModerateCount()), "-" + strconv.Itoa(model.ModeratePenalty) + " each"},
			{"🔵 Minor", strconv.Itoa(report.MinorCount()), "-" + strconv.Itoa(model.MinorPenalty) + " each"},
			{"**Total**", "**" + strconv.Itoa(report.TotalCount()) + "**", ""},
		},
	})
	md.PlainText("")

	if report.HasIssues() {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Severity Distribution"),
		piechart.WithShowData(true),
	)

	tally := report.Tally()
	if tally.Critical > 0 {
		chart.LabelAndIntValue("Critical", uint64(tally.Critical))
	}
	if tally.Moderate > 0 {
		chart.LabelAndIntValue("Moderate", uint64(tally.Moderate))
	}
	if tally.Minor > 0 {
		chart.LabelAndIntValue("Minor", uint64(tally.Minor))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	switch {
	case report.CriticalCount() > 0:
		md.Cautionf(
			"%d critical issue(s) block some users from using this page and should be fixed first.",
			report.CriticalCount(),
		)
	case report.ModerateCount() > 0:
		md.Warningf(
			"%d moderate issue(s) make this page harder to use with assistive technology.",
			report.ModerateCount(),
		)
	case report.HasIssues():
		md.Note("Only minor issues detected.")
	default:
		md.Tip("No accessibility issues found. Excellent accessibility!")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, report *model.Report) {
	counts := report.CategoryCounts()
	if len(counts) == 0 {
		return
	}

	md.H2("Categories")
	md.PlainText("")

	var rows [][]string
	for _, c := range model.AllCategories() {
		if n := counts[c]; n > 0 {
			rows = append(rows, []string{label(c.String()), strconv.Itoa(n)})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Issues"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.Report) {
	md.H2("Issues")
	md.PlainText("")

	if !report.HasIssues() {
		md.PlainText("No accessibility issues found.")
		md.PlainText("")
		return
	}

	headers := map[model.Severity]string{
		model.SeverityCritical: "### 🔴 Critical",
		model.SeverityModerate: "### 🟡 Moderate",
		model.SeverityMinor:    "### 🔵 Minor",
	}
	for _, severity := range severityOrder {
		issues := report.IssuesBySeverity(severity)
		if len(issues) == 0 {
			continue
		}
		md.PlainText(headers[severity])
		md.PlainText("")
		w.writeIssuesTable(md, issues)
	}
}

func (w *MarkdownWriter) writeIssuesTable(md *markdown.Markdown, issues []model.Issue) {
	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{
			textCell(issue.Title),
			label(issue.Category.String()),
			codeCell(truncateString(oneLine(issue.Element), 60)),
			textCell(orDash(issue.Guideline)),
			textCell(truncateString(orDash(issue.Suggestion), 80)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Category", "Element", "Guideline", "Suggestion"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, issue := range issues {
		if issue.Description == "" {
			continue
		}
		md.Details(escapeHTML(issue.Title), fmt.Sprintf("%s\n\nImpact: %d/10", escapeHTML(issue.Description), issue.Impact))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [a11yscan](https://github.com/nao1215/a11yscan)*")
}

// tableCell makes s safe inside a Markdown table cell.
func tableCell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}

// htmlEscaper turns tags in rule text such as "Add a <label> element" into
// entities so Markdown renderers show them instead of parsing them.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// textCell makes prose safe inside a table cell. Code spans use codeCell,
// where entities would show literally.
func textCell(s string) string {
	return tableCell(escapeHTML(s))
}

// codeCell renders s as inline code inside a table cell, or "-" when empty.
func codeCell(s string) string {
	if s == "" {
		return "-"
	}
	s = tableCell(s)
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}
