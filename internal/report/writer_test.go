package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

var testTime = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

// createTestReport creates a report with one issue per severity.
func createTestReport() *model.Report {
	issues := []model.Issue{
		model.GetRuleInfo(model.RuleSkippedHeading).NewIssue("i-1", "<h4>Deep</h4>"),
		model.GetRuleInfo(model.RuleImageMissingAlt).NewIssue("i-2", `<img src="a|b.png">`),
		{
			ID:       "i-3",
			Category: model.CategoryImages,
			Severity: model.SeverityMinor,
			Title:    "Decorative image announced",
			Impact:   3,
		},
	}
	return model.NewReport("https://example.com/", testTime, issues)
}

func emptyReport() *model.Report {
	return model.NewReport("https://clean.example/", testTime, nil)
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and score", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"ACCESSIBILITY REPORT",
			"https://example.com/",
			"2026-05-04 10:30:00 UTC",
			"Score:      74/100 (Needs Improvement)",
			"Good progress",
			"CRITICAL: 1",
			"MODERATE: 1",
			"MINOR:    1",
			"TOTAL:    3 issues",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("lists issues most severe first", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		critical := strings.Index(output, "[!!!] Critical")
		moderate := strings.Index(output, "[!!] Moderate")
		minor := strings.Index(output, "[-] Minor")
		if critical < 0 || moderate < 0 || minor < 0 {
			t.Fatalf("missing severity sections:\n%s", output)
		}
		if critical >= moderate || moderate >= minor {
			t.Errorf("severity sections out of order: %d %d %d", critical, moderate, minor)
		}
		if !strings.Contains(output, "Category:   Images") || !strings.Contains(output, "Category:   Navigation") {
			t.Error("expected title-cased categories")
		}
	})

	t.Run("verbose adds description and impact", func(t *testing.T) {
		t.Parallel()

		var quiet, verbose bytes.Buffer
		if _, err := NewSimpleWriter(&quiet).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewSimpleWriter(&verbose, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(quiet.String(), "Impact:") {
			t.Error("impact should only be shown in verbose mode")
		}
		if !strings.Contains(verbose.String(), "Impact:     9/10") {
			t.Errorf("expected impact in verbose output:\n%s", verbose.String())
		}
	})

	t.Run("zero issues is a positive outcome", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(emptyReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, wrote %d", n, buf.Len())
		}
		output := buf.String()
		if !strings.Contains(output, "No accessibility issues found") {
			t.Error("expected positive outcome message")
		}
		if !strings.Contains(output, "100/100 (Accessible)") {
			t.Error("expected perfect score")
		}
	})

	t.Run("summary lists every report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary([]*model.Report{createTestReport(), emptyReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "https://clean.example/") || !strings.Contains(output, "1 of 2 audited pages are accessible") {
			t.Errorf("unexpected summary:\n%s", output)
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report fields", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["score"] != float64(74) || got["total_count"] != float64(3) {
			t.Errorf("unexpected JSON: %v", got)
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(emptyReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"source\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent("", "\t")).Write(emptyReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t\"source\"") {
			t.Errorf("expected tab indentation, got %s", buf.String())
		}
	})

	t.Run("summary of no reports is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteSummary(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("expected [], got %s", buf.String())
		}
	})

	t.Run("report round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded model.Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decoded.Score() != 74 || decoded.TotalCount() != 3 {
			t.Errorf("decoded score=%d total=%d", decoded.Score(), decoded.TotalCount())
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("wraps report with version and engine", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "v1.2.3", "rules").Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Version string         `json:"version"`
			Engine  string         `json:"engine"`
			Report  map[string]any `json:"report"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Version != "v1.2.3" || got.Engine != "rules" || got.Report["source"] != "https://example.com/" {
			t.Errorf("unexpected wrapper: %+v", got)
		}
	})

	t.Run("summary has totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "dev", "ai")
		if _, err := w.WriteSummary([]*model.Report{createTestReport(), emptyReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got JSONSummary
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Total != 2 || got.Accessible != 1 || got.AverageScore != 87 {
			t.Errorf("unexpected summary: total=%d accessible=%d avg=%v", got.Total, got.Accessible, got.AverageScore)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables chart and alert", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Accessibility Report",
			"## Severity Summary",
			"```mermaid",
			"Issue Severity Distribution",
			"[!CAUTION]",
			"## Categories",
			"### 🔴 Critical",
			"### 🟡 Moderate",
			"### 🔵 Minor",
			"<details>",
			"**74/100**",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("escapes pipes inside cells", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `a\|b.png`) {
			t.Error("expected escaped pipe in element cell")
		}
	})

	t.Run("escapes tags in suggestions", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("https://example.com/", testTime, []model.Issue{
			model.GetRuleInfo(model.RuleInputMissingLabel).NewIssue("f-1", `<input type="text">`),
		})

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Add a &lt;label&gt; element") {
			t.Errorf("expected escaped suggestion in:\n%s", output)
		}
		if !strings.Contains(output, "`<input type=\"text\">`") {
			t.Error("element code span should stay unescaped")
		}
	})

	t.Run("clean page gets a tip and no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(emptyReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!TIP]") || strings.Contains(output, "```mermaid") {
			t.Errorf("unexpected clean report:\n%s", output)
		}
		if strings.Contains(output, "## Categories") {
			t.Error("categories section should be omitted without issues")
		}
	})

	t.Run("summary table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteSummary([]*model.Report{createTestReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Accessibility Audit Summary") {
			t.Error("expected summary heading")
		}
	})
}

func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders a standalone page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"<!DOCTYPE html>",
			`<html lang="en">`,
			"<title>Accessibility Report: https://example.com/</title>",
			"<main>",
			"<h1",
			"<table>",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("issue markup is escaped", func(t *testing.T) {
		t.Parallel()

		issue := model.GetRuleInfo(model.RuleButtonNoName).NewIssue("x-1", `<button onclick="steal()"></button>`)
		report := model.NewReport("https://example.com/", testTime, []model.Issue{issue})

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Contains(output, `<button onclick`) {
			t.Error("issue element was rendered as live markup")
		}
		if !strings.Contains(output, "&lt;button") {
			t.Error("expected escaped element text")
		}
	})

	t.Run("suggestions keep their tag names", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("https://example.com/", testTime, []model.Issue{
			model.GetRuleInfo(model.RuleInputMissingLabel).NewIssue("f-1", `<input type="text">`),
			model.GetRuleInfo(model.RuleMissingMain).NewIssue("m-1", ""),
		})

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"Add a &lt;label&gt; element", "Add a &lt;main&gt; element"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Add a  element") {
			t.Error("tag name was stripped from a suggestion")
		}
	})

	t.Run("summary page", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewHTMLWriter(&buf).WriteSummary([]*model.Report{emptyReport()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "<title>Accessibility Audit Summary</title>") {
			t.Error("expected summary title")
		}
		if !strings.Contains(buf.String(), "Severity Summary") {
			t.Error("expected full report after the summary table")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.Report) (int, error)          { return 0, errors.New("write failed") }
func (failingWriter) WriteSummary([]*model.Report) (int, error) { return 0, errors.New("write failed") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		n, err := m.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 || n != a.Len()+b.Len() {
			t.Errorf("unexpected byte counts: n=%d a=%d b=%d", n, a.Len(), b.Len())
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		m := NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
		if _, err := m.WriteSummary([]*model.Report{emptyReport()}); err == nil {
			t.Fatal("expected error")
		}
		if after.Len() != 0 {
			t.Error("writers after the failing one should not run")
		}
	})
}

func TestLabels(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"critical", "Critical"},
		{"navigation", "Navigation"},
		{"aria", "ARIA"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			if got := label(tc.input); got != tc.expected {
				t.Errorf("label(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}

	if got := rating(59); !strings.HasPrefix(got, "Significant") {
		t.Errorf("rating(59) = %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"multibyte runes kept whole", "ééééé", 4, "é..."},
		{"tiny limit", "hello", 2, "he"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tc.input, tc.maxLen); got != tc.expected {
				t.Errorf("truncateString(%q, %d) = %q, expected %q", tc.input, tc.maxLen, got, tc.expected)
			}
		})
	}
}
