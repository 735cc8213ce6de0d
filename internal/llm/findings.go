package llm

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"

	"github.com/nao1215/a11yscan/internal/a11y"
	"github.com/nao1215/a11yscan/internal/model"
)

const (
	defaultTitle       = "Accessibility issue"
	defaultDescription = "The model reported an accessibility issue without a description."
)

// Finding is one issue as reported by the model.
type Finding struct {
	ID          string
	Title       string
	Description string
	Suggestion  string
	Severity    string
}

// strictPolicy strips all markup from model text. A Policy is safe for
// concurrent use once built.
var strictPolicy = bluemonday.StrictPolicy()

// parseFindings decodes the model's JSON document.
func parseFindings(text string) (score int, findings []Finding, err error) {
	text = stripCodeFence(text)
	if !gjson.Valid(text) {
		return 0, nil, ErrMalformedResponse
	}

	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return 0, nil, fmt.Errorf("%w: top level is not an object", ErrMalformedResponse)
	}

	issues := doc.Get("issues")
	if issues.Exists() && !issues.IsArray() {
		return 0, nil, fmt.Errorf("%w: issues is not an array", ErrMalformedResponse)
	}
	issues.ForEach(func(_, item gjson.Result) bool {
		findings = append(findings, Finding{
			ID:          item.Get("id").String(),
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
			Suggestion:  item.Get("suggestion").String(),
			Severity:    item.Get("severity").String(),
		})
		return true
	})

	return clampScore(doc.Get("score").Float()), findings, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even
// when asked for raw JSON.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func clampScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(float64(model.PerfectScore), score))))
}

// ToIssues converts model findings into issues. Every issue gets a fresh
// ID from ids; the model's own IDs are not trusted to be unique.
func ToIssues(findings []Finding, ids a11y.IDGenerator) []model.Issue {
	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		severity := MapSeverity(f.Severity)
		issues = append(issues, model.Issue{
			ID:          ids.NewID(),
			Category:    model.CategoryARIA,
			Severity:    severity,
			Title:       orDefault(sanitize(f.Title), defaultTitle),
			Description: orDefault(sanitize(f.Description), defaultDescription),
			Suggestion:  sanitize(f.Suggestion),
			Impact:      impactFor(severity),
		})
	}
	return issues
}

// MapSeverity maps the model's four-level scale onto Severity.
// Unrecognized values are treated as moderate.
func MapSeverity(s string) model.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "serious":
		return model.SeverityCritical
	case "minor":
		return model.SeverityMinor
	default:
		return model.SeverityModerate
	}
}

func impactFor(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 9
	case model.SeverityMinor:
		return 3
	default:
		return 6
	}
}

// sanitize strips markup and collapses whitespace.
func sanitize(s string) string {
	clean := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
