package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/a11yscan/internal/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// severityOrder lists severities most severe first.
var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityModerate,
	model.SeverityMinor,
}

// label title-cases an enum name, e.g. "critical" becomes "Critical".
// ARIA is kept as an acronym.
func label(s string) string {
	if strings.EqualFold(s, string(model.CategoryARIA)) {
		return "ARIA"
	}
	// A Caser is stateful, so one is built per call.
	return cases.Title(language.English).String(s)
}

// status returns the short verdict shown next to a score.
func status(score int) string {
	if model.IsAccessible(score) {
		return "Accessible"
	}
	return "Needs Improvement"
}

// rating returns the one-line assessment for a score.
func rating(score int) string {
	switch {
	case model.IsAccessible(score):
		return "Excellent! This website follows accessibility best practices."
	case score >= 60:
		return "Good progress, but there are areas for improvement."
	default:
		return "Significant accessibility barriers need to be addressed."
	}
}

// oneLine collapses whitespace so markup fits on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// orDash returns "-" for empty strings.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
