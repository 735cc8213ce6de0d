package a11y

import (
	"regexp"

	"github.com/nao1215/a11yscan/internal/model"
)

// heading is one extracted heading element.
type heading struct {
	level   int
	element string
}

// NavigationDetector checks the heading outline of a page.
type NavigationDetector struct {
	headingPattern *regexp.Regexp
}

// NewNavigationDetector creates a new NavigationDetector.
func NewNavigationDetector() *NavigationDetector {
	return &NavigationDetector{
		headingPattern: regexp.MustCompile(`(?i)<h([1-6])[^>]*>([^<]*)</h[1-6]>`),
	}
}

// Name returns the detector name.
func (d *NavigationDetector) Name() string {
	return "navigation"
}

// Category returns the detector category.
func (d *NavigationDetector) Category() model.Category {
	return model.CategoryNavigation
}

// Detect flags a missing or repeated h1 and every skipped heading level.
func (d *NavigationDetector) Detect(markup string, ids IDGenerator) []model.Issue {
	var issues []model.Issue

	headings := d.extract(markup)

	h1Count := 0
	for _, h := range headings {
		if h.level == 1 {
			h1Count++
		}
	}
	switch {
	case h1Count == 0:
		issues = append(issues, model.GetRuleInfo(model.RuleMissingH1).NewIssue(ids.NewID(), ""))
	case h1Count > 1:
		issues = append(issues, model.GetRuleInfo(model.RuleMultipleH1).NewIssue(ids.NewID(), ""))
	}

	for i := 1; i < len(headings); i++ {
		if headings[i].level > headings[i-1].level+1 {
			issues = append(issues, model.GetRuleInfo(model.RuleSkippedHeading).NewIssue(ids.NewID(), headings[i].element))
		}
	}

	return issues
}

// extract returns the headings of markup in document order.
func (d *NavigationDetector) extract(markup string) []heading {
	matches := d.headingPattern.FindAllStringSubmatch(markup, -1)
	headings := make([]heading, 0, len(matches))
	for _, m := range matches {
		// The pattern guarantees a single digit 1-6.
		headings = append(headings, heading{level: int(m[1][0] - '0'), element: m[0]})
	}
	return headings
}
