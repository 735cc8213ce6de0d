package a11y

import (
	"regexp"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// ARIADetector checks accessible names of buttons and the main landmark.
type ARIADetector struct {
	buttonPattern *regexp.Regexp
	mainPattern   *regexp.Regexp
}

// NewARIADetector creates a new ARIADetector.
func NewARIADetector() *ARIADetector {
	return &ARIADetector{
		buttonPattern: regexp.MustCompile(`(?i)<button[^>]*>([^<]*)</button>`),
		mainPattern:   regexp.MustCompile(`(?i)<main\b|(?:^|\s)role\s*=\s*["']main["']`),
	}
}

// Name returns the detector name.
func (d *ARIADetector) Name() string {
	return "aria"
}

// Category returns the detector category.
func (d *ARIADetector) Category() model.Category {
	return model.CategoryARIA
}

// Detect flags nameless buttons, then a missing main landmark once per page.
func (d *ARIADetector) Detect(markup string, ids IDGenerator) []model.Issue {
	var issues []model.Issue

	for _, m := range d.buttonPattern.FindAllStringSubmatch(markup, -1) {
		button, content := m[0], strings.TrimSpace(m[1])
		if content != "" || hasAccessibleName(button) {
			continue
		}
		issues = append(issues, model.GetRuleInfo(model.RuleButtonNoName).NewIssue(ids.NewID(), button))
	}

	if !d.mainPattern.MatchString(markup) {
		issues = append(issues, model.GetRuleInfo(model.RuleMissingMain).NewIssue(ids.NewID(), ""))
	}

	return issues
}
