package a11y

import (
	"regexp"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// FormDetector checks form controls for labels and forms for validation
// feedback.
type FormDetector struct {
	inputPattern *regexp.Regexp
	formPattern  *regexp.Regexp

	// unlabeledTypes lists input types that never need a visible label.
	unlabeledTypes map[string]struct{}
}

// NewFormDetector creates a new FormDetector.
func NewFormDetector() *FormDetector {
	return &FormDetector{
		inputPattern: regexp.MustCompile(`(?i)<input[^>]*>`),
		formPattern:  regexp.MustCompile(`(?i)<form[^>]*>`),
		unlabeledTypes: map[string]struct{}{
			"hidden": {},
			"submit": {},
			"button": {},
		},
	}
}

// Name returns the detector name.
func (d *FormDetector) Name() string {
	return "forms"
}

// Category returns the detector category.
func (d *FormDetector) Category() model.Category {
	return model.CategoryForms
}

// Detect flags unlabeled inputs, then forms lacking validation feedback.
func (d *FormDetector) Detect(markup string, ids IDGenerator) []model.Issue {
	var issues []model.Issue

	for _, input := range d.inputPattern.FindAllString(markup, -1) {
		inputType := "text"
		if t, ok := attrValue(typeAttrPattern, input); ok {
			inputType = strings.ToLower(strings.TrimSpace(t))
		}
		if _, skip := d.unlabeledTypes[inputType]; skip {
			continue
		}
		if d.isLabeled(markup, input) {
			continue
		}
		issues = append(issues, model.GetRuleInfo(model.RuleInputMissingLabel).NewIssue(ids.NewID(), input))
	}

	// A page-wide aria-invalid marker counts as validation feedback for every form.
	pageHasInvalidState := containsFold(markup, "aria-invalid")
	for _, form := range d.formPattern.FindAllString(markup, -1) {
		if containsFold(form, "novalidate") || pageHasInvalidState {
			continue
		}
		issues = append(issues, model.GetRuleInfo(model.RuleFormValidation).NewIssue(ids.NewID(), form))
	}

	return issues
}

// isLabeled reports whether an input has a label referencing its id or an
// ARIA accessible name.
func (d *FormDetector) isLabeled(markup, input string) bool {
	if hasAccessibleName(input) {
		return true
	}
	id, ok := attrValue(idAttrPattern, input)
	if !ok || id == "" {
		return false
	}
	return strings.Contains(markup, `for="`+id+`"`) ||
		strings.Contains(markup, `for='`+id+`'`)
}
