package a11y

import (
	"regexp"

	"github.com/nao1215/a11yscan/internal/model"
)

// KeyboardDetector checks that click handlers sit on keyboard-operable elements.
type KeyboardDetector struct {
	clickablePattern  *regexp.Regexp
	buttonRolePattern *regexp.Regexp
}

// NewKeyboardDetector creates a new KeyboardDetector.
func NewKeyboardDetector() *KeyboardDetector {
	return &KeyboardDetector{
		clickablePattern:  regexp.MustCompile(`(?i)<(div|span)[^>]*onclick[^>]*>`),
		buttonRolePattern: regexp.MustCompile(`(?i)role\s*=\s*["']button["']`),
	}
}

// Name returns the detector name.
func (d *KeyboardDetector) Name() string {
	return "keyboard"
}

// Category returns the detector category.
func (d *KeyboardDetector) Category() model.Category {
	return model.CategoryKeyboard
}

// Detect flags div and span elements with onclick that are neither
// focusable nor exposed as buttons.
func (d *KeyboardDetector) Detect(markup string, ids IDGenerator) []model.Issue {
	var issues []model.Issue

	for _, element := range d.clickablePattern.FindAllString(markup, -1) {
		if containsFold(element, "tabindex") || d.buttonRolePattern.MatchString(element) {
			continue
		}
		issues = append(issues, model.GetRuleInfo(model.RuleClickHandler).NewIssue(ids.NewID(), element))
	}

	return issues
}
