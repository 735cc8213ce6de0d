package a11y

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// ColorDetector checks inline style attributes for low color contrast.
type ColorDetector struct {
	stylePattern      *regexp.Regexp
	colorPattern      *regexp.Regexp
	backgroundPattern *regexp.Regexp
}

// NewColorDetector creates a new ColorDetector.
func NewColorDetector() *ColorDetector {
	return &ColorDetector{
		stylePattern: regexp.MustCompile(`(?i)(?:^|\s)style\s*=\s*["']([^"']*)["']`),
		// RE2 has no lookbehind, so "color" must start the declaration list or
		// follow a separator. This keeps it from matching "background-color".
		colorPattern:      regexp.MustCompile(`(?i)(?:^|[;\s])color\s*:\s*([^;]+)`),
		backgroundPattern: regexp.MustCompile(`(?i)background(?:-color)?\s*:\s*([^;]+)`),
	}
}

// Name returns the detector name.
func (d *ColorDetector) Name() string {
	return "colors"
}

// Category returns the detector category.
func (d *ColorDetector) Category() model.Category {
	return model.CategoryColors
}

// Detect flags inline styles whose text and background colors contrast
// below MinContrastRatio. Styles without a parsable hex pair are skipped.
func (d *ColorDetector) Detect(markup string, ids IDGenerator) []model.Issue {
	var issues []model.Issue

	for _, m := range d.stylePattern.FindAllStringSubmatch(markup, -1) {
		style := m[1]

		fg, ok := attrValue(d.colorPattern, style)
		if !ok {
			continue
		}
		bg, ok := attrValue(d.backgroundPattern, style)
		if !ok {
			continue
		}

		ratio, ok := HexContrastRatio(fg, bg)
		if !ok || ratio >= MinContrastRatio {
			continue
		}

		issue := model.GetRuleInfo(model.RuleLowContrast).NewIssue(ids.NewID(), strings.TrimSpace(m[0]))
		issue.Description = fmt.Sprintf(model.ContrastDescriptionFormat, ratio)
		issues = append(issues, issue)
	}

	return issues
}
