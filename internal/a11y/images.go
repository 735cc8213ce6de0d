package a11y

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/a11yscan/internal/model"
)

// minAltLength is the shortest alt text considered meaningful.
const minAltLength = 3

// ImageDetector checks <img> elements for alternative text.
type ImageDetector struct {
	imgPattern *regexp.Regexp
}

// NewImageDetector creates a new ImageDetector.
func NewImageDetector() *ImageDetector {
	return &ImageDetector{
		imgPattern: regexp.MustCompile(`(?i)<img[^>]*>`),
	}
}

// Name returns the detector name.
func (d *ImageDetector) Name() string {
	return "images"
}

// Category returns the detector category.
func (d *ImageDetector) Category() model.Category {
	return model.CategoryImages
}

// Detect flags images with missing, blank or very short alt text.
func (d *ImageDetector) Detect(markup string, ids IDGenerator) []model.Issue {
	var issues []model.Issue

	for _, img := range d.imgPattern.FindAllString(markup, -1) {
		alt, ok := attrValue(altAttrPattern, img)
		switch {
		case !ok || strings.TrimSpace(alt) == "":
			issues = append(issues, model.GetRuleInfo(model.RuleImageMissingAlt).NewIssue(ids.NewID(), img))
		case utf8.RuneCountInString(alt) < minAltLength:
			issues = append(issues, model.GetRuleInfo(model.RuleImageShortAlt).NewIssue(ids.NewID(), img))
		}
	}

	return issues
}
