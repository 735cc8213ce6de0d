package a11y

import (
	"regexp"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// Detector finds one family of accessibility defects in markup.
//
// Detect must be pure: it may not retain or mutate shared state, and it
// must treat missing or malformed structure as zero matches.
type Detector interface {
	// Name returns the detector's name for logging.
	Name() string

	// Category returns the category of the issues this detector emits.
	Category() model.Category

	// Detect scans markup and returns the issues found, in document order.
	Detect(markup string, ids IDGenerator) []model.Issue
}

// DefaultDetectors returns the built-in detectors in report order.
func DefaultDetectors() []Detector {
	return []Detector{
		NewImageDetector(),
		NewFormDetector(),
		NewNavigationDetector(),
		NewColorDetector(),
		NewARIADetector(),
		NewKeyboardDetector(),
	}
}

// Attribute patterns shared by detectors. The leading whitespace anchor keeps
// "alt" from matching inside "data-alt" or "salt".
var (
	altAttrPattern  = regexp.MustCompile(`(?i)(?:^|\s)alt\s*=\s*["']([^"']*)["']`)
	idAttrPattern   = regexp.MustCompile(`(?i)(?:^|\s)id\s*=\s*["']([^"']*)["']`)
	typeAttrPattern = regexp.MustCompile(`(?i)(?:^|\s)type\s*=\s*["']([^"']*)["']`)
)

// attrValue returns the first capture of pattern in tag.
func attrValue(pattern *regexp.Regexp, tag string) (string, bool) {
	m := pattern.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// containsFold reports whether substr is within s, ignoring ASCII case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// hasAccessibleName reports whether a tag carries aria-label or aria-labelledby.
func hasAccessibleName(tag string) bool {
	// aria-labelledby contains aria-label as a prefix, so one check covers both.
	return containsFold(tag, "aria-label")
}
