package model

// Rule identifiers. Each detector emits issues for one or more of these.
const (
	RuleImageMissingAlt   = "image_missing_alt"
	RuleImageShortAlt     = "image_short_alt"
	RuleInputMissingLabel = "input_missing_label"
	RuleFormValidation    = "form_validation_feedback"
	RuleMissingH1         = "missing_h1"
	RuleMultipleH1        = "multiple_h1"
	RuleSkippedHeading    = "skipped_heading_level"
	RuleLowContrast       = "low_contrast"
	RuleButtonNoName      = "button_no_name"
	RuleMissingMain       = "missing_main_landmark"
	RuleClickHandler      = "non_interactive_click_handler"
)

// ContrastDescriptionFormat is the description template for RuleLowContrast.
// The single verb receives the measured ratio.
const ContrastDescriptionFormat = "Color contrast ratio is %.2f:1, which is below the WCAG AA standard of 4.5:1."

// RuleInfo holds the fixed text and classification of a rule.
type RuleInfo struct {
	Category    Category
	Severity    Severity
	Title       string
	Description string
	Guideline   string
	Suggestion  string
	Impact      int
}

// ruleInfoMapping is the single source of truth for rule text and weight.
// Keeping it apart from the detectors lets reports and documentation list
// rules without running an analysis.
var ruleInfoMapping = map[string]RuleInfo{
	RuleImageMissingAlt: {
		Category:    CategoryImages,
		Severity:    SeverityCritical,
		Title:       "Image missing alt text",
		Description: "Image lacks alternative text, making it inaccessible to screen readers and users with visual impairments.",
		Guideline:   "1.1.1 Non-text Content",
		Suggestion:  "Add a descriptive alt attribute that explains the content and purpose of the image. For decorative images, use alt=\"\" (empty alt text).",
		Impact:      9,
	},
	RuleImageShortAlt: {
		Category:    CategoryImages,
		Severity:    SeverityModerate,
		Title:       "Alt text too short",
		Description: "Alt text is too brief to be meaningful for screen reader users.",
		Guideline:   "1.1.1 Non-text Content",
		Suggestion:  "Provide more descriptive alt text that adequately describes the image content and context.",
		Impact:      6,
	},
	RuleInputMissingLabel: {
		Category:    CategoryForms,
		Severity:    SeverityCritical,
		Title:       "Form input without label",
		Description: "Form input is not properly labeled, making it difficult for screen reader users to understand its purpose.",
		Guideline:   "1.3.1 Info and Relationships",
		Suggestion:  "Add a <label> element with a \"for\" attribute matching the input's id, or use aria-label to provide an accessible name.",
		Impact:      9,
	},
	RuleFormValidation: {
		Category:    CategoryForms,
		Severity:    SeverityModerate,
		Title:       "Missing form validation feedback",
		Description: "Form lacks proper validation feedback mechanisms for users with disabilities.",
		Guideline:   "3.3.1 Error Identification",
		Suggestion:  "Implement proper error messaging with aria-invalid and aria-describedby attributes to help users understand and correct form errors.",
		Impact:      7,
	},
	RuleMissingH1: {
		Category:    CategoryNavigation,
		Severity:    SeverityCritical,
		Title:       "Missing main heading (h1)",
		Description: "Page lacks a main heading (h1), which is essential for screen reader navigation and SEO.",
		Guideline:   "1.3.1 Info and Relationships",
		Suggestion:  "Add a single h1 element that describes the main content or purpose of the page.",
		Impact:      8,
	},
	RuleMultipleH1: {
		Category:    CategoryNavigation,
		Severity:    SeverityModerate,
		Title:       "Multiple h1 headings",
		Description: "Page has multiple h1 headings, which can confuse screen reader users about the page structure.",
		Guideline:   "1.3.1 Info and Relationships",
		Suggestion:  "Use only one h1 per page for the main heading, and use h2-h6 for subheadings in hierarchical order.",
		Impact:      6,
	},
	RuleSkippedHeading: {
		Category:    CategoryNavigation,
		Severity:    SeverityModerate,
		Title:       "Skipped heading level",
		Description: "Heading levels are not in sequential order, which can confuse screen reader users.",
		Guideline:   "1.3.1 Info and Relationships",
		Suggestion:  "Use heading levels in sequential order (h1, h2, h3, etc.) without skipping levels.",
		Impact:      5,
	},
	RuleLowContrast: {
		Category:    CategoryColors,
		Severity:    SeverityCritical,
		Title:       "Insufficient color contrast",
		Description: "Color contrast ratio is below the WCAG AA standard of 4.5:1.",
		Guideline:   "1.4.3 Contrast (Minimum)",
		Suggestion:  "Increase the contrast ratio to at least 4.5:1 for normal text or 3:1 for large text by using darker text colors or lighter background colors.",
		Impact:      8,
	},
	RuleButtonNoName: {
		Category:    CategoryARIA,
		Severity:    SeverityCritical,
		Title:       "Button without accessible name",
		Description: "Button lacks text content or ARIA labels, making it unclear to screen reader users.",
		Guideline:   "4.1.2 Name, Role, Value",
		Suggestion:  "Add descriptive text content to the button or use aria-label to provide an accessible name.",
		Impact:      9,
	},
	RuleMissingMain: {
		Category:    CategoryARIA,
		Severity:    SeverityModerate,
		Title:       "Missing main landmark",
		Description: "Page lacks a main landmark, making it harder for screen reader users to navigate to the primary content.",
		Guideline:   "1.3.6 Identify Purpose",
		Suggestion:  "Add a <main> element or role=\"main\" to identify the primary content area of the page.",
		Impact:      6,
	},
	RuleClickHandler: {
		Category:    CategoryKeyboard,
		Severity:    SeverityModerate,
		Title:       "Non-interactive element with click handler",
		Description: "Element has click functionality but is not keyboard accessible.",
		Guideline:   "2.1.1 Keyboard",
		Suggestion:  "Add tabindex=\"0\" and role=\"button\" to make the element keyboard accessible, or use a proper <button> element instead.",
		Impact:      7,
	},
}

// GetRuleInfo returns the rule information for a rule identifier.
// Unknown identifiers yield a RuleInfo with CategoryUnknown, which fails
// issue validation so the mistake surfaces in the report invariant check.
func GetRuleInfo(ruleID string) RuleInfo {
	if info, ok := ruleInfoMapping[ruleID]; ok {
		return info
	}
	return RuleInfo{
		Category:    CategoryUnknown,
		Severity:    SeverityMinor,
		Title:       ruleID,
		Description: "Unknown rule. Review manually.",
		Impact:      1,
	}
}

// RuleIDs returns every known rule identifier.
func RuleIDs() []string {
	ids := make([]string, 0, len(ruleInfoMapping))
	for id := range ruleInfoMapping {
		ids = append(ids, id)
	}
	return ids
}

// NewIssue builds an issue from this rule with the given identifier and
// offending markup. The element is truncated with TruncateElement.
func (r RuleInfo) NewIssue(id, element string) Issue {
	return Issue{
		ID:          id,
		Category:    r.Category,
		Severity:    r.Severity,
		Title:       r.Title,
		Description: r.Description,
		Element:     TruncateElement(element),
		Guideline:   r.Guideline,
		Suggestion:  r.Suggestion,
		Impact:      r.Impact,
	}
}
