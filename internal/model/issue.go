package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxElementLength is the number of characters of offending markup kept
// in Issue.Element before the ellipsis is appended.
const MaxElementLength = 100

// elementEllipsis marks a truncated element snippet.
const elementEllipsis = "..."

// Impact bounds.
const (
	MinImpact = 1
	MaxImpact = 10
)

// Issue is one detected accessibility defect.
//
// Issues are plain values. The ID is generated when the issue is detected
// and is unique within a report, but it carries no meaning: two issues with
// the same content and different IDs describe the same defect.
type Issue struct {
	// ID is an opaque identifier unique within a report.
	ID string `json:"id"`

	// Category is the accessibility area the issue belongs to.
	Category Category `json:"category"`

	// Severity is how badly the issue blocks users.
	Severity Severity `json:"severity"`

	// Title is a short label for the issue.
	Title string `json:"title"`

	// Description explains the harm to users.
	Description string `json:"description"`

	// Element is a snippet of the offending markup, capped at
	// MaxElementLength characters plus "..." when truncated.
	// Empty when no single element applies (page-level issues).
	Element string `json:"element,omitempty"`

	// Guideline is the WCAG success criterion, e.g. "1.1.1 Non-text Content".
	Guideline string `json:"guideline"`

	// Suggestion is the remediation text.
	Suggestion string `json:"suggestion"`

	// Impact is a 1-10 weight of how much the issue matters.
	Impact int `json:"impact"`
}

// TruncateElement caps a markup snippet at MaxElementLength characters and
// appends "..." when anything was cut.
func TruncateElement(element string) string {
	if utf8.RuneCountInString(element) <= MaxElementLength {
		return element
	}
	runes := []rune(element)
	return string(runes[:MaxElementLength]) + elementEllipsis
}

// SameContent reports whether two issues describe the same defect,
// ignoring their IDs.
func (i Issue) SameContent(other Issue) bool {
	i.ID = ""
	other.ID = ""
	return i == other
}

// Fingerprint returns a stable key for the issue's content. It is used to
// match issues across audits of the same source.
func (i Issue) Fingerprint() string {
	return strings.Join([]string{
		i.Category.String(), i.Severity.String(), i.Title, i.Element,
	}, "|")
}

// Validate checks the issue's field constraints.
func (i Issue) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("empty id"))
	}
	if !i.Category.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownCategory, string(i.Category)))
	}
	if !i.Severity.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownSeverity, int(i.Severity)))
	}
	if strings.TrimSpace(i.Title) == "" {
		errs = append(errs, errors.New("empty title"))
	}
	if i.Impact < MinImpact || i.Impact > MaxImpact {
		errs = append(errs, fmt.Errorf("impact %d out of range %d-%d", i.Impact, MinImpact, MaxImpact))
	}
	if utf8.RuneCountInString(i.Element) > MaxElementLength+len(elementEllipsis) {
		errs = append(errs, fmt.Errorf("element longer than %d characters", MaxElementLength))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %s: %w", ErrInvalidIssue, i.ID, errors.Join(errs...))
}
