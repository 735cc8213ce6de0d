package model

import (
	"fmt"
	"strings"
)

// Severity represents how badly an accessibility issue blocks users.
//
// We use iota-based constants so severities compare and sort by rank:
// SeverityCritical > SeverityModerate > SeverityMinor. The String method
// provides the lowercase wire form used in JSON reports.
type Severity int

const (
	// SeverityMinor indicates an issue that degrades the experience but
	// rarely blocks a task.
	SeverityMinor Severity = iota

	// SeverityModerate indicates an issue that makes content harder to use
	// for some users. Examples: short alt text, skipped heading levels.
	SeverityModerate

	// SeverityCritical indicates an issue that prevents assistive technology
	// users from perceiving or operating content.
	// Examples: images without alt text, unlabeled inputs, nameless buttons.
	SeverityCritical
)

// severityUnknownStr is the string representation for out-of-range severities.
const severityUnknownStr = "unknown"

// String returns the lowercase representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeverityCritical:
		return "critical"
	default:
		return severityUnknownStr
	}
}

// IsValid returns true if this is one of the three known severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityCritical:
		return true
	default:
		return false
	}
}

// Penalty returns the number of points an issue of this severity deducts
// from the accessibility score.
func (s Severity) Penalty() int {
	switch s {
	case SeverityCritical:
		return CriticalPenalty
	case SeverityModerate:
		return ModeratePenalty
	case SeverityMinor:
		return MinorPenalty
	default:
		return 0
	}
}

// ParseSeverity converts a string to Severity. Matching is case-insensitive.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor":
		return SeverityMinor, nil
	case "moderate":
		return SeverityModerate, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityMinor, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
	}
}

// MarshalText encodes the severity as its lowercase name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeverity, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity from its name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
