package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Report is the result of one accessibility analysis run.
//
// Only the source, scan time and issue list are stored; the counts, score
// and accessibility verdict are derived from the issues when the report is
// built. Fields are unexported so a Report cannot drift out of agreement
// with its issues. Build one with NewReport.
type Report struct {
	source    string
	scannedAt time.Time
	issues    []Issue
	tally     Tally
	score     int
}

// NewReport builds a report and derives its counts and score.
// The issue slice is copied; a nil slice yields an empty report.
func NewReport(source string, scannedAt time.Time, issues []Issue) *Report {
	copied := make([]Issue, len(issues))
	copy(copied, issues)

	tally := CountBySeverity(copied)
	return &Report{
		source:    source,
		scannedAt: scannedAt,
		issues:    copied,
		tally:     tally,
		score:     Score(tally),
	}
}

// Source returns the URL or label of the analyzed markup.
func (r *Report) Source() string { return r.source }

// ScannedAt returns when the analysis ran.
func (r *Report) ScannedAt() time.Time { return r.scannedAt }

// Issues returns a copy of the issues in detector order.
func (r *Report) Issues() []Issue {
	return slices.Clone(r.issues)
}

// Score returns the 0-100 accessibility score.
func (r *Report) Score() int { return r.score }

// TotalCount returns the number of issues.
func (r *Report) TotalCount() int { return len(r.issues) }

// CriticalCount returns the number of critical issues.
func (r *Report) CriticalCount() int { return r.tally.Critical }

// ModerateCount returns the number of moderate issues.
func (r *Report) ModerateCount() int { return r.tally.Moderate }

// MinorCount returns the number of minor issues.
func (r *Report) MinorCount() int { return r.tally.Minor }

// Tally returns the per-severity counts.
func (r *Report) Tally() Tally { return r.tally }

// IsAccessible reports whether the score meets AccessibleThreshold.
func (r *Report) IsAccessible() bool { return IsAccessible(r.score) }

// HasIssues returns true if at least one issue was found.
func (r *Report) HasIssues() bool { return len(r.issues) > 0 }

// IssuesBySeverity returns the issues with the given severity in detector order.
func (r *Report) IssuesBySeverity(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// IssuesByCategory returns the issues in the given category in detector order.
func (r *Report) IssuesByCategory(category Category) []Issue {
	var out []Issue
	for _, issue := range r.issues {
		if issue.Category == category {
			out = append(out, issue)
		}
	}
	return out
}

// CategoryCounts returns the number of issues per category.
func (r *Report) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, issue := range r.issues {
		counts[issue.Category]++
	}
	return counts
}

// SortedBySeverity returns a copy of the issues ordered critical first.
// Issues of equal severity keep their detector order.
func (r *Report) SortedBySeverity() []Issue {
	sorted := slices.Clone(r.issues)
	slices.SortStableFunc(sorted, func(a, b Issue) int {
		return int(b.Severity) - int(a.Severity)
	})
	return sorted
}

// Validate checks the report invariants: every issue is well formed, IDs
// are unique, the counts add up and the score matches the scoring formula.
func (r *Report) Validate() error {
	var errs []error

	seen := make(map[string]struct{}, len(r.issues))
	for _, issue := range r.issues {
		if err := issue.Validate(); err != nil {
			errs = append(errs, err)
		}
		if _, dup := seen[issue.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate issue id %q", ErrInconsistentReport, issue.ID))
		}
		seen[issue.ID] = struct{}{}
	}

	if r.tally.Total() != len(r.issues) {
		errs = append(errs, fmt.Errorf("%w: severity counts sum to %d, want %d",
			ErrInconsistentReport, r.tally.Total(), len(r.issues)))
	}
	if want := CountBySeverity(r.issues); r.tally != want {
		errs = append(errs, fmt.Errorf("%w: counts %+v, want %+v", ErrInconsistentReport, r.tally, want))
	}
	if want := Score(r.tally); r.score != want {
		errs = append(errs, fmt.Errorf("%w: score %d, want %d", ErrInconsistentReport, r.score, want))
	}
	if r.score < 0 || r.score > PerfectScore {
		errs = append(errs, fmt.Errorf("%w: score %d out of range", ErrInconsistentReport, r.score))
	}

	return errors.Join(errs...)
}

// reportJSON is the serialized form of a Report.
type reportJSON struct {
	Source        string    `json:"source"`
	Issues        []Issue   `json:"issues"`
	Score         int       `json:"score"`
	TotalCount    int       `json:"total_count"`
	CriticalCount int       `json:"critical_count"`
	ModerateCount int       `json:"moderate_count"`
	MinorCount    int       `json:"minor_count"`
	ScannedAt     time.Time `json:"scanned_at"`
	IsAccessible  bool      `json:"is_accessible"`
}

// MarshalJSON encodes the report with its derived fields.
func (r *Report) MarshalJSON() ([]byte, error) {
	issues := r.issues
	if issues == nil {
		issues = []Issue{}
	}
	return json.Marshal(reportJSON{
		Source:        r.source,
		Issues:        issues,
		Score:         r.score,
		TotalCount:    len(r.issues),
		CriticalCount: r.tally.Critical,
		ModerateCount: r.tally.Moderate,
		MinorCount:    r.tally.Minor,
		ScannedAt:     r.scannedAt,
		IsAccessible:  r.IsAccessible(),
	})
}

// UnmarshalJSON decodes a report. Derived fields in the input are ignored
// and recomputed from the issues.
func (r *Report) UnmarshalJSON(data []byte) error {
	var wire reportJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to decode report: %w", err)
	}
	*r = *NewReport(wire.Source, wire.ScannedAt, wire.Issues)
	return nil
}
