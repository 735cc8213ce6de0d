package model

// Scoring constants.
const (
	// PerfectScore is the score of a page with no issues.
	PerfectScore = 100

	// CriticalPenalty is deducted per critical issue.
	CriticalPenalty = 15

	// ModeratePenalty is deducted per moderate issue.
	ModeratePenalty = 8

	// MinorPenalty is deducted per minor issue.
	MinorPenalty = 3

	// AccessibleThreshold is the minimum score considered accessible.
	AccessibleThreshold = 80
)

// Tally holds issue counts per severity.
type Tally struct {
	Critical int `json:"critical"`
	Moderate int `json:"moderate"`
	Minor    int `json:"minor"`
}

// Total returns the number of counted issues.
func (t Tally) Total() int {
	return t.Critical + t.Moderate + t.Minor
}

// CountBySeverity tallies issues by severity. Issues with an invalid
// severity are not counted.
func CountBySeverity(issues []Issue) Tally {
	var t Tally
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			t.Critical++
		case SeverityModerate:
			t.Moderate++
		case SeverityMinor:
			t.Minor++
		}
	}
	return t
}

// Score reduces a tally to a 0-100 accessibility score.
func Score(t Tally) int {
	score := PerfectScore -
		CriticalPenalty*t.Critical -
		ModeratePenalty*t.Moderate -
		MinorPenalty*t.Minor
	return max(0, score)
}

// IsAccessible reports whether a score meets AccessibleThreshold.
func IsAccessible(score int) bool {
	return score >= AccessibleThreshold
}
