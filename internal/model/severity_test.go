package model

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityMinor, "minor"},
		{SeverityModerate, "moderate"},
		{SeverityCritical, "critical"},
		{Severity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestSeverityOrdering tests that severity levels are ordered correctly.
// Minor < Moderate < Critical
func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if SeverityMinor >= SeverityModerate {
		t.Error("expected SeverityMinor < SeverityModerate")
	}
	if SeverityModerate >= SeverityCritical {
		t.Error("expected SeverityModerate < SeverityCritical")
	}
}

// TestParseSeverity tests parsing severities from strings.
func TestParseSeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Severity
		wantErr  bool
	}{
		{"critical", SeverityCritical, false},
		{"CRITICAL", SeverityCritical, false},
		{" moderate ", SeverityModerate, false},
		{"Minor", SeverityMinor, false},
		{"serious", SeverityMinor, true},
		{"", SeverityMinor, true},
	}

	for _, tc := range testCases {
		t.Run("parse "+tc.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSeverity(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownSeverity) {
					t.Errorf("expected ErrUnknownSeverity, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("ParseSeverity(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

// TestSeverityPenalty tests the score penalty per severity.
func TestSeverityPenalty(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected int
	}{
		{SeverityCritical, 15},
		{SeverityModerate, 8},
		{SeverityMinor, 3},
		{Severity(-1), 0},
	}

	for _, tc := range testCases {
		if got := tc.severity.Penalty(); got != tc.expected {
			t.Errorf("%v.Penalty() = %d, expected %d", tc.severity, got, tc.expected)
		}
	}
}

// TestSeverityJSON tests that severities serialize by name.
func TestSeverityJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes as lowercase name", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(SeverityCritical)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `"critical"` {
			t.Errorf("got %s, expected \"critical\"", data)
		}
	})

	t.Run("rejects out of range value", func(t *testing.T) {
		t.Parallel()

		if _, err := json.Marshal(Severity(42)); err == nil {
			t.Error("expected error for invalid severity")
		}
	})

	t.Run("rejects unknown name", func(t *testing.T) {
		t.Parallel()

		var s Severity
		if err := json.Unmarshal([]byte(`"blocker"`), &s); err == nil {
			t.Error("expected error for unknown severity name")
		}
	})
}

// TestCategory tests the Category enumeration.
func TestCategory(t *testing.T) {
	t.Parallel()

	t.Run("all categories are valid", func(t *testing.T) {
		t.Parallel()

		all := AllCategories()
		if len(all) != 7 {
			t.Fatalf("expected 7 categories, got %d", len(all))
		}
		for _, c := range all {
			if !c.IsValid() {
				t.Errorf("expected %q to be valid", c)
			}
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()

		if CategoryUnknown.IsValid() {
			t.Error("expected CategoryUnknown to be invalid")
		}
		if CategoryUnknown.String() != "unknown" {
			t.Errorf("got %q, expected \"unknown\"", CategoryUnknown.String())
		}
	})

	t.Run("parse category", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			input    string
			expected Category
		}{
			{"images", CategoryImages},
			{"FORMS", CategoryForms},
			{"headings", CategoryNavigation},
			{"contrast", CategoryColors},
			{"aria", CategoryARIA},
			{"keyboard", CategoryKeyboard},
			{"typography", CategoryTypography},
			{"layout", CategoryUnknown},
		}

		for _, tc := range testCases {
			if got := ParseCategory(tc.input); got != tc.expected {
				t.Errorf("ParseCategory(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		}
	})
}

// TestRuleInfoMappingCompleteness tests that every rule has complete info.
func TestRuleInfoMappingCompleteness(t *testing.T) {
	t.Parallel()

	for _, ruleID := range RuleIDs() {
		t.Run(ruleID, func(t *testing.T) {
			t.Parallel()

			info := GetRuleInfo(ruleID)
			if !info.Category.IsValid() {
				t.Errorf("invalid category %q", info.Category)
			}
			if !info.Severity.IsValid() {
				t.Errorf("invalid severity %d", info.Severity)
			}
			if info.Title == "" || info.Description == "" || info.Suggestion == "" || info.Guideline == "" {
				t.Error("expected all text fields to be set")
			}
			if info.Impact < MinImpact || info.Impact > MaxImpact {
				t.Errorf("impact %d out of range", info.Impact)
			}
		})
	}
}

// TestGetRuleInfoUnknown tests the fallback for unknown rules.
func TestGetRuleInfoUnknown(t *testing.T) {
	t.Parallel()

	info := GetRuleInfo("no_such_rule")
	if info.Category.IsValid() {
		t.Error("expected unknown rule to have an invalid category")
	}

	issue := info.NewIssue("id-1", "")
	if err := issue.Validate(); !errors.Is(err, ErrInvalidIssue) {
		t.Errorf("expected ErrInvalidIssue, got %v", err)
	}
}
