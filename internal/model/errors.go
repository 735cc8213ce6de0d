package model

import "errors"

// Sentinel errors for model validation.
var (
	// ErrUnknownSeverity is returned when a severity string is not recognized.
	ErrUnknownSeverity = errors.New("unknown severity")

	// ErrUnknownCategory is returned when a category string is not recognized.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidIssue is returned when an issue violates a field constraint.
	ErrInvalidIssue = errors.New("invalid issue")

	// ErrInconsistentReport is returned when a report's derived fields
	// disagree with its issue list.
	ErrInconsistentReport = errors.New("inconsistent report")
)
