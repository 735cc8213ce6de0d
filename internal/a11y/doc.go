// Package a11y provides the rule-based accessibility analysis engine.
//
// # Purpose
//
// This package scans page markup for structural accessibility defects and
// turns them into a scored model.Report. It never fetches anything: the
// markup is handed in by the caller.
//
// # Design Philosophy
//
// Each rule family is a separate Detector. Detectors scan the raw markup
// text with case-insensitive patterns instead of building a document tree,
// so truncated or malformed markup simply produces fewer matches. Detectors
// are pure and share no state, which lets the Analyzer run them in parallel
// and then reassemble their issues in a fixed order.
//
// # Detectors
//
// Detectors run in this order, and the report lists their issues in the
// same order:
//   - images: missing or too short alt text
//   - forms: unlabeled inputs, forms without validation feedback
//   - navigation: missing, repeated or skipped headings
//   - colors: insufficient inline color contrast
//   - aria: nameless buttons, missing main landmark
//   - keyboard: click handlers on non-focusable elements
//
// # Usage
//
//	analyzer := a11y.NewAnalyzer()
//	report := analyzer.Analyze(markup, "https://example.com")
//
// # Identifiers
//
// Issue IDs come from an injected IDGenerator. The default generates random
// UUIDs; tests use NewSequenceGenerator for deterministic output.
package a11y
