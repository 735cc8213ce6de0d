// Package report writes accessibility reports as terminal text, JSON,
// Markdown or standalone HTML.
package report
