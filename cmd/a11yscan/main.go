// Package main provides the entry point for the a11yscan CLI.
//
// a11yscan audits web pages for accessibility problems. It scores each
// page from 0 to 100 with a fixed set of WCAG-based rules, or asks a
// Gemini model to review the markup instead.
//
// Usage:
//
//	a11yscan audit https://example.com
//	a11yscan audit --file page.html
//	a11yscan compare https://example.com
//	a11yscan serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
