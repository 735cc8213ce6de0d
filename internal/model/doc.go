// Package model defines the core data structures used throughout a11yscan.
//
// This package contains the following main types:
//   - Issue: A single accessibility defect found in a page's markup
//   - Report: The result of one analysis run with its derived score
//   - Page: A retrieved web page handed to the analyzer
//   - Severity and Category: Closed enumerations used to classify issues
//
// Models live in their own package so that the analyzer, the fetcher, the
// report writers and the history database can share them without import
// cycles. Issue and Report serialize to JSON for report output and storage.
package model
