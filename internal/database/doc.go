// Package database stores audit history in SQLite (modernc.org/sqlite, no
// cgo). Each audit keeps its full report as JSON next to the score and
// severity counts, so history can be listed without decoding reports and
// two audits of the same source can be compared later.
package database
