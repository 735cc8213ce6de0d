package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/a11yscan/internal/model"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "a11yscan.db"

// storeTimeLayout sorts lexicographically, so ORDER BY timestamp works.
const storeTimeLayout = "2006-01-02 15:04:05.000000"

// AuditDB stores audit results.
type AuditDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the audit database in dbDir.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return adb, nil
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

func (adb *AuditDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		score INTEGER NOT NULL,
		critical_count INTEGER NOT NULL DEFAULT 0,
		moderate_count INTEGER NOT NULL DEFAULT 0,
		minor_count INTEGER NOT NULL DEFAULT 0,
		markup_digest TEXT,
		engine TEXT NOT NULL DEFAULT 'rules',
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audits_source ON audits(source);
	CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp);

	-- Last retrieval of each page, replaced on every fetch.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		timestamp TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		lang TEXT,
		size INTEGER,
		digest TEXT,
		headers TEXT
	);
	`
	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// AuditEntry is one audit to store.
type AuditEntry struct {
	Report *model.Report

	// Engine is "rules" or "ai".
	Engine string

	// MarkupDigest identifies the analyzed markup, see model.MarkupDigest.
	MarkupDigest string
}

// SaveAudit stores an audit and returns its ID.
func (adb *AuditDB) SaveAudit(ctx context.Context, entry AuditEntry) (int64, error) {
	if entry.Report == nil {
		return 0, errors.New("failed to save audit: nil report")
	}
	engine := entry.Engine
	if engine == "" {
		engine = "rules"
	}

	reportJSON, err := json.Marshal(entry.Report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO audits (source, timestamp, score, critical_count, moderate_count, minor_count, markup_digest, engine, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	r := entry.Report
	result, err := adb.db.ExecContext(ctx, query,
		r.Source(),
		formatTimestamp(r.ScannedAt()),
		r.Score(),
		r.CriticalCount(),
		r.ModerateCount(),
		r.MinorCount(),
		entry.MarkupDigest,
		engine,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit: %w", err)
	}
	return result.LastInsertId()
}

// GetLatestAudit returns the most recent report for source, or nil when
// source was never audited.
func (adb *AuditDB) GetLatestAudit(ctx context.Context, source string) (*model.Report, error) {
	query := `
	SELECT report_json FROM audits
	WHERE source = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return adb.queryReport(ctx, query, source)
}

// GetAuditByID returns the report stored under id, or nil if none.
func (adb *AuditDB) GetAuditByID(ctx context.Context, id int64) (*model.Report, error) {
	return adb.queryReport(ctx, `SELECT report_json FROM audits WHERE id = ?`, id)
}

func (adb *AuditDB) queryReport(ctx context.Context, query string, args ...any) (*model.Report, error) {
	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// GetAuditHistory returns all reports for source, newest first.
// Rows whose JSON cannot be decoded are skipped.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, source string) ([]*model.Report, error) {
	query := `
	SELECT report_json FROM audits
	WHERE source = ?
	ORDER BY timestamp DESC, id DESC
	`
	rows, err := adb.db.QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		var report model.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// AuditMetadata summarizes a stored audit without its issues.
type AuditMetadata struct {
	ID           int64
	Source       string
	Timestamp    time.Time
	Score        int
	Tally        model.Tally
	MarkupDigest string
	Engine       string
}

// GetAuditHistoryWithMetadata returns audit summaries for source, newest
// first.
func (adb *AuditDB) GetAuditHistoryWithMetadata(ctx context.Context, source string) ([]AuditMetadata, error) {
	query := `
	SELECT id, source, timestamp, score, critical_count, moderate_count, minor_count, markup_digest, engine
	FROM audits
	WHERE source = ?
	ORDER BY timestamp DESC, id DESC
	`
	rows, err := adb.db.QueryContext(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditMetadata
	for rows.Next() {
		var (
			meta      AuditMetadata
			timestamp string
			digest    sql.NullString
		)
		err := rows.Scan(
			&meta.ID,
			&meta.Source,
			&timestamp,
			&meta.Score,
			&meta.Tally.Critical,
			&meta.Tally.Moderate,
			&meta.Tally.Minor,
			&digest,
			&meta.Engine,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		meta.MarkupDigest = digest.String
		results = append(results, meta)
	}
	return results, rows.Err()
}

// ListAuditedSources returns every audited source in alphabetical order.
func (adb *AuditDB) ListAuditedSources(ctx context.Context) ([]string, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT DISTINCT source FROM audits ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// SavePage records the latest retrieval of a page, replacing an earlier
// record of the same URL.
func (adb *AuditDB) SavePage(ctx context.Context, page *model.Page) error {
	headersJSON, err := json.Marshal(page.Headers)
	if err != nil {
		return fmt.Errorf("failed to serialize headers: %w", err)
	}

	query := `
	INSERT INTO pages (url, timestamp, status_code, content_type, title, lang, size, digest, headers)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		timestamp = excluded.timestamp,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		lang = excluded.lang,
		size = excluded.size,
		digest = excluded.digest,
		headers = excluded.headers
	`
	_, err = adb.db.ExecContext(ctx, query,
		page.URL,
		formatTimestamp(page.FetchedAt),
		page.StatusCode,
		page.ContentType,
		page.Title,
		page.Lang,
		page.Size,
		page.Digest,
		string(headersJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// GetPage returns the stored record of url without markup, or nil.
func (adb *AuditDB) GetPage(ctx context.Context, url string) (*model.Page, error) {
	query := `
	SELECT url, timestamp, status_code, content_type, title, lang, size, digest, headers
	FROM pages
	WHERE url = ?
	`
	var (
		page        model.Page
		timestamp   string
		headersJSON string
	)
	err := adb.db.QueryRowContext(ctx, query, url).Scan(
		&page.URL,
		&timestamp,
		&page.StatusCode,
		&page.ContentType,
		&page.Title,
		&page.Lang,
		&page.Size,
		&page.Digest,
		&headersJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	page.FetchedAt = parseTimestamp(timestamp)
	if headersJSON != "" && headersJSON != "null" {
		if err := json.Unmarshal([]byte(headersJSON), &page.Headers); err != nil {
			return nil, fmt.Errorf("failed to parse headers: %w", err)
		}
	}
	return &page, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(storeTimeLayout)
}

// timestampFormats are the layouts parseTimestamp accepts, most specific
// first.
var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses s with the known layouts, returning the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
