package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when neither a URL nor a markup file is given.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --file")

	// ErrConflictingInputs is returned when URLs and --file are combined.
	ErrConflictingInputs = errors.New("conflicting inputs: URLs and --file cannot be used together")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown and --html is given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown or --html")

	// ErrInvalidCrawlDepth is returned when the crawl depth is negative.
	ErrInvalidCrawlDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxChars is returned when the markup limit is negative.
	ErrInvalidMaxChars = errors.New("invalid max chars: must be non-negative")
)
