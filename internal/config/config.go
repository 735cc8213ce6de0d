package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "a11yscan"

	// DefaultTimeout bounds each page request.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDepth of 0 audits only the given page.
	DefaultCrawlDepth = 0

	// DefaultMaxPages limits pages per target when crawling.
	DefaultMaxPages = 20

	// DefaultBatchSize is the number of targets audited concurrently.
	DefaultBatchSize = 4

	// DefaultCrawlDelay is the pause between requests to the same site.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultMaxChars is the markup length the analyzer looks at.
	DefaultMaxChars = 70000
)

// Config holds all options of an audit run. It is populated from CLI flags,
// the environment and the .a11yscan file, then passed down explicitly.
type Config struct {
	// Targets are the URLs to audit.
	Targets []string

	// MarkupFile is a local HTML file to audit instead of fetching.
	// "-" reads standard input.
	MarkupFile string

	// UseAI sends markup to the generative model instead of the rule engine.
	UseAI bool

	// Timeout bounds each page request.
	Timeout time.Duration

	// CrawlDepth is the number of link hops followed from each target.
	// 0 audits only the target page.
	CrawlDepth int

	// MaxPages limits pages per target when crawling.
	MaxPages int

	// CrawlDelay is the pause between requests while crawling.
	CrawlDelay time.Duration

	// BatchSize is the number of targets audited concurrently.
	BatchSize int

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// MaxBodySize limits the response body read per page. 0 uses the default.
	MaxBodySize int64

	// MaxChars limits the markup analyzed per page. 0 uses the default.
	MaxChars int

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport, MarkdownReport and HTMLReport select the output format.
	// At most one may be set; none means the terminal report.
	JSONReport     bool
	MarkdownReport bool
	HTMLReport     bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit path to the site configuration file.
	ConfigFilePath string

	// SiteConfigs holds the loaded site configuration file, if any.
	SiteConfigs *File

	// DBDir is the directory of the audit history database.
	DBDir string

	// SaveToDB stores each audit in the history database.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		CrawlDepth:  DefaultCrawlDepth,
		MaxPages:    DefaultMaxPages,
		CrawlDelay:  DefaultCrawlDelay,
		BatchSize:   DefaultBatchSize,
		MaxBodySize: DefaultMaxBodySize,
		MaxChars:    DefaultMaxChars,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the data directory holding the audit history.
// On Linux: ~/.local/share/a11yscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user configuration directory.
// On Linux: ~/.config/a11yscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.MarkupFile == "" {
		return ErrNoTarget
	}
	if len(c.Targets) > 0 && c.MarkupFile != "" {
		return ErrConflictingInputs
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	formats := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if set {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxChars < 0 {
		return ErrInvalidMaxChars
	}
	return nil
}
