package a11y

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/a11yscan/internal/model"
)

// DefaultMaxChars is the default markup budget in characters.
// Longer markup is truncated before detection.
const DefaultMaxChars = 70000

// Analyzer runs the detectors over markup and builds a scored report.
//
// An Analyzer is safe for concurrent use once constructed.
type Analyzer struct {
	// detectors run in slice order, and their issues are reported in the same order.
	detectors []Detector

	// ids generates issue identifiers.
	ids IDGenerator

	// maxChars is the markup budget. Zero or negative disables truncation.
	maxChars int

	// clock supplies the report timestamp.
	clock func() time.Time

	// parallel runs detectors concurrently.
	parallel bool

	// strict panics on report invariant violations instead of logging them.
	strict bool

	logger *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithDetectors replaces the built-in detector set.
func WithDetectors(detectors ...Detector) AnalyzerOption {
	return func(a *Analyzer) {
		a.detectors = detectors
	}
}

// WithIDGenerator sets the issue identifier generator.
func WithIDGenerator(ids IDGenerator) AnalyzerOption {
	return func(a *Analyzer) {
		a.ids = ids
	}
}

// WithMaxChars sets the markup budget in characters.
func WithMaxChars(maxChars int) AnalyzerOption {
	return func(a *Analyzer) {
		a.maxChars = maxChars
	}
}

// WithClock sets the function that timestamps reports.
func WithClock(clock func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.clock = clock
	}
}

// WithParallel controls whether detectors run concurrently.
func WithParallel(parallel bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.parallel = parallel
	}
}

// WithStrictInvariants makes the analyzer panic when a report fails
// validation or a detector panics. Tests enable this.
func WithStrictInvariants(strict bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates an Analyzer with the built-in detectors.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		detectors: DefaultDetectors(),
		ids:       UUIDGenerator{},
		maxChars:  DefaultMaxChars,
		clock:     time.Now,
		parallel:  true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Detectors returns the configured detectors in report order.
func (a *Analyzer) Detectors() []Detector {
	out := make([]Detector, len(a.detectors))
	copy(out, a.detectors)
	return out
}

// Analyze scans markup and returns the report for source.
// It never fails: malformed markup yields fewer issues.
func (a *Analyzer) Analyze(markup, source string) *model.Report {
	markup, truncated := TruncateMarkup(markup, a.maxChars)
	if truncated {
		a.logger.Debug("markup truncated before analysis",
			"source", source,
			"max_chars", a.maxChars,
		)
	}

	results := make([][]model.Issue, len(a.detectors))
	failures := make([]any, len(a.detectors))

	if a.parallel {
		var g errgroup.Group
		for i, d := range a.detectors {
			g.Go(func() error {
				results[i], failures[i] = a.runDetector(d, markup)
				return nil
			})
		}
		_ = g.Wait() // runDetector never returns an error
	} else {
		for i, d := range a.detectors {
			results[i], failures[i] = a.runDetector(d, markup)
		}
	}

	var issues []model.Issue
	for i, d := range a.detectors {
		if failures[i] != nil {
			a.handleViolation(fmt.Sprintf("detector %s panicked: %v", d.Name(), failures[i]))
			continue
		}
		issues = append(issues, results[i]...)
	}

	report := model.NewReport(source, a.clock(), issues)
	if err := report.Validate(); err != nil {
		a.handleViolation(fmt.Sprintf("report invariant violated: %v", err))
	}

	a.logger.Debug("analysis complete",
		"source", source,
		"issues", report.TotalCount(),
		"score", report.Score(),
	)
	return report
}

// AnalyzePage analyzes a retrieved page using its URL as the source.
func (a *Analyzer) AnalyzePage(page *model.Page) *model.Report {
	return a.Analyze(page.Markup, page.URL)
}

// runDetector runs one detector and captures a panic instead of letting it
// escape the goroutine.
func (a *Analyzer) runDetector(d Detector, markup string) (issues []model.Issue, failure any) {
	defer func() {
		if r := recover(); r != nil {
			issues, failure = nil, r
		}
	}()
	return d.Detect(markup, a.ids), nil
}

// handleViolation logs a programming error, or panics in strict mode.
func (a *Analyzer) handleViolation(msg string) {
	if a.strict {
		panic(msg)
	}
	a.logger.Error(msg)
}

// TruncateMarkup cuts markup to at most maxChars characters.
// A non-positive maxChars disables truncation.
func TruncateMarkup(markup string, maxChars int) (string, bool) {
	if maxChars <= 0 || len(markup) <= maxChars {
		return markup, false
	}
	if utf8.RuneCountInString(markup) <= maxChars {
		return markup, false
	}

	count := 0
	for i := range markup {
		if count == maxChars {
			return markup[:i], true
		}
		count++
	}
	return markup, false
}
