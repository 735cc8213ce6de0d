package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/a11yscan/internal/a11y"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/fetch"
	"github.com/nao1215/a11yscan/internal/llm"
	"github.com/nao1215/a11yscan/internal/model"
)

// Step errors.
var (
	// ErrNoPages is returned when analysis runs before any page was retrieved.
	ErrNoPages = errors.New("no pages to analyze")

	// ErrMarkupTooLarge is returned when local markup exceeds the size limit.
	ErrMarkupTooLarge = errors.New("markup exceeds size limit")
)

// StdinSource is the audit source name for markup read from stdin.
const StdinSource = "stdin"

// FetchStep retrieves the audit source over HTTP. With a spider it crawls
// same-site links as well.
type FetchStep struct {
	fetcher *fetch.Fetcher
	spider  *fetch.Spider
}

// NewFetchStep creates a step that fetches a single page.
func NewFetchStep(fetcher *fetch.Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// NewCrawlStep creates a step that crawls from the source URL.
func NewCrawlStep(spider *fetch.Spider) *FetchStep {
	return &FetchStep{spider: spider}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	if s.spider != nil {
		return "crawl"
	}
	return "fetch"
}

// Do retrieves the source. Any failure halts the audit.
func (s *FetchStep) Do(ctx context.Context, audit *Audit) error {
	if s.spider != nil {
		pages, err := s.spider.Crawl(ctx, audit.Source)
		if len(pages) == 0 {
			if err == nil {
				err = ErrNoPages
			}
			return Halt(err)
		}
		// A cancelled crawl still audits what it collected.
		audit.Pages = pages
		return err
	}

	page, err := s.fetcher.Fetch(ctx, audit.Source)
	if err != nil {
		return Halt(err)
	}
	audit.Pages = []*model.Page{page}
	return nil
}

// MarkupStep reads markup from a local file or stdin instead of fetching.
type MarkupStep struct {
	path    string
	stdin   io.Reader
	maxSize int64
}

// MarkupStepOption configures a MarkupStep.
type MarkupStepOption func(*MarkupStep)

// WithStdin sets the reader used when the path is "-".
func WithStdin(r io.Reader) MarkupStepOption {
	return func(s *MarkupStep) {
		s.stdin = r
	}
}

// WithMarkupMaxSize limits how many bytes are read.
func WithMarkupMaxSize(size int64) MarkupStepOption {
	return func(s *MarkupStep) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// NewMarkupStep creates a step that reads path, or stdin for "-".
func NewMarkupStep(path string, opts ...MarkupStepOption) *MarkupStep {
	s := &MarkupStep{
		path:    path,
		stdin:   os.Stdin,
		maxSize: fetch.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *MarkupStep) Name() string {
	return "markup"
}

// Do reads the markup into a single page named after the audit source.
func (s *MarkupStep) Do(_ context.Context, audit *Audit) error {
	var r io.Reader
	if s.path == "-" {
		r = s.stdin
	} else {
		f, err := os.Open(s.path)
		if err != nil {
			return Halt(fmt.Errorf("failed to open markup file: %w", err))
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return Halt(fmt.Errorf("failed to read markup: %w", err))
	}
	if int64(len(data)) > s.maxSize {
		return Halt(fmt.Errorf("%w: %d bytes", ErrMarkupTooLarge, s.maxSize))
	}

	page := &model.Page{
		URL:         audit.Source,
		ContentType: "text/html",
		Markup:      string(data),
		Size:        len(data),
	}
	page.ComputeDigest()
	if doc, err := fetch.ParseDocument("file:///", page.Markup); err == nil {
		page.Title = doc.Title
		page.Lang = doc.Lang
	}

	audit.Pages = []*model.Page{page}
	return nil
}

// AnalyzeStep runs the rule engine over every retrieved page.
type AnalyzeStep struct {
	analyzer *a11y.Analyzer
}

// NewAnalyzeStep creates a rule-engine analysis step.
func NewAnalyzeStep(analyzer *a11y.Analyzer) *AnalyzeStep {
	return &AnalyzeStep{analyzer: analyzer}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do produces one report per page.
func (s *AnalyzeStep) Do(_ context.Context, audit *Audit) error {
	if len(audit.Pages) == 0 {
		return Halt(ErrNoPages)
	}
	audit.Engine = EngineRules
	audit.Reports = make([]*model.Report, 0, len(audit.Pages))
	for _, page := range audit.Pages {
		audit.Reports = append(audit.Reports, s.analyzer.AnalyzePage(page))
	}
	return nil
}

// ModelAuditor audits markup with a language model.
type ModelAuditor interface {
	Audit(ctx context.Context, markup, source string) (*llm.Result, error)
}

// AIStep audits every page with the Gemini model instead of the rules.
type AIStep struct {
	auditor ModelAuditor
	logger  *slog.Logger
}

// NewAIStep creates a model analysis step.
func NewAIStep(auditor ModelAuditor, logger *slog.Logger) *AIStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AIStep{auditor: auditor, logger: logger}
}

// Name returns the step name.
func (s *AIStep) Name() string {
	return "ai_analyze"
}

// Do produces one report per page. The first model failure stops the
// audit, since a partial AI audit would mislead.
func (s *AIStep) Do(ctx context.Context, audit *Audit) error {
	if len(audit.Pages) == 0 {
		return Halt(ErrNoPages)
	}
	audit.Engine = EngineAI
	audit.Reports = make([]*model.Report, 0, len(audit.Pages))
	audit.ModelScores = make([]int, 0, len(audit.Pages))
	for _, page := range audit.Pages {
		result, err := s.auditor.Audit(ctx, page.Markup, page.URL)
		if err != nil {
			return Halt(fmt.Errorf("failed to audit %s with model: %w", page.URL, err))
		}
		if result.Truncated {
			s.logger.Warn("markup truncated before model audit", "source", page.URL)
		}
		audit.Reports = append(audit.Reports, result.Report)
		audit.ModelScores = append(audit.ModelScores, result.ModelScore)
	}
	return nil
}

// Store persists audits.
type Store interface {
	SaveAudit(ctx context.Context, entry database.AuditEntry) (int64, error)
	SavePage(ctx context.Context, page *model.Page) error
}

// PersistStep saves reports to the history database.
type PersistStep struct {
	store Store
}

// NewPersistStep creates a step that saves to store.
func NewPersistStep(store Store) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves every report and the pages that were fetched over HTTP.
func (s *PersistStep) Do(ctx context.Context, audit *Audit) error {
	for i, report := range audit.Reports {
		var digest string
		if i < len(audit.Pages) {
			page := audit.Pages[i]
			digest = page.Digest
			if page.StatusCode != 0 {
				if err := s.store.SavePage(ctx, page); err != nil {
					return err
				}
			}
		}

		id, err := s.store.SaveAudit(ctx, database.AuditEntry{
			Report:       report,
			Engine:       audit.Engine,
			MarkupDigest: digest,
		})
		if err != nil {
			return err
		}
		audit.AuditIDs = append(audit.AuditIDs, id)
	}
	return nil
}
