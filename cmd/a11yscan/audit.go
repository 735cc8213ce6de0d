package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/a11y"
	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/fetch"
	"github.com/nao1215/a11yscan/internal/llm"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/report"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url...]",
		Short: "Audit web pages for accessibility issues",
		Long: `Audit fetches web pages and checks them for accessibility issues:
- Images without alternative text
- Form inputs without labels and forms without validation feedback
- Missing or skipped headings and a missing main landmark
- Text with insufficient color contrast
- Buttons without an accessible name
- Click handlers on elements that cannot receive keyboard focus

Each page gets a score from 0 to 100 (critical -15, moderate -8, minor -3).
Results are saved to the local history database unless --no-save is given.

Examples:
  # Audit a single page
  a11yscan audit https://example.com

  # Audit several pages, four at a time
  a11yscan audit -b 4 https://example.com https://example.org

  # Follow same-site links two hops deep
  a11yscan audit -d 2 -p 30 https://example.com

  # Audit a local file, or markup from stdin
  a11yscan audit --file page.html
  curl -s https://example.com | a11yscan audit --file -

  # Ask a Gemini model instead of the built-in rules (needs GEMINI_API_KEY)
  a11yscan audit --ai https://example.com

  # Write a Markdown or HTML report
  a11yscan audit -m -o report.md https://example.com
  a11yscan audit --html -o report.html https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Input flags
	cmd.Flags().StringP("file", "f", "",
		`Audit a local markup file instead of URLs ("-" reads stdin)`)
	cmd.Flags().Bool("ai", false,
		"Analyze with a Gemini model instead of the built-in rules")

	// Retrieval flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Link hops followed from each URL (0 audits only the given page)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages audited per URL when crawling")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between requests when crawling")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs audited concurrently")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("user-agent", "",
		"User-Agent header sent with requests")
	cmd.Flags().Int("max-chars", config.DefaultMaxChars,
		"Characters of markup analyzed per page (0 disables the limit)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().Bool("html", false,
		"Output HTML report")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not save results to the history database")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown", "html")
	cmd.MarkFlagsMutuallyExclusive("file", "depth")

	return cmd
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cmd.InOrStdin(), cfg, logger)
}

// buildConfig creates a Config from cobra command flags, the environment
// and the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.MarkupFile, err = flags.GetString("file"); err != nil {
		return nil, err
	}
	if cfg.UseAI, err = flags.GetBool("ai"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.MaxChars, err = flags.GetInt("max-chars"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.HTMLReport, err = flags.GetBool("html"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	// Environment first so the flag wins when both are set.
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}

	cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// loadSiteConfigs loads the configuration file. A missing file is an error
// only when its path was given explicitly.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	cf, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cf, nil
}

// auditor holds what every audit pipeline of one run shares.
type auditor struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.AuditDB
	model  *llm.Settings
	stdin  io.Reader
}

func runAudit(ctx context.Context, stdout, stderr io.Writer, stdin io.Reader, cfg *config.Config, logger *slog.Logger) error {
	a := &auditor{cfg: cfg, logger: logger, stdin: stdin}

	if cfg.UseAI {
		settings, err := llm.LoadSettings()
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("%w (set GEMINI_API_KEY to use --ai)", err)
		}
		a.model = &settings
	}

	// Fail on a bad proxy once instead of once per URL.
	if _, err := fetch.NewHTTPClient(fetch.ClientOptions{ProxyAddress: cfg.ProxyAddress}); err != nil {
		return err
	}

	var sources []string
	if cfg.MarkupFile != "" {
		source := cfg.MarkupFile
		if source == "-" {
			source = pipeline.StdinSource
		}
		sources = []string{source}
	} else {
		for _, target := range cfg.Targets {
			normalized, err := fetch.NormalizeURL(target)
			if err != nil {
				return fmt.Errorf("invalid URL %q: %w", target, err)
			}
			sources = append(sources, normalized)
		}
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		a.db = db
		logger.Debug("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(stdout, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer, complete := newReportWriter(output, cfg, engineName(cfg))

	start := time.Now()
	var audits []*pipeline.Audit
	if len(sources) == 1 {
		audits, err = a.runSingle(ctx, sources[0])
	} else {
		audits, err = a.runBatch(ctx, stderr, sources, writer, complete)
	}
	if err != nil {
		return err
	}
	logger.Debug("audit finished", "sources", len(sources), "elapsed", time.Since(start))

	return writeResults(output, stderr, writer, complete, audits, len(sources) > 1 && !complete)
}

// runSingle audits one source directly.
func (a *auditor) runSingle(ctx context.Context, source string) ([]*pipeline.Audit, error) {
	p, err := a.pipelineFor(source)
	if err != nil {
		return nil, err
	}
	audit := pipeline.NewAudit(source)
	// Failures are kept in audit.Err and reported by writeResults.
	_ = p.Execute(ctx, audit)
	return []*pipeline.Audit{audit}, nil
}

// runBatch audits several sources concurrently. Text and Markdown reports
// are streamed as each audit finishes; other formats wait for the summary.
func (a *auditor) runBatch(ctx context.Context, stderr io.Writer, sources []string, writer report.Writer, complete bool) ([]*pipeline.Audit, error) {
	fmt.Fprintf(stderr, "Auditing %d URLs (concurrency: %d)...\n", len(sources), a.cfg.BatchSize)

	bp := pipeline.NewBatchProcessor(
		a.pipelineFor,
		pipeline.WithConcurrency(a.cfg.BatchSize),
		pipeline.WithBatchLogger(a.logger),
	)

	audits := make([]*pipeline.Audit, len(sources))
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, sources, func(audit *pipeline.Audit, index int) {
		mu.Lock()
		defer mu.Unlock()

		audits[index] = audit
		if audit.Failed() && audit.Report() == nil {
			fmt.Fprintf(stderr, "[%d/%d] %s: %v\n", index+1, len(sources), audit.Source, audit.Err)
			return
		}
		fmt.Fprintf(stderr, "[%d/%d] %s: score %d\n", index+1, len(sources), audit.Source, audit.Report().Score())
		if !complete {
			for _, r := range audit.Reports {
				if _, err := writer.Write(r); err != nil {
					a.logger.Error("failed to write report", "source", r.Source(), "error", err)
				}
			}
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return audits, nil
}

// pipelineFor builds the audit pipeline for source, applying the site
// configuration of its host.
func (a *auditor) pipelineFor(source string) (*pipeline.Pipeline, error) {
	cfg := a.cfg
	site := config.SiteConfig{}
	if cfg.SiteConfigs != nil && cfg.MarkupFile == "" {
		site = cfg.SiteConfigs.SiteConfigFor(source)
	}

	maxChars := cfg.MaxChars
	if site.MaxChars > 0 {
		maxChars = site.MaxChars
	}

	p := pipeline.New(
		pipeline.WithLogger(a.logger),
		pipeline.WithContinueOnError(true),
	)

	if cfg.MarkupFile != "" {
		p.AddStep(pipeline.NewMarkupStep(cfg.MarkupFile,
			pipeline.WithStdin(a.stdin),
			pipeline.WithMarkupMaxSize(cfg.MaxBodySize),
		))
	} else {
		step, err := a.retrievalStep(source, site)
		if err != nil {
			return nil, err
		}
		p.AddStep(step)
	}

	if a.model != nil {
		client := llm.NewClient(*a.model,
			llm.WithMaxChars(maxChars),
			llm.WithLogger(a.logger),
		)
		p.AddStep(pipeline.NewAIStep(client, a.logger))
	} else {
		analyzer := a11y.NewAnalyzer(
			a11y.WithMaxChars(maxChars),
			a11y.WithLogger(a.logger),
		)
		p.AddStep(pipeline.NewAnalyzeStep(analyzer))
	}

	if a.db != nil {
		p.AddStep(pipeline.NewPersistStep(a.db))
	}
	return p, nil
}

func (a *auditor) retrievalStep(source string, site config.SiteConfig) (pipeline.Step, error) {
	cfg := a.cfg
	client, err := fetch.NewHTTPClient(fetch.ClientOptions{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
		Cookie:       site.Cookie,
		Headers:      site.Headers,
	})
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewFetcher(client,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithFetchLogger(a.logger),
	)

	depth := cfg.CrawlDepth
	if site.Depth > 0 {
		depth = site.Depth
	}
	if depth == 0 {
		return pipeline.NewFetchStep(fetcher), nil
	}

	a.logger.Debug("crawling", "source", source, "depth", depth, "max_pages", cfg.MaxPages)
	spider := fetch.NewSpider(fetcher,
		fetch.WithMaxDepth(depth),
		fetch.WithMaxPages(cfg.MaxPages),
		fetch.WithDelay(cfg.CrawlDelay),
		fetch.WithIgnorePatterns(site.IgnorePatterns),
		fetch.WithFollowPatterns(site.FollowPatterns),
		fetch.WithSpiderLogger(a.logger),
	)
	return pipeline.NewCrawlStep(spider), nil
}

func engineName(cfg *config.Config) string {
	if cfg.UseAI {
		return pipeline.EngineAI
	}
	return pipeline.EngineRules
}

// newReportWriter picks the writer for the requested format. complete is
// true when the writer's summary already contains every report, so
// individual reports need not be written first.
func newReportWriter(output io.Writer, cfg *config.Config, engine string) (writer report.Writer, complete bool) {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), engine, report.WithPrettyPrint()), true
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), false
	case cfg.HTMLReport:
		return report.NewHTMLWriter(output), true
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), false
	}
}

// writeResults writes the reports of audits and returns an error naming
// the failed ones. When streamed is set the individual reports were
// already written during the batch and only the summary follows.
func writeResults(output, stderr io.Writer, writer report.Writer, complete bool, audits []*pipeline.Audit, streamed bool) error {
	var (
		reports []*model.Report
		failed  []*pipeline.Audit
	)
	for _, audit := range audits {
		if audit == nil {
			continue
		}
		if audit.Report() == nil {
			failed = append(failed, audit)
			continue
		}
		if audit.Failed() {
			fmt.Fprintf(stderr, "Warning: %s: %v\n", audit.Source, audit.Err)
		}
		reports = append(reports, audit.Reports...)
	}

	if len(reports) == 1 && len(audits) == 1 {
		if _, err := writer.Write(reports[0]); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if audit := audits[0]; audit.Engine == pipeline.EngineAI && !complete {
			fmt.Fprintf(output, "Model assessment: %d/100\n", audit.ModelScore())
		}
	} else if len(reports) > 0 {
		if !complete && !streamed {
			for _, r := range reports {
				if _, err := writer.Write(r); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
			}
		}
		if _, err := writer.WriteSummary(reports); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	switch {
	case len(failed) == 0:
		return nil
	case len(audits) == 1:
		return failed[0].Err
	default:
		for _, audit := range failed {
			fmt.Fprintf(stderr, "Error: %s: %v\n", audit.Source, audit.Err)
		}
		return fmt.Errorf("%d of %d audits failed", len(failed), len(audits))
	}
}

// openOutput returns the report destination. Reports written to a file
// get owner-only permissions since they may quote page content.
func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
