package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/fetch"
	"github.com/nao1215/a11yscan/internal/model"
)

// Score change directions.
const (
	directionImproved  = "improved"
	directionWorsened  = "worsened"
	directionUnchanged = "unchanged"
)

const sinceLayout = "2006-01-02"

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [source]",
		Short: "Compare audit results with earlier audits",
		Long: `Compare shows how a page changed between two saved audits:
- The score change and whether accessibility improved or worsened
- Issues that are new in the latest audit
- Issues that were resolved since the earlier audit

By default the latest audit is compared with the one before it.

Examples:
  # Compare the latest two audits of a page
  a11yscan compare https://example.com

  # List saved audits of a page
  a11yscan compare --list https://example.com

  # Compare with a specific audit by ID
  a11yscan compare --with-audit-id 5 https://example.com

  # Compare with the first audit since a date
  a11yscan compare --since 2026-01-01 https://example.com

  # List every audited source
  a11yscan compare --list-services`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List audit history for the specified source")
	cmd.Flags().BoolP("list-services", "L", false,
		"List all audited sources in the database")

	cmd.Flags().Int64P("with-audit-id", "i", 0,
		"Compare with a specific audit by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first audit on or after this date (format: YYYY-MM-DD)")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	cmd.MarkFlagsMutuallyExclusive("with-audit-id", "since")

	return cmd
}

// compareOptions holds the compare command flags.
type compareOptions struct {
	list         bool
	listServices bool
	withAuditID  int64
	since        string
	json         bool
	markdown     bool
}

func compareOptionsFrom(cmd *cobra.Command) (compareOptions, error) {
	var (
		opts compareOptions
		err  error
	)
	flags := cmd.Flags()
	if opts.list, err = flags.GetBool("list"); err != nil {
		return opts, err
	}
	if opts.listServices, err = flags.GetBool("list-services"); err != nil {
		return opts, err
	}
	if opts.withAuditID, err = flags.GetInt64("with-audit-id"); err != nil {
		return opts, err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	return opts, nil
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	opts, err := compareOptionsFrom(cmd)
	if err != nil {
		return err
	}

	// Validate before opening the database.
	if !opts.listServices && len(args) == 0 {
		return errors.New("source is required (use --list-services to see audited sources)")
	}
	var sinceDate time.Time
	if opts.since != "" {
		sinceDate, err = time.Parse(sinceLayout, opts.since)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	cfg := config.NewConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.listServices {
		return listAuditedSources(ctx, out, db)
	}

	source, err := resolveSource(ctx, db, args[0])
	if err != nil {
		return err
	}
	if opts.list {
		return listAuditHistory(ctx, out, db, source)
	}

	result, err := runComparison(ctx, db, source, opts.withAuditID, sinceDate)
	if err != nil {
		return err
	}

	switch {
	case opts.json:
		return outputComparisonJSON(out, result)
	case opts.markdown:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// resolveSource returns arg as stored in the database. URLs are saved in
// normalized form, so "example.com" finds "https://example.com".
func resolveSource(ctx context.Context, db *database.AuditDB, arg string) (string, error) {
	latest, err := db.GetLatestAudit(ctx, arg)
	if err != nil {
		return "", err
	}
	if latest != nil {
		return arg, nil
	}
	if normalized, err := fetch.NormalizeURL(arg); err == nil {
		return normalized, nil
	}
	return arg, nil
}

func listAuditedSources(ctx context.Context, out io.Writer, db *database.AuditDB) error {
	sources, err := db.ListAuditedSources(ctx)
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintln(out, "No audited sources found in the database.")
		fmt.Fprintln(out, "\nUse 'a11yscan audit <url>' to audit a page.")
		return nil
	}

	fmt.Fprintf(out, "Audited sources (%d):\n\n", len(sources))
	for _, source := range sources {
		fmt.Fprintf(out, "  • %s\n", source)
	}
	fmt.Fprintln(out, "\nUse 'a11yscan compare --list <source>' to see the audit history of a source.")
	return nil
}

func listAuditHistory(ctx context.Context, out io.Writer, db *database.AuditDB, source string) error {
	metas, err := db.GetAuditHistoryWithMetadata(ctx, source)
	if err != nil {
		return err
	}

	if len(metas) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", source)
		fmt.Fprintln(out, "\nUse 'a11yscan audit' to audit this source.")
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", source, len(metas))
	fmt.Fprintf(out, "  %-6s  %-19s  %-14s  %-5s  %-6s  %s\n", "ID", "Date", "", "Score", "Engine", "Issues")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))
	for _, meta := range metas {
		fmt.Fprintf(out, "  %-6d  %-19s  %-14s  %-5d  %-6s  %s\n",
			meta.ID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			humanize.Time(meta.Timestamp),
			meta.Score,
			meta.Engine,
			formatTally(meta.Tally),
		)
	}

	fmt.Fprintln(out, "\nUse 'a11yscan compare <source>' to compare the latest two audits.")
	fmt.Fprintln(out, "Use 'a11yscan compare --with-audit-id <id> <source>' to compare with a specific audit.")
	return nil
}

// formatTally formats severity counts as "C:1 M:2 m:3".
func formatTally(t model.Tally) string {
	var parts []string
	if t.Critical > 0 {
		parts = append(parts, "C:"+strconv.Itoa(t.Critical))
	}
	if t.Moderate > 0 {
		parts = append(parts, "M:"+strconv.Itoa(t.Moderate))
	}
	if t.Minor > 0 {
		parts = append(parts, "m:"+strconv.Itoa(t.Minor))
	}
	if len(parts) == 0 {
		return "No issues"
	}
	return strings.Join(parts, " ")
}

// runComparison picks the two reports to compare. The latest audit is
// always the current one.
func runComparison(ctx context.Context, db *database.AuditDB, source string, withAuditID int64, since time.Time) (*ComparisonResult, error) {
	reports, err := db.GetAuditHistory(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no audit history found for %s", source)
	}
	current := reports[0]

	var previous *model.Report
	switch {
	case withAuditID > 0:
		previous, err = db.GetAuditByID(ctx, withAuditID)
		if err != nil {
			return nil, fmt.Errorf("failed to get audit with ID %d: %w", withAuditID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("audit with ID %d not found", withAuditID)
		}
		if previous.Source() != source {
			return nil, fmt.Errorf("audit ID %d belongs to %s, not %s", withAuditID, previous.Source(), source)
		}
	case !since.IsZero():
		// History is newest first; walk back to the oldest match.
		for i := len(reports) - 1; i >= 0; i-- {
			if !reports[i].ScannedAt().Before(since) {
				previous = reports[i]
				break
			}
		}
		if previous == nil {
			return nil, fmt.Errorf("no audits found since %s", since.Format(sinceLayout))
		}
		if previous == current {
			return nil, fmt.Errorf("only one audit found since %s; at least 2 audits are required for comparison", since.Format(sinceLayout))
		}
	default:
		if len(reports) < 2 {
			return nil, fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(reports))
		}
		previous = reports[1]
	}

	return compareReports(previous, current), nil
}

// ComparisonResult holds the result of comparing two audits of a source.
type ComparisonResult struct {
	Source         string        `json:"source"`
	Previous       AuditSnapshot `json:"previous"`
	Current        AuditSnapshot `json:"current"`
	ScoreDelta     int           `json:"score_delta"`
	Direction      string        `json:"direction"`
	NewIssues      []model.Issue `json:"new_issues"`
	ResolvedIssues []model.Issue `json:"resolved_issues"`
	UnchangedCount int           `json:"unchanged_count"`
}

// AuditSnapshot summarizes one side of a comparison.
type AuditSnapshot struct {
	ScannedAt    time.Time `json:"scanned_at"`
	Score        int       `json:"score"`
	TotalCount   int       `json:"total_count"`
	Critical     int       `json:"critical_count"`
	Moderate     int       `json:"moderate_count"`
	Minor        int       `json:"minor_count"`
	IsAccessible bool      `json:"is_accessible"`
}

func snapshotOf(r *model.Report) AuditSnapshot {
	return AuditSnapshot{
		ScannedAt:    r.ScannedAt(),
		Score:        r.Score(),
		TotalCount:   r.TotalCount(),
		Critical:     r.CriticalCount(),
		Moderate:     r.ModerateCount(),
		Minor:        r.MinorCount(),
		IsAccessible: r.IsAccessible(),
	}
}

// compareReports matches issues by content, ignoring their IDs, which
// differ between audits.
func compareReports(previous, current *model.Report) *ComparisonResult {
	result := &ComparisonResult{
		Source:         current.Source(),
		Previous:       snapshotOf(previous),
		Current:        snapshotOf(current),
		ScoreDelta:     current.Score() - previous.Score(),
		NewIssues:      []model.Issue{},
		ResolvedIssues: []model.Issue{},
	}

	switch {
	case result.ScoreDelta > 0:
		result.Direction = directionImproved
	case result.ScoreDelta < 0:
		result.Direction = directionWorsened
	default:
		result.Direction = directionUnchanged
	}

	// Counts handle the same defect appearing more than once.
	before := make(map[string]int)
	for _, issue := range previous.Issues() {
		before[issue.Fingerprint()]++
	}
	for _, issue := range current.SortedBySeverity() {
		key := issue.Fingerprint()
		if before[key] > 0 {
			before[key]--
			result.UnchangedCount++
			continue
		}
		result.NewIssues = append(result.NewIssues, issue)
	}
	for _, issue := range previous.SortedBySeverity() {
		key := issue.Fingerprint()
		if before[key] > 0 {
			before[key]--
			result.ResolvedIssues = append(result.ResolvedIssues, issue)
		}
	}
	return result
}

func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Audit Comparison")
	md.PlainText("")
	md.PlainTextf("**Source:** `%s`", result.Source)
	md.PlainText("")
	md.PlainTextf("**Status:** %s", formatDirection(result.Direction))
	md.PlainText("")

	row := func(label string, prev, cur int) []string {
		return []string{label, strconv.Itoa(prev), strconv.Itoa(cur), formatDelta(cur - prev)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date", result.Previous.ScannedAt.Format("2006-01-02 15:04"), result.Current.ScannedAt.Format("2006-01-02 15:04"), "-"},
			row("Score", result.Previous.Score, result.Current.Score),
			row("Critical", result.Previous.Critical, result.Current.Critical),
			row("Moderate", result.Previous.Moderate, result.Current.Moderate),
			row("Minor", result.Previous.Minor, result.Current.Minor),
			row("**Total**", result.Previous.TotalCount, result.Current.TotalCount),
		},
	})
	md.PlainText("")

	if len(result.NewIssues) > 0 {
		md.H2(fmt.Sprintf("New Issues (%d)", len(result.NewIssues)))
		md.PlainText("")
		items := make([]string, len(result.NewIssues))
		for i, issue := range result.NewIssues {
			items[i] = fmt.Sprintf("**[%s]** %s", issue.Severity, issue.Title)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.ResolvedIssues) > 0 {
		md.H2(fmt.Sprintf("Resolved Issues (%d)", len(result.ResolvedIssues)))
		md.PlainText("")
		items := make([]string, len(result.ResolvedIssues))
		for i, issue := range result.ResolvedIssues {
			items[i] = fmt.Sprintf("~~**[%s]** %s~~", issue.Severity, issue.Title)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d issues unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(out, "Audit Comparison: %s\n", result.Source)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(result.Direction))
	fmt.Fprintf(out, "\nPrevious audit: %s (%s)\n",
		result.Previous.ScannedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(result.Previous.ScannedAt))
	fmt.Fprintf(out, "Current audit:  %s (%s)\n",
		result.Current.ScannedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(result.Current.ScannedAt))

	line := func(label string, prev, cur int) {
		fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", label, prev, cur, formatDelta(cur-prev))
	}
	fmt.Fprintln(out, "\nSummary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	line("Score", result.Previous.Score, result.Current.Score)
	line("Critical", result.Previous.Critical, result.Current.Critical)
	line("Moderate", result.Previous.Moderate, result.Current.Moderate)
	line("Minor", result.Previous.Minor, result.Current.Minor)
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	line("Total", result.Previous.TotalCount, result.Current.TotalCount)

	if len(result.NewIssues) > 0 {
		fmt.Fprintf(out, "\nNew Issues (%d):\n", len(result.NewIssues))
		for _, issue := range result.NewIssues {
			fmt.Fprintf(out, "  [+] [%s] %s\n", issue.Severity, issue.Title)
			if issue.Element != "" {
				fmt.Fprintf(out, "      Element: %s\n", issue.Element)
			}
		}
	}
	if len(result.ResolvedIssues) > 0 {
		fmt.Fprintf(out, "\nResolved Issues (%d):\n", len(result.ResolvedIssues))
		for _, issue := range result.ResolvedIssues {
			fmt.Fprintf(out, "  [-] [%s] %s\n", issue.Severity, issue.Title)
		}
	}
	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d issues\n", result.UnchangedCount)
	}
	return nil
}

func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (score increased)"
	case directionWorsened:
		return "WORSENED (score decreased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with its sign.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
