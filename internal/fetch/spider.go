package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

// Spider crawls same-site pages breadth first so several pages of one site
// can be audited in a single run.
type Spider struct {
	fetcher *Fetcher

	// maxDepth limits link hops from the start page. 0 fetches only the start page.
	maxDepth int

	// maxPages limits the number of pages returned.
	maxPages int

	// delay is the pause between requests.
	delay time.Duration

	// ignorePatterns are URL path globs to skip.
	ignorePatterns []string

	// followPatterns, when set, are the only URL path globs crawled.
	followPatterns []string

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets how many link hops are followed. Negative values mean 0.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = max(0, depth)
	}
}

// WithMaxPages caps the pages returned, start page included.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

// WithDelay sets the pause before each linked page request.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithIgnorePatterns sets path globs that are never crawled, such as
// "/logout*" or "*.pdf".
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts crawling to paths matching one of patterns.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that retrieves pages with fetcher.
func NewSpider(fetcher *Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  fetcher,
		maxDepth: 0,
		maxPages: 20,
		delay:    500 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// queueItem is a pending link and its hop count.
type queueItem struct {
	url   string
	depth int
}

// Crawl fetches startURL and then same-site links up to the configured
// depth and page limits.
//
// A failure on the start page is returned as-is so the caller can report
// it. Failures on linked pages are logged and skipped.
func (s *Spider) Crawl(ctx context.Context, startURL string) ([]*model.Page, error) {
	first, err := s.fetcher.Fetch(ctx, startURL)
	if err != nil {
		return nil, err
	}

	pages := []*model.Page{first}
	visited := map[string]bool{normalizeURL(first.URL): true}

	start, err := url.Parse(first.URL)
	if err != nil {
		return pages, nil //nolint:nilerr // the start page is usable even if its final URL is odd
	}

	var queue []queueItem
	enqueue := func(links []string, depth int) {
		if depth > s.maxDepth {
			return
		}
		for _, link := range links {
			key := normalizeURL(link)
			if visited[key] || !isSameSite(start, link) || !s.shouldCrawl(link) {
				continue
			}
			visited[key] = true
			queue = append(queue, queueItem{url: link, depth: depth})
		}
	}
	enqueue(first.Links, 1)

	for len(queue) > 0 && len(pages) < s.maxPages {
		if s.delay > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(s.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		item := queue[0]
		queue = queue[1:]

		page, err := s.fetcher.Fetch(ctx, item.url)
		if err != nil {
			s.logger.Warn("skipping page", "url", item.url, "error", err)
			continue
		}
		if !page.IsHTML() {
			s.logger.Debug("skipping non-HTML page", "url", item.url, "content_type", page.ContentType)
			continue
		}

		pages = append(pages, page)
		enqueue(page.Links, item.depth+1)
	}

	return pages, nil
}

// shouldCrawl applies the ignore and follow patterns to targetURL's path.
// Ignore patterns win over follow patterns.
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern reports whether path matches pattern:
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns use filepath.Match against the path, and patterns
//     without a slash also match the last path element
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}
