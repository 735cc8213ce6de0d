package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/a11yscan/internal/model"
)

// DefaultUserAgent is a desktop browser User-Agent. Some sites serve
// different markup, or refuse service, to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultMaxBodySize is the default response body limit in bytes.
const DefaultMaxBodySize = 10 * 1024 * 1024

// Fetcher retrieves single pages.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	clock       func() time.Time
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the response body limit in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithFetchClock sets the function that timestamps pages.
func WithFetchClock(clock func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.clock = clock
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher using client. A nil client uses a client
// from NewHTTPClient with default options.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client, _ = NewHTTPClient(ClientOptions{}) //nolint:errcheck // default options never fail
	}
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		clock:       time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawURL and returns the decoded page.
// Every failure is a *RetrievalError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, &RetrievalError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RetrievalError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RetrievalError{URL: target, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RetrievalError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &RetrievalError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	markup, err := decodeBody(body, contentType)
	if err != nil {
		return nil, &RetrievalError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page := &model.Page{
		URL:         finalURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: contentType,
		Markup:      markup,
		Size:        len(body),
		FetchedAt:   f.clock(),
	}
	page.ComputeDigest()

	if page.IsHTML() {
		doc, err := ParseDocument(finalURL, markup)
		if err != nil {
			f.logger.Debug("failed to parse page metadata", "url", finalURL, "error", err)
		} else {
			page.Title = doc.Title
			page.Lang = doc.Lang
			page.Links = doc.Links
		}
	}

	f.logger.Debug("fetched page",
		"url", finalURL,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
	)
	return page, nil
}

// decodeBody converts body to UTF-8 using the Content-Type charset or
// the document's meta declaration.
func decodeBody(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}

// unwrapURLError strips the *url.Error wrapper that repeats method and URL,
// since RetrievalError already names the URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// NormalizeURL trims rawURL and adds "https://" when it has no scheme.
// Only absolute http and https URLs with a host are accepted.
func NormalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}

// normalizeURL normalizes a URL for deduplication: lowercase scheme and
// host, no fragment, and "/" for an empty path.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
