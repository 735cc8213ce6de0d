package llm

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

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/nao1215/a11yscan/internal/a11y"
	"github.com/nao1215/a11yscan/internal/model"
)

// DefaultTimeout bounds a single generateContent call.
const DefaultTimeout = 90 * time.Second

// requestTemplate is the generateContent payload; the prompt is set with sjson.
const requestTemplate = `{"contents":[{"role":"user","parts":[{"text":""}]}],"generationConfig":{"responseMimeType":"application/json"}}`

// Result is the outcome of a model audit.
type Result struct {
	// Report holds the converted issues. Its score comes from the rule
	// scorer, not from the model.
	Report *model.Report

	// ModelScore is the score the model reported for itself, 0-100.
	ModelScore int

	// Model is the model name that produced the result.
	Model string

	// Truncated reports whether the markup was cut before sending.
	Truncated bool
}

// Client calls the Gemini generateContent API.
type Client struct {
	settings   Settings
	httpClient *http.Client
	ids        a11y.IDGenerator
	maxChars   int
	clock      func() time.Time
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithIDGenerator sets the issue ID generator.
func WithIDGenerator(ids a11y.IDGenerator) Option {
	return func(c *Client) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// WithMaxChars sets the markup truncation limit.
func WithMaxChars(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithClock sets the function that timestamps reports.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client.
func NewClient(settings Settings, opts ...Option) *Client {
	c := &Client{
		settings:   settings,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		ids:        a11y.UUIDGenerator{},
		maxChars:   a11y.DefaultMaxChars,
		clock:      time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Audit sends markup to the model and converts its findings into a report
// for source.
func (c *Client) Audit(ctx context.Context, markup, source string) (*Result, error) {
	if err := c.settings.Validate(); err != nil {
		return nil, err
	}

	markup, truncated := a11y.TruncateMarkup(markup, c.maxChars)
	if truncated {
		c.logger.Debug("truncated markup for model audit", "source", source, "max_chars", c.maxChars)
	}

	text, err := c.generate(ctx, BuildPrompt(markup))
	if err != nil {
		return nil, err
	}

	score, findings, err := parseFindings(text)
	if err != nil {
		return nil, err
	}

	report := model.NewReport(source, c.clock(), ToIssues(findings, c.ids))
	c.logger.Debug("model audit complete",
		"source", source,
		"model", c.settings.Model,
		"issues", report.TotalCount(),
		"model_score", score,
		"score", report.Score(),
	)

	return &Result{
		Report:     report,
		ModelScore: score,
		Model:      c.settings.Model,
		Truncated:  truncated,
	}, nil
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	endpoint, err := c.endpointURL()
	if err != nil {
		return "", err
	}

	body, err := sjson.SetBytes([]byte(requestTemplate), "contents.0.parts.0.text", prompt)
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		// The request URL carries the API key, so drop the *url.Error wrapper.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("read generate error body: %w", err)
		}
		return "", fmt.Errorf("generate request status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return "", fmt.Errorf("%w: generate response", ErrMalformedResponse)
	}

	text := gjson.GetBytes(payload, "candidates.0.content.parts.0.text").String()
	if strings.TrimSpace(text) == "" {
		if reason := gjson.GetBytes(payload, "promptFeedback.blockReason").String(); reason != "" {
			return "", fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, reason)
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

// endpointURL builds {endpoint}/models/{model}:generateContent?key=KEY.
func (c *Client) endpointURL() (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.settings.Endpoint), "/")
	u, err := url.Parse(base + "/models/" + url.PathEscape(c.settings.Model) + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("parse gemini endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.settings.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
