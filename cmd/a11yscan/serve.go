package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/a11y"
	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/fetch"
	"github.com/nao1215/a11yscan/internal/llm"
	applog "github.com/nao1215/a11yscan/internal/log"
)

const (
	// POST /analyze fetches arbitrary URLs, so only loopback by default.
	defaultServeAddr = "127.0.0.1:8080"

	// defaultMaxRequestBody bounds POST /analyze bodies.
	defaultMaxRequestBody = 2 * 1024 * 1024

	shutdownTimeout = 10 * time.Second
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the accessibility analyzer over HTTP",
		Long: `Serve starts an HTTP API for accessibility audits.

Endpoints:
  POST /analyze   {"url": "https://example.com"} or {"markup": "<html>...</html>"}
                  Add "ai": true to use the Gemini model (needs GEMINI_API_KEY).
                  Responds with the report as JSON.
  GET  /healthz   Liveness check.

Errors are returned as {"error": "..."}. The server shuts down gracefully
on SIGINT or SIGTERM.

The server fetches whatever URL a client sends, including loopback and
private network addresses, so anyone who can reach it can make requests
from the server's network. It listens on 127.0.0.1 by default; only bind
other interfaces (e.g. --addr :8080) behind access control.

Examples:
  a11yscan serve
  a11yscan serve --addr 127.0.0.1:9000 --log-json`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", defaultServeAddr, "Address to listen on")
	cmd.Flags().Int64("max-body", defaultMaxRequestBody, "Maximum request body size in bytes")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for fetching a URL")
	cmd.Flags().Int("max-chars", config.DefaultMaxChars, "Characters of markup analyzed per request")
	cmd.Flags().String("user-agent", "", "User-Agent header sent when fetching URLs")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	addr, err := flags.GetString("addr")
	if err != nil {
		return err
	}
	maxBody, err := flags.GetInt64("max-body")
	if err != nil {
		return err
	}
	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		return err
	}
	maxChars, err := flags.GetInt("max-chars")
	if err != nil {
		return err
	}
	userAgent, err := flags.GetString("user-agent")
	if err != nil {
		return err
	}
	logJSON, err := flags.GetBool("log-json")
	if err != nil {
		return err
	}

	// Requests are logged at Info.
	level := slog.LevelInfo
	if getVerboseFlag(cmd) {
		level = slog.LevelDebug
	}
	logger := applog.NewLogger(cmd.ErrOrStderr(), level, logJSON)

	env := config.NewConfig()
	if err := env.ApplyEnv(); err != nil {
		return err
	}
	if userAgent == "" {
		userAgent = env.UserAgent
	}

	client, err := fetch.NewHTTPClient(fetch.ClientOptions{Timeout: timeout})
	if err != nil {
		return err
	}

	opts := serverOptions{
		fetcher: fetch.NewFetcher(client,
			fetch.WithUserAgent(userAgent),
			fetch.WithFetchLogger(logger),
		),
		analyzer: a11y.NewAnalyzer(a11y.WithMaxChars(maxChars), a11y.WithLogger(logger)),
		maxBody:  maxBody,
		maxChars: maxChars,
		logger:   logger,
	}
	if settings, err := llm.LoadSettings(); err == nil && settings.Validate() == nil {
		opts.model = &settings
	} else {
		logger.Info("AI analysis disabled", "reason", "GEMINI_API_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           newServer(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return listenAndServe(ctx, srv, logger)
}

// listenAndServe runs srv until ctx ends, then shuts it down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	logger.Info("listening", "addr", srv.Addr)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// serverOptions configures the HTTP API.
type serverOptions struct {
	fetcher  *fetch.Fetcher
	analyzer *a11y.Analyzer
	model    *llm.Settings
	modelOpt []llm.Option
	maxBody  int64
	maxChars int
	logger   *slog.Logger
}

type server struct {
	serverOptions
}

// newServer returns the API handler.
func newServer(opts serverOptions) http.Handler {
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.maxBody <= 0 {
		opts.maxBody = defaultMaxRequestBody
	}
	s := &server{serverOptions: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", limitBody(s.handleAnalyze, opts.maxBody))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(securityHeaders(mux))
}

// analyzeRequest is the POST /analyze body. Exactly one of URL and
// Markup must be set.
type analyzeRequest struct {
	URL    string `json:"url"`
	Markup string `json:"markup"`
	AI     bool   `json:"ai"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	hasURL := strings.TrimSpace(req.URL) != ""
	switch {
	case hasURL && req.Markup != "":
		writeError(w, http.StatusBadRequest, "provide either url or markup, not both")
		return
	case !hasURL && req.Markup == "":
		writeError(w, http.StatusBadRequest, "url or markup is required")
		return
	case req.AI && s.model == nil:
		writeError(w, http.StatusBadRequest, "AI analysis is not configured on this server")
		return
	}

	markup, source := req.Markup, "inline"
	if hasURL {
		page, err := s.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, fetch.ErrInvalidURL) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		markup, source = page.Markup, page.URL
	}

	if !req.AI {
		writeJSON(w, http.StatusOK, s.analyzer.Analyze(markup, source))
		return
	}

	opts := append([]llm.Option{llm.WithMaxChars(s.maxChars), llm.WithLogger(s.logger)}, s.modelOpt...)
	result, err := llm.NewClient(*s.model, opts...).Audit(r.Context(), markup, source)
	if err != nil {
		s.logger.Warn("model audit failed", "source", source, "error", err)
		writeError(w, http.StatusBadGateway, "model audit failed: "+err.Error())
		return
	}
	w.Header().Set("X-Model-Score", strconv.Itoa(result.ModelScore))
	writeJSON(w, http.StatusOK, result.Report)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	AI      bool   `json:"ai"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: getVersion(),
		AI:      s.model != nil,
	})
}

// limitBody wraps an HTTP handler to limit request body size.
func limitBody(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// securityHeaders adds headers for a JSON-only API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
