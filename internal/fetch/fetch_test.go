package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNormalizeURL tests target URL normalization.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"adds https scheme", "example.com", "https://example.com", false},
		{"keeps http scheme", "http://example.com/a", "http://example.com/a", false},
		{"trims whitespace", "  https://example.com  ", "https://example.com", false},
		{"lowercases scheme", "HTTPS://example.com", "https://example.com", false},
		{"empty", "", "", true},
		{"unsupported scheme", "ftp://example.com", "", true},
		{"missing host", "https://", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("expected ErrInvalidURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("NormalizeURL(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestFetcherFetch tests single page retrieval.
func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("retrieves markup and metadata", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") != DefaultUserAgent {
				http.Error(w, "unexpected user agent", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html lang="EN-us"><head><title> Home </title></head>
<body><a href="/about">About</a><a href="https://other.example/">Other</a></body></html>`)
		}))
		defer server.Close()

		fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		f := NewFetcher(server.Client(), WithFetchClock(func() time.Time { return fixed }))
		page, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d", page.StatusCode)
		}
		if page.Title != "Home" {
			t.Errorf("Title = %q, expected Home", page.Title)
		}
		if page.Lang != "en-US" {
			t.Errorf("Lang = %q, expected en-US", page.Lang)
		}
		if len(page.Links) != 1 || page.Links[0] != server.URL+"/about" {
			t.Errorf("Links = %v", page.Links)
		}
		if !strings.Contains(page.Markup, "<title> Home </title>") {
			t.Error("expected raw markup to be kept")
		}
		if page.Digest == "" || page.Size == 0 {
			t.Error("expected digest and size to be set")
		}
		if !page.FetchedAt.Equal(fixed) {
			t.Errorf("FetchedAt = %v", page.FetchedAt)
		}
	})

	t.Run("non-2xx status is a retrieval error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrRetrieval) || !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("expected retrieval status error, got %v", err)
		}
		var re *RetrievalError
		if !errors.As(err, &re) || re.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404 in %v", err)
		}
	})

	t.Run("connection failure is a retrieval error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		target := server.URL
		server.Close()

		_, err := NewFetcher(server.Client()).Fetch(context.Background(), target)
		if !errors.Is(err, ErrRetrieval) {
			t.Fatalf("expected ErrRetrieval, got %v", err)
		}
	})

	t.Run("timeout is a retrieval error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		client, err := NewHTTPClient(ClientOptions{Timeout: 50 * time.Millisecond})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = NewFetcher(client).Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrRetrieval) {
			t.Fatalf("expected ErrRetrieval, got %v", err)
		}
	})

	t.Run("invalid url is a retrieval error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFetcher(nil).Fetch(context.Background(), "gopher://x")
		if !errors.Is(err, ErrRetrieval) || !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("expected invalid URL retrieval error, got %v", err)
		}
	})

	t.Run("body is limited", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, strings.Repeat("x", 1000))
		}))
		defer server.Close()

		page, err := NewFetcher(server.Client(), WithMaxBodySize(100)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Size != 100 || len(page.Markup) != 100 {
			t.Errorf("expected 100 bytes, got size=%d markup=%d", page.Size, len(page.Markup))
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>caf\xe9</p>"))
		}))
		defer server.Close()

		page, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(page.Markup, "café") {
			t.Errorf("expected decoded markup, got %q", page.Markup)
		}
	})
}

// TestNewHTTPClient tests client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid proxy address", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPClient(ClientOptions{ProxyAddress: "localhost"})
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("accepts socks proxy address", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(ClientOptions{ProxyAddress: "127.0.0.1:9050"})
		if err != nil || client == nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("injects cookie and headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Seen-Cookie", r.Header.Get("Cookie"))
			w.Header().Set("X-Seen-Token", r.Header.Get("X-Token"))
		}))
		defer server.Close()

		client, err := NewHTTPClient(ClientOptions{
			Cookie:  "session=abc",
			Headers: map[string]string{"X-Token": "t1"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		cookie, token := resp.Header.Get("X-Seen-Cookie"), resp.Header.Get("X-Seen-Token")
		if cookie != "session=abc" || token != "t1" {
			t.Errorf("cookie=%q token=%q", cookie, token)
		}
	})

	t.Run("keeps site credentials on the configured host", func(t *testing.T) {
		t.Parallel()

		seen := make(chan string, 2)
		record := func(w http.ResponseWriter, r *http.Request) {
			seen <- r.Host + " " + r.Header.Get("Cookie") + " / " + r.Header.Get("Authorization")
			_, _ = w.Write([]byte("ok"))
		}

		// Both servers listen on 127.0.0.1; addressing the target as
		// "localhost" makes it a different host name.
		target := httptest.NewServer(http.HandlerFunc(record))
		defer target.Close()
		foreign := strings.Replace(target.URL, "127.0.0.1", "localhost", 1) + "/landing"

		origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/away":
				http.Redirect(w, r, foreign, http.StatusFound)
			case "/here":
				http.Redirect(w, r, "/final", http.StatusFound)
			default:
				record(w, r)
			}
		}))
		defer origin.Close()

		client, err := NewHTTPClient(ClientOptions{
			Cookie:  "session=secret",
			Headers: map[string]string{"Authorization": "Bearer tok"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		testCases := []struct {
			name      string
			path      string
			wantCreds bool
		}{
			{"redirect to another host", "/away", false},
			{"redirect on the same host", "/here", true},
		}

		for _, tc := range testCases {
			resp, err := client.Get(origin.URL + tc.path)
			if err != nil {
				t.Fatalf("%s: request failed: %v", tc.name, err)
			}
			resp.Body.Close()

			got := <-seen
			hasCreds := strings.Contains(got, "session=secret") || strings.Contains(got, "Bearer tok")
			if hasCreds != tc.wantCreds {
				t.Errorf("%s: final request saw %q, want credentials=%v", tc.name, got, tc.wantCreds)
			}
		}
	})

	t.Run("limits redirects", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/loop", http.StatusFound)
		}))
		defer server.Close()

		client, err := NewHTTPClient(ClientOptions{MaxRedirects: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Errorf("expected last redirect response, got %d", resp.StatusCode)
		}
	})
}

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		address  string
		expected bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:1080", true},
		{"[::1]:9050", true},
		{"localhost", false},
		{":9050", false},
		{"localhost:0", false},
		{"localhost:65536", false},
		{"localhost:abc", false},
	}

	for _, tc := range testCases {
		if got := isValidProxyAddress(tc.address); got != tc.expected {
			t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
		}
	}
}

// TestParseDocument tests metadata extraction.
func TestParseDocument(t *testing.T) {
	t.Parallel()

	markup := `<html lang="!!"><head><title>T</title><title>Second</title></head><body>
<a href="/a">A</a>
<a href="/a#top">A again</a>
<a href="b.html">B</a>
<a href="javascript:void(0)">JS</a>
<a href="mailto:x@example.com">Mail</a>
<a href="#">Top</a>
<a href="https://elsewhere.example/">Elsewhere</a>
</body></html>`

	doc, err := ParseDocument("https://site.example/dir/page", markup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "T" {
		t.Errorf("Title = %q, expected T", doc.Title)
	}
	if doc.Lang != "" || doc.RawLang != "!!" {
		t.Errorf("Lang = %q RawLang = %q", doc.Lang, doc.RawLang)
	}
	expected := []string{"https://site.example/a", "https://site.example/dir/b.html"}
	if strings.Join(doc.Links, ",") != strings.Join(expected, ",") {
		t.Errorf("Links = %v, expected %v", doc.Links, expected)
	}
}

// TestSpiderCrawl tests same-site crawling.
func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	newSite := func() *httptest.Server {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<a href="/one">1</a><a href="/two">2</a><a href="/admin/panel">admin</a><a href="/missing">m</a>`)
		})
		mux.HandleFunc("/one", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<a href="/deep">deep</a>`)
		})
		mux.HandleFunc("/two", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<a href="/">home</a>`)
		})
		mux.HandleFunc("/deep", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<p>deep</p>`)
		})
		mux.HandleFunc("/admin/panel", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<p>admin</p>`)
		})
		return httptest.NewServer(mux)
	}

	t.Run("depth zero fetches only the start page", func(t *testing.T) {
		t.Parallel()

		server := newSite()
		defer server.Close()

		spider := NewSpider(NewFetcher(server.Client()), WithDelay(0))
		pages, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(pages))
		}
	})

	t.Run("depth one follows links and skips failures", func(t *testing.T) {
		t.Parallel()

		server := newSite()
		defer server.Close()

		spider := NewSpider(NewFetcher(server.Client()),
			WithDelay(0), WithMaxDepth(1), WithIgnorePatterns([]string{"/admin/*"}))
		pages, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 3 {
			t.Fatalf("expected 3 pages (/, /one, /two), got %d", len(pages))
		}
		for _, p := range pages {
			if strings.Contains(p.URL, "admin") || strings.Contains(p.URL, "deep") {
				t.Errorf("unexpected page %s", p.URL)
			}
		}
	})

	t.Run("depth two reaches deeper pages", func(t *testing.T) {
		t.Parallel()

		server := newSite()
		defer server.Close()

		spider := NewSpider(NewFetcher(server.Client()), WithDelay(0), WithMaxDepth(2))
		pages, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 5 {
			t.Errorf("expected 5 pages, got %d", len(pages))
		}
	})

	t.Run("max pages limits the crawl", func(t *testing.T) {
		t.Parallel()

		server := newSite()
		defer server.Close()

		spider := NewSpider(NewFetcher(server.Client()), WithDelay(0), WithMaxDepth(2), WithMaxPages(2))
		pages, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 2 {
			t.Errorf("expected 2 pages, got %d", len(pages))
		}
	})

	t.Run("start page failure is returned", func(t *testing.T) {
		t.Parallel()

		server := newSite()
		defer server.Close()

		_, err := NewSpider(NewFetcher(server.Client())).Crawl(context.Background(), server.URL+"/missing")
		if !errors.Is(err, ErrRetrieval) {
			t.Errorf("expected ErrRetrieval, got %v", err)
		}
	})
}

// TestMatchPattern tests glob matching of URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		pattern  string
		path     string
		expected bool
	}{
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/admin", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/file.pdf", true},
		{"*.pdf", "/docs/file.html", false},
		{"/api/v?", "/api/v1", true},
		{"/logout*", "/logout-now", true},
		{"[", "/x", false},
	}

	for _, tc := range testCases {
		if got := matchPattern(tc.pattern, tc.path); got != tc.expected {
			t.Errorf("matchPattern(%q, %q) = %v, expected %v", tc.pattern, tc.path, got, tc.expected)
		}
	}
}

// TestShouldCrawl tests ignore and follow pattern precedence.
func TestShouldCrawl(t *testing.T) {
	t.Parallel()

	s := NewSpider(nil,
		WithIgnorePatterns([]string{"/docs/private/*"}),
		WithFollowPatterns([]string{"/docs/*"}),
	)

	testCases := []struct {
		url      string
		expected bool
	}{
		{"https://x.example/docs/intro", true},
		{"https://x.example/docs/private/keys", false},
		{"https://x.example/blog/post", false},
	}

	for _, tc := range testCases {
		if got := s.shouldCrawl(tc.url); got != tc.expected {
			t.Errorf("shouldCrawl(%q) = %v, expected %v", tc.url, got, tc.expected)
		}
	}
}
