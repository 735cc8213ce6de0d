package model

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Page represents a retrieved web page ready for analysis.
//
// Markup holds the decoded document text. It is excluded from JSON because
// reports and history rows only need the digest to detect changes.
type Page struct {
	// URL is the final URL of the page after redirects.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains the HTTP response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Title is the text of the <title> element.
	Title string `json:"title,omitempty"`

	// Lang is the normalized lang attribute of the <html> element.
	// Empty when missing or unparsable.
	Lang string `json:"lang,omitempty"`

	// Links holds same-site links discovered in the page.
	Links []string `json:"links,omitempty"`

	// Markup is the decoded document text.
	Markup string `json:"-"`

	// Size is the number of body bytes read.
	Size int `json:"size"`

	// Digest is the SHA3-256 digest of Markup in hex.
	Digest string `json:"digest"`

	// FetchedAt is when the page was retrieved.
	FetchedAt time.Time `json:"fetched_at"`
}

// ComputeDigest calculates and sets the SHA3-256 digest of the markup.
func (p *Page) ComputeDigest() {
	p.Digest = MarkupDigest(p.Markup)
}

// MarkupDigest returns the hex SHA3-256 digest of markup, or "" for empty input.
func MarkupDigest(markup string) string {
	if markup == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(markup))
	return hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the specified header.
// Header names must be in canonical form.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the content type indicates an HTML document.
// An empty content type is treated as HTML.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}
