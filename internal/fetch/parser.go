package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
)

// Document holds metadata extracted from markup.
type Document struct {
	// Title is the trimmed text of the first <title> element.
	Title string

	// Lang is the canonical BCP 47 form of the <html lang> attribute.
	// Empty when missing or unparsable.
	Lang string

	// RawLang is the lang attribute as written.
	RawLang string

	// Links are resolved same-site links in document order, without duplicates.
	Links []string
}

// ParseDocument extracts metadata from markup. baseURL resolves relative
// links and decides which links are same-site.
//
// The accessibility rules scan raw text and never see this tree. Parsing
// here only gathers metadata, so the tolerant x/net/html parser is fine.
func ParseDocument(baseURL, markup string) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	doc := &Document{}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				doc.RawLang = getAttr(n, "lang")
				doc.Lang = normalizeLang(doc.RawLang)
			case "title":
				if doc.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				link := resolveURL(base, getAttr(n, "href"))
				if link != "" && isSameSite(base, link) {
					key := normalizeURL(link)
					if !seen[key] {
						seen[key] = true
						doc.Links = append(doc.Links, link)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// normalizeLang canonicalizes a language tag such as "EN-us" to "en-US".
func normalizeLang(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	return tag.String()
}

// resolveURL resolves href against base. Non-navigational links yield "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// isSameSite reports whether link has the same host as base.
func isSameSite(base *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, base.Host)
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
