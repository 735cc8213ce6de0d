// Package fetch retrieves web pages for accessibility analysis.
//
// # Purpose
//
// The analyzer only works on markup text. This package is the collaborator
// that turns a URL into that text: it performs the HTTP request, enforces
// size limits, decodes the character set, and extracts page metadata such
// as the title, the document language and same-site links.
//
// # Failures
//
// Every failure to obtain a page is reported as a *RetrievalError, which
// matches ErrRetrieval with errors.Is. Callers must not run the analyzer
// when Fetch returns an error.
//
// # Components
//
//   - NewHTTPClient builds an *http.Client with a cookie jar, a redirect
//     limit, optional SOCKS5 proxy and per-site cookie/header injection.
//   - Fetcher retrieves a single page.
//   - Spider crawls same-site links breadth first for multi-page audits.
//   - ParseDocument extracts metadata from markup.
package fetch
