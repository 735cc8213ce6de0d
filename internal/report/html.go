package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/nao1215/a11yscan/internal/model"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #767676; padding: 0.25rem 0.5rem; text-align: left; }
code { background: #f3f3f3; padding: 0 0.2rem; }
</style>
</head>
<body>
<main>
{{.Body}}
</main>
</body>
</html>
`))

// HTMLWriter outputs a standalone HTML page. The Markdown report is
// rendered with goldmark and the result is sanitized with bluemonday,
// since issue elements and model text can contain arbitrary markup.
type HTMLWriter struct {
	baseWriter

	renderer goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("details", "summary")

	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		renderer: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML from the Markdown (details blocks) is kept and then
			// filtered by the sanitizer.
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: policy,
	}
}

// Write outputs report as an HTML page.
func (w *HTMLWriter) Write(report *model.Report) (int, error) {
	var src bytes.Buffer
	if _, err := NewMarkdownWriter(&src).Write(report); err != nil {
		return 0, err
	}
	return w.render("Accessibility Report: "+report.Source(), src.Bytes())
}

// WriteSummary outputs one HTML page with the batch summary followed by
// every full report.
func (w *HTMLWriter) WriteSummary(reports []*model.Report) (int, error) {
	var src bytes.Buffer
	md := NewMarkdownWriter(&src)
	if _, err := md.WriteSummary(reports); err != nil {
		return 0, err
	}
	for _, r := range reports {
		src.WriteString("\n\n")
		if _, err := md.Write(r); err != nil {
			return 0, err
		}
	}
	return w.render("Accessibility Audit Summary", src.Bytes())
}

func (w *HTMLWriter) render(title string, src []byte) (int, error) {
	var body bytes.Buffer
	if err := w.renderer.Convert(src, &body); err != nil {
		return 0, fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(w.policy.SanitizeBytes(body.Bytes())), //nolint:gosec // sanitized above
	})
	if err != nil {
		return 0, fmt.Errorf("failed to render page: %w", err)
	}
	return w.output.Write(page.Bytes())
}
