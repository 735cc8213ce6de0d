package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/a11yscan/internal/model"
)

// JSONWriter outputs reports as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs report as a JSON object.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	return w.writeJSON(report)
}

// WriteSummary outputs reports as a JSON array.
func (w *JSONWriter) WriteSummary(reports []*model.Report) (int, error) {
	if reports == nil {
		reports = []*model.Report{}
	}
	return w.writeJSON(reports)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a report with the tool version and the engine that
// produced it.
type JSONReport struct {
	Version string        `json:"version"`
	Engine  string        `json:"engine"`
	Report  *model.Report `json:"report"`
}

// JSONSummary wraps the reports of a batch audit.
type JSONSummary struct {
	Version      string          `json:"version"`
	Engine       string          `json:"engine"`
	Reports      []*model.Report `json:"reports"`
	Total        int             `json:"total"`
	Accessible   int             `json:"accessible"`
	AverageScore float64         `json:"average_score"`
}

// FullJSONWriter outputs reports inside a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	version string
	engine  string
}

// NewFullJSONWriter creates a FullJSONWriter. engine names the analysis
// path, "rules" or "ai".
func NewFullJSONWriter(output io.Writer, version, engine string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
		engine:     engine,
	}
}

// Write outputs report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.Report) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Engine: w.engine, Report: report})
}

// WriteSummary outputs reports wrapped with metadata and totals.
func (w *FullJSONWriter) WriteSummary(reports []*model.Report) (int, error) {
	summary := &JSONSummary{
		Version: w.version,
		Engine:  w.engine,
		Reports: reports,
		Total:   len(reports),
	}
	if summary.Reports == nil {
		summary.Reports = []*model.Report{}
	}

	sum := 0
	for _, r := range reports {
		sum += r.Score()
		if r.IsAccessible() {
			summary.Accessible++
		}
	}
	if len(reports) > 0 {
		summary.AverageScore = float64(sum) / float64(len(reports))
	}
	return w.writeJSON(summary)
}
