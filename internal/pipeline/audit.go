package pipeline

import "github.com/nao1215/a11yscan/internal/model"

// Engine names recorded with each audit.
const (
	EngineRules = "rules"
	EngineAI    = "ai"
)

// Audit is the working state of one audited source. Steps read and fill
// it in order.
type Audit struct {
	// Source is the URL, file path or "stdin" being audited.
	Source string

	// Pages holds the retrieved pages. A crawl yields several.
	Pages []*model.Page

	// Reports holds one report per page, in page order.
	Reports []*model.Report

	// ModelScores holds the score the model gave each page when the AI
	// engine ran. It is parallel to Reports.
	ModelScores []int

	// Engine is EngineRules or EngineAI once analysis ran.
	Engine string

	// AuditIDs are the history row IDs of saved reports.
	AuditIDs []int64

	// Steps lists the names of the steps that ran.
	Steps []string

	// Err is the error that stopped the audit, if any.
	Err error
}

// NewAudit creates an empty audit for source.
func NewAudit(source string) *Audit {
	return &Audit{Source: source}
}

// Page returns the first page, or nil before retrieval.
func (a *Audit) Page() *model.Page {
	if len(a.Pages) == 0 {
		return nil
	}
	return a.Pages[0]
}

// Report returns the report of the first page, or nil before analysis.
func (a *Audit) Report() *model.Report {
	if len(a.Reports) == 0 {
		return nil
	}
	return a.Reports[0]
}

// ModelScore returns the model score of the first page, or 0 when the AI
// engine did not run.
func (a *Audit) ModelScore() int {
	if len(a.ModelScores) == 0 {
		return 0
	}
	return a.ModelScores[0]
}

// Failed reports whether the audit stopped with an error.
func (a *Audit) Failed() bool {
	return a.Err != nil
}
