// Package llm audits markup with a generative language model.
//
// It is an alternate path to the rule engine in package a11y. The model's
// findings are converted into model.Issue values and scored with the same
// scorer, so reports from both paths can be compared and stored alike.
package llm
