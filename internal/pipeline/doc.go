// Package pipeline runs an audit as a sequence of steps.
//
// A typical audit fetches a page (or crawls a site, or reads local markup),
// analyzes it with the rule engine or the Gemini model, and stores the
// result in the history database. Each stage is a Step that receives the
// shared Audit and fills in its part.
//
// BatchProcessor audits many sources concurrently with errgroup, keeping
// the results in input order.
package pipeline
