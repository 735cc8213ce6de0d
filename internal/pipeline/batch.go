package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of sources audited at once.
const DefaultConcurrency = 4

// Factory builds the pipeline for one source. Per-site settings such as
// cookies or crawl patterns are resolved here.
type Factory func(source string) (*Pipeline, error)

// BatchProcessor audits many sources concurrently.
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the number of concurrent audits. Non-positive
// values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that builds a fresh pipeline
// per source with factory.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch audits sources and returns one Audit per source in input
// order. A failed source does not stop the others; its error is kept in
// Audit.Err. The returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []string) ([]*Audit, error) {
	audits := make([]*Audit, len(sources))
	err := bp.run(ctx, sources, func(audit *Audit, i int) {
		// Each goroutine writes its own index.
		audits[i] = audit
	})
	return audits, err
}

// ProcessBatchWithCallback audits sources and calls callback as each one
// finishes. callback runs on the worker goroutine and must be safe for
// concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, sources []string, callback func(audit *Audit, index int)) error {
	return bp.run(ctx, sources, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, sources []string, done func(*Audit, int)) error {
	bp.logger.Debug("starting batch",
		"total", len(sources),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			audit := NewAudit(source)
			if err := ctx.Err(); err != nil {
				audit.Err = err
				done(audit, i)
				return err
			}

			bp.logger.Info("auditing",
				"source", source,
				"index", i+1,
				"total", len(sources),
			)

			p, err := bp.factory(source)
			if err != nil {
				audit.Err = err
			} else if err := p.Execute(ctx, audit); err != nil {
				bp.logger.Warn("audit failed", "source", source, "error", err)
			}

			done(audit, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Debug("batch complete",
		"total", len(sources),
		"elapsed", time.Since(start),
	)
	return err
}
