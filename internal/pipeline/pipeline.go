package pipeline

import (
	"context"
	"errors"
	"log/slog"
)

// Step is one stage of an audit.
type Step interface {
	// Do executes the step. A returned error is recorded in the audit.
	// Wrap it with Halt when later steps cannot run without this one.
	Do(ctx context.Context, audit *Audit) error

	// Name returns the step's name for logging.
	Name() string
}

// haltError stops the pipeline even when it continues on error.
type haltError struct {
	err error
}

func (e *haltError) Error() string { return e.err.Error() }
func (e *haltError) Unwrap() error { return e.err }

// Halt marks err as fatal for the audit. Nil stays nil.
func Halt(err error) error {
	if err == nil {
		return nil
	}
	return &haltError{err: err}
}

// IsHalt reports whether err was marked with Halt.
func IsHalt(err error) bool {
	var h *haltError
	return errors.As(err, &h)
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps running later steps after a non-fatal failure.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps the pipeline running after a step fails,
// unless the failure was marked with Halt. A failed retrieval is always
// marked, so analysis never runs without a page.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order against audit.
//
// Cancellation is checked before each step. The error that stopped the
// pipeline is returned and stored in audit.Err. When the pipeline
// continues on error, the last failure is stored and nil is returned.
func (p *Pipeline) Execute(ctx context.Context, audit *Audit) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("audit cancelled",
				"step", step.Name(),
				"source", audit.Source,
				"reason", err,
			)
			audit.Err = err
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"source", audit.Source,
		)

		err := step.Do(ctx, audit)
		audit.Steps = append(audit.Steps, step.Name())
		if err == nil {
			continue
		}

		p.logger.Error("step failed",
			"step", step.Name(),
			"source", audit.Source,
			"error", err,
		)
		audit.Err = err
		if !p.continueOnError || IsHalt(err) {
			return err
		}
	}
	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
