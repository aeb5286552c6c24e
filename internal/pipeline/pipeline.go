package pipeline

import (
	"context"
	"log/slog"
)

// Step is one transition of an audit run.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry their dependencies (loader, evaluator)
// 2. It provides a Name() method for logging and debugging
type Step interface {
	// Do performs the transition. A returned error aborts the run.
	// Failures that the run tolerates are recorded in run.Report instead.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order over a single Run.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:  make([]Step, 0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stops at the first error, moving
// the run to StateFailed.
//
// Cancellation is checked before each step. Steps that iterate over many
// pages check it themselves between pages.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			run.fail(err)
			return err
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"root", run.RootURL,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"root", run.RootURL,
				"state", run.State.String(),
				"error", err,
			)
			run.fail(err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"state", run.State.String(),
		)
		run.Steps = append(run.Steps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
