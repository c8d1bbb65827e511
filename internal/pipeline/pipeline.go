package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/defconcepts/sipcoverage/internal/model"
)

// Step is one stage of a coverage check.
type Step interface {
	// Do fills its part of the report. Problems limited to part of the
	// input, such as one malformed XML file, belong in the report; an
	// error stops the check.
	Do(ctx context.Context, report *model.CoverageReport) error

	// Name identifies the step in logs and in report.PerformedSteps.
	Name() string
}

// Pipeline runs steps in the order they were added.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
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

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against report and stops at the first error,
// which is also recorded in the report. ctx is checked between steps.
func (p *Pipeline) Execute(ctx context.Context, report *model.CoverageReport) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("check cancelled", "before", step.Name(), "reason", err)
			report.SetError(err)
			return err
		}

		if err := p.run(ctx, step, report); err != nil {
			report.SetError(err)
			return err
		}
		report.AddStep(step.Name())
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, step Step, report *model.CoverageReport) error {
	logger := p.logger.With("step", step.Name(), "project", report.Project)
	logger.Info("executing step")

	start := time.Now()
	if err := step.Do(ctx, report); err != nil {
		logger.Error("step failed", "error", err)
		return err
	}

	logger.Debug("step completed", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
