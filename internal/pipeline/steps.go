package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/defconcepts/sipcoverage/internal/bindings"
	"github.com/defconcepts/sipcoverage/internal/coverage"
	"github.com/defconcepts/sipcoverage/internal/doxygen"
	"github.com/defconcepts/sipcoverage/internal/gate"
	applog "github.com/defconcepts/sipcoverage/internal/log"
	"github.com/defconcepts/sipcoverage/internal/model"
)

// IngestStep reads every Doxygen XML file of a directory and classifies
// its classes into the report's documentation summary.
type IngestStep struct {
	dir         string
	filter      *doxygen.Filter
	classifier  *coverage.Classifier
	concurrency int
	fingerprint bool
	logger      *slog.Logger
}

// IngestStepOption configures an IngestStep.
type IngestStepOption func(*IngestStep)

// WithIngestFilter skips files matching the filter.
func WithIngestFilter(filter *doxygen.Filter) IngestStepOption {
	return func(s *IngestStep) {
		s.filter = filter
	}
}

// WithIngestConcurrency sets the number of files parsed at once.
func WithIngestConcurrency(n int) IngestStepOption {
	return func(s *IngestStep) {
		s.concurrency = n
	}
}

// WithFingerprint enables the SHA3 fingerprint of the input files.
func WithFingerprint(enabled bool) IngestStepOption {
	return func(s *IngestStep) {
		s.fingerprint = enabled
	}
}

// WithIngestLogger sets a custom logger for the ingest step.
func WithIngestLogger(logger *slog.Logger) IngestStepOption {
	return func(s *IngestStep) {
		s.logger = logger
	}
}

// NewIngestStep creates a new ingest step for dir.
func NewIngestStep(dir string, classifier *coverage.Classifier, opts ...IngestStepOption) *IngestStep {
	s := &IngestStep{
		dir:         dir,
		classifier:  classifier,
		concurrency: DefaultConcurrency,
		fingerprint: true,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *IngestStep) Name() string {
	return "ingest"
}

// Do executes the ingest step.
func (s *IngestStep) Do(ctx context.Context, report *model.CoverageReport) error {
	files, err := doxygen.Files(s.dir, s.filter)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoInputFiles, s.dir)
	}

	if s.fingerprint {
		fp, err := doxygen.Fingerprint(files)
		if err != nil {
			return err
		}
		report.Fingerprint = fp
	}

	bp := NewBatchProcessor(s.classifier,
		WithConcurrency(s.concurrency),
		WithBatchLogger(s.logger),
	)
	results, err := bp.ProcessFiles(ctx, files)
	if err != nil {
		return err
	}

	tally, err := MergeResults(results)
	if err != nil {
		return err
	}
	report.SetTally(tally)

	for _, pf := range tally.ParseErrors {
		s.logger.Warn("parse error", "report", pf.Report())
	}

	return nil
}

// ProbeStep looks every bindable member up in a binding environment.
type ProbeStep struct {
	env    bindings.Environment
	logger *slog.Logger
}

// NewProbeStep creates a new probe step.
func NewProbeStep(env bindings.Environment, logger *slog.Logger) *ProbeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeStep{env: env, logger: logger}
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Do executes the probe step.
func (s *ProbeStep) Do(ctx context.Context, report *model.CoverageReport) error {
	res := coverage.Probe(s.env, report.Tally.Bindable)

	for _, a := range res.Anomalies {
		applog.Important(ctx, s.logger, "SIP coverage test: something strange happened in %s", a)
	}

	report.SetProbe(res)
	return nil
}

// GateStep evaluates the missing counts against the thresholds.
// A failed gate is recorded in the report, not returned as an error.
type GateStep struct {
	thresholds gate.Thresholds
}

// NewGateStep creates a new gate step.
func NewGateStep(thresholds gate.Thresholds) *GateStep {
	return &GateStep{thresholds: thresholds}
}

// Name returns the step name.
func (s *GateStep) Name() string {
	return "gate"
}

// Do executes the gate step.
func (s *GateStep) Do(_ context.Context, report *model.CoverageReport) error {
	if report.Bindings == nil {
		return ErrNoBindings
	}

	res := gate.Evaluate(len(report.Bindings.MissingClasses), len(report.Bindings.MissingMembers), s.thresholds)
	report.Gate = &res
	return nil
}

// SummaryStep logs the summary lines at the important level so they reach
// the important log file.
type SummaryStep struct {
	logger *slog.Logger
}

// NewSummaryStep creates a new summary step.
func NewSummaryStep(logger *slog.Logger) *SummaryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryStep{logger: logger}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do executes the summary step.
func (s *SummaryStep) Do(ctx context.Context, report *model.CoverageReport) error {
	lines := report.BindingSummaryLines()
	if lines == nil {
		lines = report.DocumentationSummaryLines()
	}
	for _, l := range lines {
		applog.Important(ctx, s.logger, "%s", l)
	}
	return nil
}
