package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/defconcepts/sipcoverage/internal/coverage"
	"github.com/defconcepts/sipcoverage/internal/gate"
)

// CoverageReport is the result of one coverage run.
// Steps of the pipeline fill it in order: ingest sets Documentation, probe
// sets Bindings, gate sets Gate.
type CoverageReport struct {
	// === Run Information ===

	// RunID uniquely identifies the run in the history database.
	RunID string `json:"run_id"`

	// Project is the name the run is stored under.
	Project string `json:"project"`

	// XMLDir is the Doxygen XML directory that was read.
	XMLDir string `json:"xml_dir"`

	// SymbolsFile is the binding symbol dump that was probed, if any.
	SymbolsFile string `json:"symbols_file,omitempty"`

	// Fingerprint is a SHA3-256 digest of the XML files, so two runs can
	// tell whether the documentation changed between them.
	Fingerprint string `json:"fingerprint,omitempty"`

	// DateGenerated is when the run started.
	DateGenerated time.Time `json:"date_generated"`

	// Files is the number of XML files read, including malformed ones.
	Files int `json:"files"`

	// === Results ===

	// Tally is the raw accumulator. Its content is exposed through
	// Documentation and ParseErrors.
	Tally *coverage.Tally `json:"-"`

	// Documentation summarizes documentation coverage.
	Documentation DocumentationSummary `json:"documentation"`

	// Bindings summarizes binding coverage. Nil when no probe ran.
	Bindings *BindingSummary `json:"bindings,omitempty"`

	// ParseErrors lists malformed input files.
	ParseErrors []coverage.ParseFailure `json:"parse_errors,omitempty"`

	// Gate is the threshold decision. Nil when the gate did not run.
	Gate *gate.Result `json:"gate,omitempty"`

	// === Run State ===

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that stopped the pipeline early.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// DocumentationSummary is the documentation half of a report.
type DocumentationSummary struct {
	// Classes counts public and protected classes.
	Classes int `json:"classes"`

	DocumentableMembers int `json:"documentable_members"`
	DocumentedMembers   int `json:"documented_members"`

	// Coverage is the documented percentage.
	Coverage float64 `json:"coverage"`

	// Undocumented lists the undocumented members per class.
	Undocumented []coverage.UndocumentedClass `json:"undocumented,omitempty"`
}

// BindingSummary is the binding half of a report.
type BindingSummary struct {
	Classes        int     `json:"classes"`
	BoundClasses   int     `json:"bound_classes"`
	ClassCoverage  float64 `json:"class_coverage"`
	Members        int     `json:"members"`
	BoundMembers   int     `json:"bound_members"`
	MemberCoverage float64 `json:"member_coverage"`

	MissingClasses []string `json:"missing_classes"`
	MissingMembers []string `json:"missing_members"`

	// Anomalies lists members whose presence could not be checked.
	Anomalies []string `json:"anomalies,omitempty"`
}

// NewCoverageReport creates a new report for a project.
func NewCoverageReport(project, xmlDir string) *CoverageReport {
	return &CoverageReport{
		RunID:         uuid.New().String(),
		Project:       project,
		XMLDir:        xmlDir,
		DateGenerated: time.Now(),
		Tally:         coverage.NewTally(),
	}
}

// SetTally stores the ingest result and derives the documentation summary.
func (r *CoverageReport) SetTally(t *coverage.Tally) {
	r.Tally = t
	r.Files = t.Files
	r.Documentation = DocumentationSummary{
		Classes:             t.Classes,
		DocumentableMembers: t.DocumentableMembers,
		DocumentedMembers:   t.DocumentedMembers,
		Coverage:            t.DocumentationCoverage(),
		Undocumented:        t.Undocumented,
	}
	r.ParseErrors = t.ParseErrors
}

// SetProbe stores the binding probe result.
func (r *CoverageReport) SetProbe(p coverage.ProbeResult) {
	r.Bindings = &BindingSummary{
		Classes:        p.Classes,
		BoundClasses:   p.BoundClasses(),
		ClassCoverage:  p.ClassCoverage(),
		Members:        p.Members,
		BoundMembers:   p.BoundMembers(),
		MemberCoverage: p.MemberCoverage(),
		MissingClasses: p.MissingClasses,
		MissingMembers: p.MissingMembers,
		Anomalies:      p.Anomalies,
	}
}

// SetError records the error that stopped the run.
func (r *CoverageReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddStep records a completed pipeline step.
func (r *CoverageReport) AddStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}

// Passed reports whether the gate ran and passed. Reports without a gate
// pass when no error stopped the run.
func (r *CoverageReport) Passed() bool {
	if r.ErrorMessage != "" || r.Error != nil {
		return false
	}
	return r.Gate == nil || r.Gate.Passed
}
