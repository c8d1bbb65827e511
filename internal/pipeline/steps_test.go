package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/defconcepts/sipcoverage/internal/bindings"
	"github.com/defconcepts/sipcoverage/internal/coverage"
	"github.com/defconcepts/sipcoverage/internal/doxygen"
	"github.com/defconcepts/sipcoverage/internal/gate"
	applog "github.com/defconcepts/sipcoverage/internal/log"
	"github.com/defconcepts/sipcoverage/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// TestIngestStepDo tests the ingest step on a directory.
func TestIngestStepDo(t *testing.T) {
	t.Parallel()

	c := coverage.NewClassifier(coverage.DefaultRules())

	t.Run("fills the documentation summary", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeXML(t, dir, "classFoo.xml", classXML("Foo"))
		writeXML(t, dir, "classBar.xml", classXML("Bar"))
		writeXML(t, dir, "dir_abc.xml", classXML("Ignored"))
		writeXML(t, dir, "broken.xml", malformedXML)

		step := NewIngestStep(dir, c,
			WithIngestFilter(doxygen.NewFilter("dir_*.xml")),
			WithIngestConcurrency(2),
			WithIngestLogger(quietLogger()),
		)
		report := model.NewCoverageReport("qgis", dir)

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if report.Files != 3 {
			t.Errorf("expected 3 files, got %d", report.Files)
		}
		if report.Documentation.Classes != 3 {
			t.Errorf("expected 3 classes, got %d", report.Documentation.Classes)
		}
		if len(report.ParseErrors) != 1 {
			t.Errorf("expected 1 parse error, got %d", len(report.ParseErrors))
		}
		if len(report.Fingerprint) != 64 {
			t.Errorf("expected a hex SHA3-256 fingerprint, got %q", report.Fingerprint)
		}
		if report.Documentation.Undocumented[0].Class != "Bar" {
			t.Errorf("undocumented classes should be sorted, got %s first", report.Documentation.Undocumented[0].Class)
		}
	})

	t.Run("empty directory fails", func(t *testing.T) {
		t.Parallel()

		step := NewIngestStep(t.TempDir(), c, WithIngestLogger(quietLogger()))
		err := step.Do(context.Background(), model.NewCoverageReport("qgis", ""))
		if !errors.Is(err, ErrNoInputFiles) {
			t.Errorf("expected ErrNoInputFiles, got %v", err)
		}
	})

	t.Run("missing directory fails", func(t *testing.T) {
		t.Parallel()

		step := NewIngestStep(filepath.Join(t.TempDir(), "nope"), c)
		if err := step.Do(context.Background(), model.NewCoverageReport("qgis", "")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("fingerprint can be disabled", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeXML(t, dir, "classFoo.xml", classXML("Foo"))

		step := NewIngestStep(dir, c, WithFingerprint(false), WithIngestLogger(quietLogger()))
		report := model.NewCoverageReport("qgis", dir)
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if report.Fingerprint != "" {
			t.Errorf("expected no fingerprint, got %q", report.Fingerprint)
		}
	})
}

// TestCheckPipeline runs ingest, probe, gate and summary together.
func TestCheckPipeline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeXML(t, dir, "classFoo.xml", classXML("Foo"))
	writeXML(t, dir, "classGone.xml", classXML("Gone"))

	table := bindings.NewTable(bindings.Module{
		Name:    "qgis.core",
		Classes: map[string][]string{"Foo": {"documented"}},
	})

	importantPath := filepath.Join(t.TempDir(), "important.log")
	logger := applog.NewLogger(&bytes.Buffer{}, false, false, importantPath)

	run := func(th gate.Thresholds) *model.CoverageReport {
		p := New(WithLogger(logger))
		p.AddSteps(
			NewIngestStep(dir, coverage.NewClassifier(coverage.DefaultRules()), WithIngestLogger(logger)),
			NewProbeStep(table, logger),
			NewGateStep(th),
			NewSummaryStep(logger),
		)
		report := model.NewCoverageReport("qgis", dir)
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		return report
	}

	t.Run("defaults pass", func(t *testing.T) {
		report := run(gate.DefaultThresholds())

		b := report.Bindings
		if strings.Join(b.MissingClasses, ",") != "Gone" {
			t.Errorf("MissingClasses = %v", b.MissingClasses)
		}
		if strings.Join(b.MissingMembers, ",") != "Foo.bare" {
			t.Errorf("MissingMembers = %v", b.MissingMembers)
		}
		if !report.Passed() {
			t.Errorf("expected pass, got %v", report.Gate.Failures)
		}
	})

	t.Run("zero thresholds fail", func(t *testing.T) {
		report := run(gate.Thresholds{})

		if report.Passed() || len(report.Gate.Failures) != 2 {
			t.Errorf("expected two failures, got %+v", report.Gate)
		}
		if !errors.Is(report.Gate.Err(), gate.ErrTooManyMissingMembers) {
			t.Error("expected member breach")
		}
	})

	t.Run("summary reaches the important log", func(t *testing.T) {
		run(gate.DefaultThresholds())

		data, err := os.ReadFile(importantPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read important log: %v", err)
		}
		if !strings.Contains(string(data), "2 total bindable classes\n") {
			t.Errorf("unexpected important log:\n%s", data)
		}
	})
}

// TestGateStepWithoutProbe tests the ordering requirement.
func TestGateStepWithoutProbe(t *testing.T) {
	t.Parallel()

	err := NewGateStep(gate.DefaultThresholds()).Do(context.Background(), model.NewCoverageReport("qgis", ""))
	if !errors.Is(err, ErrNoBindings) {
		t.Errorf("expected ErrNoBindings, got %v", err)
	}
}

// TestSummaryStepDocumentationOnly tests the summary without bindings.
func TestSummaryStepDocumentationOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "important.log")
	logger := applog.NewLogger(&bytes.Buffer{}, false, false, path)

	report := model.NewCoverageReport("qgis", "")
	report.SetTally(coverage.NewTally())

	if err := NewSummaryStep(logger).Do(context.Background(), report); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Total documentation coverage 100.00%") {
		t.Errorf("unexpected important log:\n%s", data)
	}
}
