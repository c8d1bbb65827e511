package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/defconcepts/sipcoverage/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.CoverageReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.CoverageReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if len(p.StepNames()) != 0 {
		t.Errorf("expected no steps, got %v", p.StepNames())
	}
	if p.logger == nil {
		t.Error("expected default logger")
	}
}

// TestPipelineExecute tests step execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order and records them", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.CoverageReport) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New()
		p.AddSteps(record("ingest"), record("probe"), record("gate"))
		report := model.NewCoverageReport("qgis", "")

		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if strings.Join(order, ",") != "ingest,probe,gate" {
			t.Errorf("unexpected order %v", order)
		}
		if strings.Join(report.PerformedSteps, ",") != "ingest,probe,gate" {
			t.Errorf("unexpected performed steps %v", report.PerformedSteps)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &mockStep{name: "probe", doFunc: func(context.Context, *model.CoverageReport) error { return boom }}
		after := &mockStep{name: "gate"}

		p := New()
		p.AddSteps(&mockStep{name: "ingest"}, failing, after)
		report := model.NewCoverageReport("qgis", "")

		err := p.Execute(context.Background(), report)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("later steps should not run")
		}
		if report.ErrorMessage != "boom" {
			t.Errorf("error not recorded: %q", report.ErrorMessage)
		}
		if len(report.PerformedSteps) != 1 {
			t.Errorf("only ingest should be recorded, got %v", report.PerformedSteps)
		}
	})

	t.Run("respects cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "ingest"}
		p := New()
		p.AddStep(step)
		report := model.NewCoverageReport("qgis", "")

		if err := p.Execute(ctx, report); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not run after cancellation")
		}
	})
}

// TestPipelineStepNames tests step name listing.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "ingest"})
	p.AddStep(&mockStep{name: "summary"})

	names := p.StepNames()
	if len(names) != 2 || names[0] != "ingest" || names[1] != "summary" {
		t.Errorf("unexpected names %v", names)
	}
}

// TestPipelineWithLogger tests that the custom logger is used.
func TestPipelineWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := New(WithLogger(logger))
	p.AddStep(&mockStep{name: "ingest"})

	if err := p.Execute(context.Background(), model.NewCoverageReport("qgis", "")); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "step=ingest") {
		t.Errorf("expected step in log output, got %q", buf.String())
	}
}
