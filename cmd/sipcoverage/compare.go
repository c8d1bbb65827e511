package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/defconcepts/sipcoverage/internal/config"
	"github.com/defconcepts/sipcoverage/internal/database"
	"github.com/defconcepts/sipcoverage/internal/model"
	"github.com/defconcepts/sipcoverage/internal/report"
)

// errRegression is returned by compare --fail-on-regression.
var errRegression = errors.New("coverage regressed")

// compareOptions holds the parsed compare flags.
type compareOptions struct {
	withRunID        int64
	since            string
	jsonOutput       bool
	markdownOutput   bool
	failOnRegression bool
}

// NewCompareCmd creates the compare command.
// This command compares check results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [project]",
		Short: "Compare coverage runs from the history",
		Long: `Compare displays differences between the latest and a previous check run.

This command retrieves runs from the history database and shows:
- Classes and members that lost their bindings
- Classes and members that gained bindings
- Changes in missing counts and documentation coverage
- Whether the Doxygen input changed between the runs

The comparison requires at least two runs in the database for the project
(default: qgis). Use 'sipcoverage check' to record runs.

Examples:
  # Compare latest two runs
  sipcoverage compare

  # List run history for a project
  sipcoverage compare --list qgis

  # Compare with a specific run by ID
  sipcoverage compare --with-run-id 5

  # Compare with the first run since a date
  sipcoverage compare --since "2026-01-01"

  # Fail when anything regressed
  sipcoverage compare --fail-on-regression

  # List all projects in the database
  sipcoverage compare --list-projects`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the project")
	cmd.Flags().BoolP("list-projects", "L", false,
		"List all projects in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run at or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().Bool("fail-on-regression", false,
		"Exit with an error when a class or member lost its binding or documentation coverage dropped")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listProjects, err := flags.GetBool("list-projects")
	if err != nil {
		return err
	}
	listHistory, err := flags.GetBool("list")
	if err != nil {
		return err
	}

	var opts compareOptions
	if opts.withRunID, err = flags.GetInt64("with-run-id"); err != nil {
		return err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return err
	}
	if opts.markdownOutput, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if opts.failOnRegression, err = flags.GetBool("fail-on-regression"); err != nil {
		return err
	}
	if opts.jsonOutput && opts.markdownOutput {
		return config.ErrConflictingReportFormats
	}
	if opts.withRunID != 0 && opts.since != "" {
		return errors.New("--with-run-id and --since cannot be used together")
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	project := config.DefaultProject
	if len(args) > 0 {
		project = args[0]
	}

	// an existing database is required; comparing never creates one
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case listProjects:
		return listStoredProjects(ctx, db, out)
	case listHistory:
		return listRunHistory(ctx, db, project, out)
	default:
		return runComparison(ctx, db, project, opts, out)
	}
}

// listStoredProjects lists all projects that have runs in the database.
func listStoredProjects(ctx context.Context, db *database.CoverageDB, out io.Writer) error {
	projects, err := db.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found in the database.")
		fmt.Fprintln(out, "\nUse 'sipcoverage check' to record a run.")
		return nil
	}

	fmt.Fprintf(out, "Projects (%d):\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(out, "  • %s\n", p)
	}
	fmt.Fprintln(out, "\nUse 'sipcoverage compare --list <project>' to see the run history of a project.")

	return nil
}

// listRunHistory lists all runs of a project.
func listRunHistory(ctx context.Context, db *database.CoverageDB, project string, out io.Writer) error {
	runs, err := db.GetRunHistoryWithMetadata(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found for %s\n", project)
		fmt.Fprintln(out, "\nUse 'sipcoverage check' to record a run.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", project, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-12s  %s\n", "ID", "Date", "Gate", "Fingerprint", "Summary")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))

	for _, meta := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-6s  %-12s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatGate(meta),
			shortFingerprint(meta.Fingerprint),
			formatRunSummary(meta),
		)
	}

	fmt.Fprintln(out, "\nUse 'sipcoverage compare <project>' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'sipcoverage compare --with-run-id <id> <project>' to compare with a specific run.")

	return nil
}

func formatGate(meta database.RunMetadata) string {
	switch {
	case !meta.HasBindings:
		return "-"
	case meta.Passed:
		return "pass"
	default:
		return "FAIL"
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	if fp == "" {
		return "-"
	}
	return fp
}

// formatRunSummary formats the run counts into a human-readable string.
func formatRunSummary(meta database.RunMetadata) string {
	docs := fmt.Sprintf("docs %.2f%%", meta.DocumentationCoverage)
	if !meta.HasBindings {
		return docs
	}
	return fmt.Sprintf("missing C:%d M:%d, %s", meta.MissingClasses, meta.MissingMembers, docs)
}

// runComparison performs the actual comparison between runs.
func runComparison(ctx context.Context, db *database.CoverageDB, project string, opts compareOptions, out io.Writer) error {
	runs, err := db.GetRunHistory(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", project)
	}

	if len(runs) < 2 && opts.withRunID == 0 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	// runs are newest first
	current := runs[0]
	previous, err := selectPrevious(ctx, db, project, runs, opts)
	if err != nil {
		return err
	}
	if previous.RunID == current.RunID {
		return errors.New("cannot compare a run with itself")
	}

	comparison := model.Compare(previous, current)

	if _, err := newComparisonWriter(opts, out).WriteComparison(comparison); err != nil {
		return err
	}

	if opts.failOnRegression && comparison.HasRegressions() {
		return errRegression
	}
	return nil
}

// selectPrevious returns the run to compare the latest one against.
func selectPrevious(ctx context.Context, db *database.CoverageDB, project string, runs []*model.CoverageReport, opts compareOptions) (*model.CoverageReport, error) {
	switch {
	case opts.withRunID > 0:
		previous, err := db.GetRunByID(ctx, opts.withRunID)
		if err != nil {
			return nil, fmt.Errorf("failed to get run with ID %d: %w", opts.withRunID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("run with ID %d not found", opts.withRunID)
		}
		if previous.Project != project {
			return nil, fmt.Errorf("run ID %d belongs to %s, not %s", opts.withRunID, previous.Project, project)
		}
		return previous, nil

	case opts.since != "":
		sinceDate, err := time.Parse("2006-01-02", opts.since)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		since, err := db.GetRunsSince(ctx, project, sinceDate)
		if err != nil {
			return nil, fmt.Errorf("failed to get runs: %w", err)
		}
		if len(since) == 0 {
			return nil, fmt.Errorf("no runs found since %s", opts.since)
		}
		if len(since) == 1 {
			return nil, fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", opts.since)
		}
		return since[0], nil

	default:
		return runs[1], nil
	}
}

// newComparisonWriter returns the writer for the requested format.
func newComparisonWriter(opts compareOptions, out io.Writer) report.Writer {
	switch {
	case opts.jsonOutput:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdownOutput:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out)
	}
}
