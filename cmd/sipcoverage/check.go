package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/defconcepts/sipcoverage/internal/bindings"
	"github.com/defconcepts/sipcoverage/internal/config"
	"github.com/defconcepts/sipcoverage/internal/coverage"
	"github.com/defconcepts/sipcoverage/internal/database"
	"github.com/defconcepts/sipcoverage/internal/doxygen"
	"github.com/defconcepts/sipcoverage/internal/gate"
	applog "github.com/defconcepts/sipcoverage/internal/log"
	"github.com/defconcepts/sipcoverage/internal/model"
	"github.com/defconcepts/sipcoverage/internal/pipeline"
	"github.com/defconcepts/sipcoverage/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Measure documentation and binding coverage",
		Long: `Check reads every Doxygen XML file of the project, counts documented
public members and, when a symbol dump of the Python modules is given,
looks every bindable class and member up in it.

The command fails when more classes or members are missing bindings than
allowed (85 classes and 267 members by default). The MISSING_SIP_CLASSES
and MISSING_SIP_MEMBERS environment variables add to these limits.

Summary lines are also appended to the important log
(<tmp>/ctest-important.log by default) for CI result pages.

Examples:
  # Check with the XML dir derived from QGIS_PREFIX_PATH
  QGIS_PREFIX_PATH=/build/output sipcoverage check --symbols symbols.yaml

  # Documentation coverage only, listing undocumented members
  sipcoverage check -x build/doc/api/xml --undocumented

  # Write a Markdown report for the merge request
  sipcoverage check -x build/doc/api/xml -s symbols.yaml -m -o coverage.md

  # Use another project section of the configuration file
  sipcoverage check -p myproject`,
		Args: cobra.NoArgs,
		RunE: runCheckCmd,
	}

	// Input flags
	cmd.Flags().StringP("xml-dir", "x", "",
		"Doxygen XML directory (default: $QGIS_PREFIX_PATH/../doc/api/xml)")
	cmd.Flags().StringP("symbols", "s", "",
		"Symbol dump of the Python binding modules (YAML or JSON)")
	cmd.Flags().StringP("project", "p", config.DefaultProject,
		"Project name, selects the configuration section and history")
	cmd.Flags().StringSliceP("ignore", "i", nil,
		"gitignore-style pattern of XML file names to skip (repeatable)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of XML files parsed in parallel")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sipcoverage in current or home directory)")
	cmd.Flags().String("env-file", "",
		"dotenv file with QGIS_PREFIX_PATH and threshold overrides; the process environment wins")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"Also print the text report to stdout when --output is set")
	cmd.Flags().BoolP("undocumented", "u", false,
		"List undocumented members per class")
	cmd.Flags().String("important-log", config.DefaultImportantLogPath(),
		"File receiving the summary lines (empty disables it)")

	// History flags
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().Bool("no-db", false,
		"Do not save the run to the history database")
	cmd.Flags().Int("keep", 0,
		"Number of runs kept per project in the history (0 keeps all)")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, _ []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	getenv, err := config.EnvLookup(envFile)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, getenv)
	if err != nil {
		return err
	}

	logger := applog.NewLogger(os.Stderr, cfg.Verbose, false, cfg.ImportantLogPath)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCheck(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file,
// cobra flags and the environment, in that order.
func buildConfig(cmd *cobra.Command, getenv func(string) string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.Project, err = flags.GetString("project")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// an explicit --project must exist in the file
	if err := cfg.Load(flags.Changed("project")); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if flags.Changed("xml-dir") {
		if cfg.XMLDir, err = flags.GetString("xml-dir"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("symbols") {
		if cfg.SymbolsFile, err = flags.GetString("symbols"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("ignore") {
		patterns, err := flags.GetStringSlice("ignore")
		if err != nil {
			return nil, err
		}
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, patterns...)
	}

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("important-log") {
		if cfg.ImportantLogPath, err = flags.GetString("important-log"); err != nil {
			return nil, err
		}
	}

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.HistoryLimit, err = flags.GetInt("keep"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}

	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	if cfg.ShowUndocumented, err = flags.GetBool("undocumented"); err != nil {
		return nil, err
	}

	if cfg.Tee, err = flags.GetBool("tee"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.Thresholds, err = gate.WithEnv(getenv)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	cfg.ResolveXMLDir(getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return cfg, nil
}

// runCheck executes the coverage pipeline, writes the report and returns
// the gate error, if any.
func runCheck(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	logger.Info("starting check",
		"project", cfg.Project,
		"xmlDir", cfg.XMLDir,
		"symbols", cfg.SymbolsFile,
		"concurrency", cfg.Concurrency,
	)

	var table *bindings.Table
	if cfg.SymbolsFile != "" {
		var err error
		table, err = bindings.LoadTable(cfg.SymbolsFile)
		if err != nil {
			return fmt.Errorf("failed to load symbols: %w", err)
		}
		logger.Info("symbol table loaded", "symbols", table.Len())
	} else {
		logger.Warn("no symbol dump given, binding coverage is not checked")
	}

	p := createPipeline(cfg, table, logger)
	logger.Debug("pipeline ready", "steps", p.StepNames())

	coverageReport := model.NewCoverageReport(cfg.Project, cfg.XMLDir)
	coverageReport.SymbolsFile = cfg.SymbolsFile

	startTime := time.Now()
	if err := p.Execute(ctx, coverageReport); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	logger.Info("check completed", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, coverageReport, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := saveRun(ctx, cfg, coverageReport, logger); err != nil {
		logger.Error("failed to save run", "error", err)
	}

	if coverageReport.Gate != nil {
		return coverageReport.Gate.Err()
	}
	return nil
}

// createPipeline builds the check pipeline. The probe and gate steps need
// a symbol table and are left out without one.
func createPipeline(cfg *config.Config, table *bindings.Table, logger *slog.Logger) *pipeline.Pipeline {
	classifier := coverage.NewClassifier(cfg.Rules)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewIngestStep(cfg.XMLDir, classifier,
		pipeline.WithIngestFilter(doxygen.NewFilter(cfg.IgnorePatterns...)),
		pipeline.WithIngestConcurrency(cfg.Concurrency),
		pipeline.WithIngestLogger(logger),
	))

	if table != nil {
		p.AddSteps(
			pipeline.NewProbeStep(table, logger),
			pipeline.NewGateStep(cfg.Thresholds),
		)
	}

	p.AddStep(pipeline.NewSummaryStep(logger))
	return p
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output, report.WithMarkdownUndocumented(cfg.ShowUndocumented))
	default:
		return report.NewSimpleWriter(output,
			report.WithUndocumented(cfg.ShowUndocumented),
			report.WithVerbose(cfg.Verbose),
		)
	}
}

// outputReport writes the report to the configured file, or stdout. With
// Tee set, a file report is followed by the text report on stdout.
func outputReport(cfg *config.Config, coverageReport *model.CoverageReport, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(cfg, stdout).Write(coverageReport)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := newReportWriter(cfg, f)
	if cfg.Tee {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout,
			report.WithUndocumented(cfg.ShowUndocumented),
			report.WithVerbose(cfg.Verbose),
		))
	}
	_, err = w.Write(coverageReport)
	return err
}

// saveRun stores the run in the history database if enabled and prunes
// old runs beyond the history limit.
func saveRun(ctx context.Context, cfg *config.Config, coverageReport *model.CoverageReport, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, coverageReport)
	if err != nil {
		return err
	}
	logger.Info("run saved to database", "id", id, "runID", coverageReport.RunID, "path", db.Path())

	if cfg.HistoryLimit > 0 {
		n, err := db.PruneRuns(ctx, cfg.Project, cfg.HistoryLimit)
		if err != nil {
			return err
		}
		logger.Debug("pruned old runs", "deleted", n)
	}

	return nil
}
