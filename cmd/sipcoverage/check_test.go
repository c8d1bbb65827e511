package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/defconcepts/sipcoverage/internal/config"
	"github.com/defconcepts/sipcoverage/internal/database"
	"github.com/defconcepts/sipcoverage/internal/gate"
	applog "github.com/defconcepts/sipcoverage/internal/log"
)

// classXML returns a file holding one public class with one documented
// method and one undocumented method.
func classXML(class string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<doxygen>
  <compounddef id="class%[1]s" kind="class" prot="public">
    <compoundname>%[1]s</compoundname>
    <sectiondef kind="public-func">
      <memberdef kind="function" prot="public">
        <type>void</type>
        <definition>void %[1]s::documented</definition>
        <argsstring>()</argsstring>
        <name>documented</name>
        <briefdescription><para>Has docs.</para></briefdescription>
      </memberdef>
      <memberdef kind="function" prot="public">
        <type>void</type>
        <definition>void %[1]s::bare</definition>
        <argsstring>(int a)</argsstring>
        <name>bare</name>
      </memberdef>
    </sectiondef>
  </compounddef>
</doxygen>
`, class)
}

const symbolsYAML = `modules:
  - name: qgis.core
    classes:
      Foo: [documented]
`

// fixture is an XML directory, a symbol dump and a configuration file.
type fixture struct {
	xmlDir  string
	symbols string
	config  string
	dbDir   string
	logPath string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	root := t.TempDir()
	f := fixture{
		xmlDir:  filepath.Join(root, "xml"),
		symbols: filepath.Join(root, "symbols.yaml"),
		config:  filepath.Join(root, config.DefaultConfigFile),
		dbDir:   filepath.Join(root, "db"),
		logPath: filepath.Join(root, "important.log"),
	}

	if err := os.MkdirAll(f.xmlDir, 0750); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(f.xmlDir, "classFoo.xml"), classXML("Foo"))
	writeFile(t, filepath.Join(f.xmlDir, "classGone.xml"), classXML("Gone"))
	writeFile(t, filepath.Join(f.xmlDir, "dir_skip.xml"), classXML("Skipped"))
	writeFile(t, f.symbols, symbolsYAML)
	writeFile(t, f.config, `defaults:
  ignore:
    - "dir_*.xml"
projects:
  qgis:
    concurrency: 2
  other:
    xml_dir: /other/xml
`)

	return f
}

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func parseCheckFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := NewCheckCmd()
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

// TestBuildConfig tests building the configuration from file, flags and
// environment.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	noEnv := envOf(nil)

	t.Run("flags over file over defaults", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config, "-x", f.xmlDir, "-s", f.symbols, "-i", "index.xml", "--no-db", "--keep", "5")
		cfg, err := buildConfig(cmd, noEnv)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.XMLDir != f.xmlDir || cfg.SymbolsFile != f.symbols {
			t.Errorf("unexpected inputs: %s %s", cfg.XMLDir, cfg.SymbolsFile)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected concurrency from the project section, got %d", cfg.Concurrency)
		}
		if strings.Join(cfg.IgnorePatterns, ",") != "dir_*.xml,index.xml" {
			t.Errorf("flag patterns should extend the file ones, got %v", cfg.IgnorePatterns)
		}
		if cfg.SaveToDB || cfg.HistoryLimit != 5 {
			t.Errorf("unexpected history settings: %v %d", cfg.SaveToDB, cfg.HistoryLimit)
		}
		if cfg.Thresholds != gate.DefaultThresholds() {
			t.Errorf("unexpected thresholds %+v", cfg.Thresholds)
		}
	})

	t.Run("environment raises thresholds", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config, "-x", f.xmlDir)
		cfg, err := buildConfig(cmd, envOf(map[string]string{
			gate.EnvMissingClasses: "5",
			gate.EnvMissingMembers: "10",
		}))
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Thresholds.MaxMissingClasses != 90 || cfg.Thresholds.MaxMissingMembers != 277 {
			t.Errorf("unexpected thresholds %+v", cfg.Thresholds)
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config, "-x", f.xmlDir)
		_, err := buildConfig(cmd, envOf(map[string]string{gate.EnvMissingClasses: "many"}))
		if !errors.Is(err, gate.ErrInvalidOverride) {
			t.Errorf("expected ErrInvalidOverride, got %v", err)
		}
	})

	t.Run("xml dir from prefix path", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config)
		cfg, err := buildConfig(cmd, envOf(map[string]string{config.EnvPrefixPath: "/build/output"}))
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.XMLDir != filepath.Join("/build", "doc", "api", "xml") {
			t.Errorf("unexpected xml dir %s", cfg.XMLDir)
		}
	})

	t.Run("project section supplies the xml dir", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config, "-p", "other")
		cfg, err := buildConfig(cmd, noEnv)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.Project != "other" || cfg.XMLDir != "/other/xml" {
			t.Errorf("unexpected config: %s %s", cfg.Project, cfg.XMLDir)
		}
	})

	t.Run("no xml dir", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config)
		if _, err := buildConfig(cmd, noEnv); !errors.Is(err, config.ErrNoXMLDir) {
			t.Errorf("expected ErrNoXMLDir, got %v", err)
		}
	})

	t.Run("unknown explicit project", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config, "-x", f.xmlDir, "-p", "nope")
		if _, err := buildConfig(cmd, noEnv); !errors.Is(err, config.ErrUnknownProject) {
			t.Errorf("expected ErrUnknownProject, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()

		cmd := parseCheckFlags(t, "--config", f.config, "-x", f.xmlDir, "-j", "-m")
		if _, err := buildConfig(cmd, noEnv); !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}

// testConfig returns a configuration for the fixture without history.
func testConfig(f fixture) *config.Config {
	cfg := config.NewConfig()
	cfg.XMLDir = f.xmlDir
	cfg.SymbolsFile = f.symbols
	cfg.IgnorePatterns = []string{"dir_*.xml"}
	cfg.Concurrency = 2
	cfg.SaveToDB = false
	cfg.DBDir = f.dbDir
	cfg.ImportantLogPath = f.logPath
	return cfg
}

func testLogger(cfg *config.Config) *slog.Logger {
	return applog.NewLogger(io.Discard, false, false, cfg.ImportantLogPath)
}

// TestRunCheck tests the check pipeline end to end.
func TestRunCheck(t *testing.T) {
	t.Parallel()

	t.Run("default thresholds pass", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)

		var buf bytes.Buffer
		if err := runCheck(context.Background(), cfg, &buf, testLogger(cfg)); err != nil {
			t.Fatalf("runCheck() error = %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"Missing classes:\n Gone\n",
			"Missing members:\n Foo.bare\n",
			"2 total bindable classes\n",
			"1 classes missing bindings, out of 85 allowed\n",
			"Status:         PASS",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Skipped") {
			t.Error("ignored files should not be read")
		}

		data, err := os.ReadFile(f.logPath)
		if err != nil {
			t.Fatalf("failed to read important log: %v", err)
		}
		if !strings.Contains(string(data), "1 members missing bindings, out of 267 allowed") {
			t.Errorf("unexpected important log:\n%s", data)
		}
	})

	t.Run("zero thresholds fail", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)
		cfg.Thresholds = gate.Thresholds{}

		var buf bytes.Buffer
		err := runCheck(context.Background(), cfg, &buf, testLogger(cfg))
		if !errors.Is(err, gate.ErrTooManyMissingClasses) || !errors.Is(err, gate.ErrTooManyMissingMembers) {
			t.Errorf("expected both breaches, got %v", err)
		}
		var te *gate.ThresholdError
		if !errors.As(err, &te) || te.Allowed != 0 {
			t.Errorf("expected a ThresholdError, got %v", err)
		}
		if !strings.Contains(buf.String(), "Status:         FAIL") {
			t.Error("report should still be written")
		}
	})

	t.Run("documentation only without symbols", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)
		cfg.SymbolsFile = ""
		cfg.Thresholds = gate.Thresholds{}

		var buf bytes.Buffer
		if err := runCheck(context.Background(), cfg, &buf, testLogger(cfg)); err != nil {
			t.Fatalf("documentation only runs have no gate, got %v", err)
		}
		if !strings.Contains(buf.String(), "Total documentation coverage 50.00%") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("missing symbol dump", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)
		cfg.SymbolsFile = filepath.Join(t.TempDir(), "missing.yaml")

		if err := runCheck(context.Background(), cfg, io.Discard, testLogger(cfg)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("json report to file", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.json")

		var buf bytes.Buffer
		if err := runCheck(context.Background(), cfg, &buf, testLogger(cfg)); err != nil {
			t.Fatalf("runCheck() error = %v", err)
		}
		if buf.Len() != 0 {
			t.Error("nothing should be written to stdout")
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var decoded struct {
			Passed bool `json:"passed"`
			Report struct {
				Project  string `json:"project"`
				Bindings struct {
					MissingClasses []string `json:"missing_classes"`
				} `json:"bindings"`
			} `json:"report"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !decoded.Passed || decoded.Report.Project != "qgis" || len(decoded.Report.Bindings.MissingClasses) != 1 {
			t.Errorf("unexpected report: %+v", decoded)
		}
	})

	t.Run("markdown report to file with tee", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)
		cfg.MarkdownReport = true
		cfg.Tee = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "coverage.md")

		var buf bytes.Buffer
		if err := runCheck(context.Background(), cfg, &buf, testLogger(cfg)); err != nil {
			t.Fatalf("runCheck() error = %v", err)
		}
		if !strings.Contains(buf.String(), "SIP COVERAGE REPORT") {
			t.Errorf("expected the text report on stdout, got:\n%s", buf.String())
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.HasPrefix(string(data), "# SIP Coverage Report") {
			t.Errorf("expected a Markdown file, got:\n%s", data)
		}
	})

	t.Run("history is saved and pruned", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		cfg := testConfig(f)
		cfg.SaveToDB = true
		cfg.HistoryLimit = 2

		for range 3 {
			if err := runCheck(context.Background(), cfg, io.Discard, testLogger(cfg)); err != nil {
				t.Fatalf("runCheck() error = %v", err)
			}
		}

		db, err := database.Open(f.dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		meta, err := db.GetRunHistoryWithMetadata(context.Background(), "qgis")
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(meta) != 2 {
			t.Fatalf("expected 2 runs after pruning, got %d", len(meta))
		}
		if !meta[0].HasBindings || meta[0].MissingClasses != 1 || meta[0].MissingMembers != 1 {
			t.Errorf("unexpected metadata: %+v", meta[0])
		}
		if meta[0].Fingerprint != meta[1].Fingerprint {
			t.Error("identical input should have identical fingerprints")
		}
	})
}

// TestCheckCmd runs the command through cobra.
func TestCheckCmd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var buf bytes.Buffer
	cmd := NewCheckCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{
		"--config", f.config,
		"-x", f.xmlDir,
		"-s", f.symbols,
		"--db-dir", f.dbDir,
		"--important-log", f.logPath,
		"-m",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "# SIP Coverage Report") {
		t.Errorf("expected a Markdown report, got:\n%s", buf.String())
	}
	if _, err := os.Stat(filepath.Join(f.dbDir, database.FileName)); err != nil {
		t.Errorf("expected the run to be saved: %v", err)
	}
}

// TestCheckCmdEnvFile tests threshold overrides from a dotenv file.
func TestCheckCmdEnvFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	envFile := filepath.Join(t.TempDir(), "ci.env")
	writeFile(t, envFile, "MISSING_SIP_MEMBERS=-1\n")

	cmd := NewCheckCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{
		"--config", f.config,
		"-x", f.xmlDir,
		"--env-file", envFile,
		"--no-db",
		"--important-log", f.logPath,
	})

	if err := cmd.Execute(); !errors.Is(err, gate.ErrInvalidOverride) {
		t.Errorf("expected ErrInvalidOverride, got %v", err)
	}
}
