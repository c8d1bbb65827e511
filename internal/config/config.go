package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/defconcepts/sipcoverage/internal/coverage"
	"github.com/defconcepts/sipcoverage/internal/gate"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sipcoverage"

	// DefaultProject is the project name used when none is given.
	// Runs are grouped by project in the history database.
	DefaultProject = "qgis"

	// EnvPrefixPath names the install prefix of the project under test.
	// The Doxygen XML is expected at <prefix>/../doc/api/xml.
	EnvPrefixPath = "QGIS_PREFIX_PATH"

	// ImportantLogName is the file that collects summary lines for CI
	// result pages. It lives in the system temporary directory.
	ImportantLogName = "ctest-important.log"
)

// DefaultConcurrency is the number of XML files parsed in parallel.
var DefaultConcurrency = runtime.NumCPU()

// Config holds all configuration options for sipcoverage.
// It is populated from defaults, the configuration file and CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// Project names the codebase being checked. It selects a section of
	// the configuration file and groups runs in the history database.
	Project string

	// XMLDir is the directory holding the Doxygen XML output.
	// Empty means derive it from QGIS_PREFIX_PATH, see ResolveXMLDir.
	XMLDir string

	// SymbolsFile is the symbol dump of the binding modules.
	// When empty only documentation coverage is computed; the binding
	// probe and the gate are skipped.
	SymbolsFile string

	// IgnorePatterns are gitignore-style patterns of XML file names to skip.
	IgnorePatterns []string

	// Concurrency is the number of files parsed in parallel.
	Concurrency int

	// Rules are the project conventions used to classify members.
	Rules coverage.Rules

	// Thresholds are the gate limits, defaults plus environment overrides.
	Thresholds gate.Thresholds

	// ShowUndocumented adds the per-class list of undocumented members to
	// the report.
	ShowUndocumented bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sipcoverage in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output with tables and a pie
	// chart. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Tee also prints the text report to stdout when ReportFile is set.
	Tee bool

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to XDG data directory (~/.local/share/sipcoverage on Linux).
	DBDir string

	// SaveToDB indicates whether to save the run to the history database.
	SaveToDB bool

	// HistoryLimit is the number of runs kept per project after saving.
	// Zero keeps every run.
	HistoryLimit int

	// ImportantLogPath receives summary lines in addition to the console.
	// Empty disables the file.
	ImportantLogPath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Project:          DefaultProject,
		Concurrency:      DefaultConcurrency,
		Rules:            coverage.DefaultRules(),
		Thresholds:       gate.DefaultThresholds(),
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
		ImportantLogPath: DefaultImportantLogPath(),
	}
}

// XDGDataDir returns the XDG data directory for sipcoverage.
// On Linux: ~/.local/share/sipcoverage
// On macOS: ~/Library/Application Support/sipcoverage
// On Windows: %LOCALAPPDATA%\sipcoverage
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultImportantLogPath returns <tmp>/ctest-important.log.
func DefaultImportantLogPath() string {
	return filepath.Join(os.TempDir(), ImportantLogName)
}

// ResolveXMLDir fills XMLDir from the prefix path environment variable
// when it was not set explicitly. getenv is usually os.Getenv.
func (c *Config) ResolveXMLDir(getenv func(string) string) {
	if c.XMLDir != "" {
		return
	}
	if prefix := getenv(EnvPrefixPath); prefix != "" {
		c.XMLDir = filepath.Join(prefix, "..", "doc", "api", "xml")
	}
}

// Apply copies every value set in p over the configuration.
func (c *Config) Apply(p ProjectConfig) {
	if p.XMLDir != "" {
		c.XMLDir = p.XMLDir
	}
	if p.Symbols != "" {
		c.SymbolsFile = p.Symbols
	}
	if len(p.Ignore) > 0 {
		c.IgnorePatterns = append([]string(nil), p.Ignore...)
	}
	if p.Concurrency > 0 {
		c.Concurrency = p.Concurrency
	}
	if p.ImportantLog != "" {
		c.ImportantLogPath = p.ImportantLog
	}
	c.Rules = mergeRules(c.Rules, p.Rules)
}

func mergeRules(base, over coverage.Rules) coverage.Rules {
	if over.DeprecationMarker != "" {
		base.DeprecationMarker = over.DeprecationMarker
	}
	if over.ClassOptOut != "" {
		base.ClassOptOut = over.ClassOptOut
	}
	if over.MemberNoteKeyword != "" {
		base.MemberNoteKeyword = over.MemberNoteKeyword
	}
	if over.SlotPrefix != "" {
		base.SlotPrefix = over.SlotPrefix
	}
	if over.OverrideMarker != "" {
		base.OverrideMarker = over.OverrideMarker
	}
	if len(over.IgnoredOperators) > 0 {
		base.IgnoredOperators = append([]string(nil), over.IgnoredOperators...)
	}
	return base
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if c.XMLDir == "" {
		return ErrNoXMLDir
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.HistoryLimit < 0 {
		return ErrInvalidHistoryLimit
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for _, p := range c.IgnorePatterns {
		if p == "" {
			return ErrInvalidIgnorePattern
		}
	}

	return nil
}
