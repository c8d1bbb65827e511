package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be matched with
// errors.Is().
var (
	// ErrNoXMLDir is returned when no Doxygen XML directory is configured
	// and QGIS_PREFIX_PATH is not set either.
	ErrNoXMLDir = errors.New("no Doxygen XML directory: use --xml-dir or set QGIS_PREFIX_PATH")

	// ErrInvalidConcurrency is returned when the number of parallel
	// parsers is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidIgnorePattern is returned when an ignore pattern is blank.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern: must not be empty")

	// ErrInvalidHistoryLimit is returned when the number of runs to keep
	// is negative.
	ErrInvalidHistoryLimit = errors.New("invalid history limit: must not be negative")

	// ErrUnknownProject is returned when --project names a project the
	// configuration file does not define.
	ErrUnknownProject = errors.New("unknown project")

	// ErrInvalidEnvFile is returned when --env-file cannot be read.
	ErrInvalidEnvFile = errors.New("invalid env file")
)
