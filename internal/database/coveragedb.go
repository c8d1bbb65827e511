package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/defconcepts/sipcoverage/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "sipcoverage.db"

// timestampLayout is the storage layout for run timestamps. It is fixed
// width and UTC so that text ordering matches time ordering.
const timestampLayout = "2006-01-02 15:04:05.000000"

// CoverageDB provides SQLite-based storage for coverage runs.
type CoverageDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CoverageDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CoverageDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CoverageDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CoverageDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CoverageDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CoverageDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CoverageDB) createTables() error {
	schema := `
	-- One row per check run; the full report is kept as JSON
	CREATE TABLE IF NOT EXISTS coverage_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		project TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		fingerprint TEXT,
		passed INTEGER NOT NULL,
		missing_classes INTEGER,
		missing_members INTEGER,
		documentation_coverage REAL NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_project ON coverage_runs(project);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON coverage_runs(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a report and returns its database ID.
func (cdb *CoverageDB) SaveRun(ctx context.Context, report *model.CoverageReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var missingClasses, missingMembers sql.NullInt64
	if report.Bindings != nil {
		missingClasses = sql.NullInt64{Int64: int64(len(report.Bindings.MissingClasses)), Valid: true}
		missingMembers = sql.NullInt64{Int64: int64(len(report.Bindings.MissingMembers)), Valid: true}
	}

	query := `
	INSERT INTO coverage_runs (run_id, project, timestamp, fingerprint, passed,
		missing_classes, missing_members, documentation_coverage, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := cdb.db.ExecContext(ctx, query,
		report.RunID,
		report.Project,
		report.DateGenerated.UTC().Format(timestampLayout),
		report.Fingerprint,
		report.Passed(),
		missingClasses,
		missingMembers,
		report.Documentation.Coverage,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return res.LastInsertId()
}

// GetLatestRuns returns up to limit runs of a project, newest first.
// A non-positive limit returns every run.
func (cdb *CoverageDB) GetLatestRuns(ctx context.Context, project string, limit int) ([]*model.CoverageReport, error) {
	query := `
	SELECT report_json FROM coverage_runs
	WHERE project = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	return cdb.queryReports(ctx, query, project, limit)
}

// GetRunHistory returns every run of a project, newest first.
func (cdb *CoverageDB) GetRunHistory(ctx context.Context, project string) ([]*model.CoverageReport, error) {
	return cdb.GetLatestRuns(ctx, project, 0)
}

// GetRunsSince returns the runs of a project at or after since, oldest first.
func (cdb *CoverageDB) GetRunsSince(ctx context.Context, project string, since time.Time) ([]*model.CoverageReport, error) {
	query := `
	SELECT report_json FROM coverage_runs
	WHERE project = ? AND timestamp >= ?
	ORDER BY timestamp ASC, id ASC
	`

	return cdb.queryReports(ctx, query, project, since.UTC().Format(timestampLayout))
}

func (cdb *CoverageDB) queryReports(ctx context.Context, query string, args ...any) ([]*model.CoverageReport, error) {
	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var reports []*model.CoverageReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var report model.CoverageReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// GetRunByID retrieves a run by its database ID. It returns nil, nil when
// no such run exists.
func (cdb *CoverageDB) GetRunByID(ctx context.Context, id int64) (*model.CoverageReport, error) {
	return cdb.getRun(ctx, "SELECT report_json FROM coverage_runs WHERE id = ?", id)
}

// GetRunByRunID retrieves a run by its run ID. It returns nil, nil when no
// such run exists.
func (cdb *CoverageDB) GetRunByRunID(ctx context.Context, runID string) (*model.CoverageReport, error) {
	return cdb.getRun(ctx, "SELECT report_json FROM coverage_runs WHERE run_id = ?", runID)
}

func (cdb *CoverageDB) getRun(ctx context.Context, query string, arg any) (*model.CoverageReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, arg).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CoverageReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListProjects returns every project with stored runs, sorted by name.
func (cdb *CoverageDB) ListProjects(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT project FROM coverage_runs
	ORDER BY project
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	// ID is the database identifier, usable with GetRunByID.
	ID int64

	RunID     string
	Project   string
	Timestamp time.Time

	Fingerprint string
	Passed      bool

	// HasBindings is false for documentation-only runs; the missing
	// counts are zero then.
	HasBindings    bool
	MissingClasses int
	MissingMembers int

	DocumentationCoverage float64
}

// GetRunHistoryWithMetadata retrieves run metadata for a project, newest first.
func (cdb *CoverageDB) GetRunHistoryWithMetadata(ctx context.Context, project string) ([]RunMetadata, error) {
	query := `
	SELECT id, run_id, project, timestamp, fingerprint, passed,
		missing_classes, missing_members, documentation_coverage
	FROM coverage_runs
	WHERE project = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var fingerprint sql.NullString
		var missingClasses, missingMembers sql.NullInt64

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.Project, &timestamp, &fingerprint,
			&meta.Passed, &missingClasses, &missingMembers, &meta.DocumentationCoverage); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Fingerprint = fingerprint.String
		meta.HasBindings = missingClasses.Valid
		meta.MissingClasses = int(missingClasses.Int64)
		meta.MissingMembers = int(missingMembers.Int64)

		results = append(results, meta)
	}

	return results, rows.Err()
}

// PruneRuns deletes all but the newest keep runs of a project and returns
// the number of runs deleted.
func (cdb *CoverageDB) PruneRuns(ctx context.Context, project string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	query := `
	DELETE FROM coverage_runs
	WHERE project = ? AND id NOT IN (
		SELECT id FROM coverage_runs
		WHERE project = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	)
	`

	res, err := cdb.db.ExecContext(ctx, query, project, project, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
