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

	"github.com/nao1215/a11yscan/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "a11yscan.db"

var (
	// ErrRunNotFound is returned when no stored run matches.
	ErrRunNotFound = errors.New("audit run not found")

	// ErrDatabaseNotFound is returned by Open when the database does not
	// exist and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")
)

// AuditDB stores finished audit runs.
type AuditDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
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

// Open opens or creates the database in dbDir.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := adb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

func (adb *AuditDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		root_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		pages_evaluated INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		links_found INTEGER NOT NULL DEFAULT 0,
		total_violations INTEGER NOT NULL DEFAULT 0,
		critical_count INTEGER NOT NULL DEFAULT 0,
		serious_count INTEGER NOT NULL DEFAULT 0,
		moderate_count INTEGER NOT NULL DEFAULT 0,
		minor_count INTEGER NOT NULL DEFAULT 0,
		other_count INTEGER NOT NULL DEFAULT 0,
		affected_elements INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root ON audit_runs(root_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON audit_runs(started_at);
	`
	_, err := adb.db.ExecContext(ctx, schema)
	return err
}

// RunMetadata describes a stored run without its pages.
type RunMetadata struct {
	// ID is the row ID.
	ID int64

	// RunID is the report's run identifier.
	RunID string

	// FinishedAt is when the report was finalized.
	FinishedAt time.Time

	// Summary holds the counts stored with the run.
	Summary model.Summary
}

// SaveRun stores a finished report. It returns the row ID.
func (adb *AuditDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	s := model.Summarize(report)

	query := `
	INSERT INTO audit_runs (
		run_id, root_url, started_at, finished_at,
		pages_evaluated, pages_failed, links_found,
		total_violations, critical_count, serious_count, moderate_count, minor_count, other_count,
		affected_elements, report_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := adb.db.ExecContext(ctx, query,
		report.RunID,
		report.RootURL,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		s.PagesEvaluated,
		s.PagesFailed,
		s.LinksFound,
		s.TotalViolations,
		s.CriticalCount,
		s.SeriousCount,
		s.ModerateCount,
		s.MinorCount,
		s.OtherCount,
		s.AffectedElements,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit run: %w", err)
	}
	return result.LastInsertId()
}

// ListRuns returns run metadata, newest first. An empty rootURL lists the
// runs of every site. A limit of zero or less means no limit.
func (adb *AuditDB) ListRuns(ctx context.Context, rootURL string, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, run_id, root_url, started_at, finished_at,
		pages_evaluated, pages_failed, links_found,
		total_violations, critical_count, serious_count, moderate_count, minor_count, other_count,
		affected_elements
	FROM audit_runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)
	if rootURL != "" {
		query += " AND root_url = ?"
		args = append(args, rootURL)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var (
			meta     RunMetadata
			started  string
			finished sql.NullString
		)
		s := &meta.Summary
		if err := rows.Scan(
			&meta.ID, &meta.RunID, &s.RootURL, &started, &finished,
			&s.PagesEvaluated, &s.PagesFailed, &s.LinksFound,
			&s.TotalViolations, &s.CriticalCount, &s.SeriousCount, &s.ModerateCount, &s.MinorCount, &s.OtherCount,
			&s.AffectedElements,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		if finished.Valid {
			meta.FinishedAt = parseTimestamp(finished.String)
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetRun loads the report stored under runID.
func (adb *AuditDB) GetRun(ctx context.Context, runID string) (*model.CrawlReport, error) {
	var reportJSON string
	err := adb.db.QueryRowContext(ctx,
		`SELECT report_json FROM audit_runs WHERE run_id = ?`, runID,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit run: %w", err)
	}
	return decodeReport(reportJSON)
}

// LatestRuns loads the n most recent reports of rootURL, newest first.
func (adb *AuditDB) LatestRuns(ctx context.Context, rootURL string, n int) ([]*model.CrawlReport, error) {
	rows, err := adb.db.QueryContext(ctx, `
	SELECT report_json FROM audit_runs
	WHERE root_url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`, rootURL, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit runs: %w", err)
	}
	defer rows.Close()

	var reports []*model.CrawlReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}
		report, err := decodeReport(reportJSON)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func decodeReport(data string) (*model.CrawlReport, error) {
	var report model.CrawlReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// storedTimeLayout is fixed width so that stored timestamps sort as text.
const storedTimeLayout = "2006-01-02 15:04:05.000000"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedTimeLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp as UTC. It returns the zero time
// when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
