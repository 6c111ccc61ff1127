package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/leaklens/leaklens/internal/model"
)

// dbFileName is the name of the SQLite database file inside the data directory.
const dbFileName = "leaklens.db"

// HistoryDB provides SQLite-based storage for completed scan reports.
// It manages connection pooling and provides methods to save, load, and
// list past reports.
//
// Design decision: We store one database file per data directory rather
// than per scan. All reports live in a single table, which keeps listing
// and comparison queries trivial and makes backup a single-file copy.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	if hdb.db == nil {
		return nil
	}
	return hdb.db.Close()
}

// Path returns the path to the database file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL UNIQUE,
		date_scanned DATETIME NOT NULL,
		total_score INTEGER NOT NULL,
		risk_level TEXT NOT NULL,
		critical_count INTEGER NOT NULL DEFAULT 0,
		high_count INTEGER NOT NULL DEFAULT 0,
		medium_count INTEGER NOT NULL DEFAULT 0,
		low_count INTEGER NOT NULL DEFAULT 0,
		info_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_date ON reports(date_scanned);
	`

	if _, err := hdb.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveReport persists a completed scan report. The full report is stored
// as JSON alongside denormalized score and severity columns for listing.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.PrivacyReport) error {
	if report == nil {
		return fmt.Errorf("report must not be nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	var totalScore int
	var riskLevel string
	if score := report.DisplayScore(); score != nil {
		totalScore = score.Total
		riskLevel = score.RiskLevelText
	}

	query := `
	INSERT INTO reports (
		report_id, date_scanned, total_score, risk_level,
		critical_count, high_count, medium_count, low_count, info_count,
		report_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		report.ID,
		report.DateScanned.UTC().Format("2006-01-02 15:04:05"),
		totalScore,
		riskLevel,
		report.CriticalCount,
		report.HighCount,
		report.MediumCount,
		report.LowCount,
		report.InfoCount,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// GetReport retrieves a report by its report ID.
// Returns (nil, nil) when no report with that ID exists.
func (hdb *HistoryDB) GetReport(ctx context.Context, reportID string) (*model.PrivacyReport, error) {
	query := `SELECT report_json FROM reports WHERE report_id = ?`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, reportID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.PrivacyReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetLatestReport retrieves the most recently saved report.
// Returns (nil, nil) when the history is empty.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context) (*model.PrivacyReport, error) {
	query := `
	SELECT report_json FROM reports
	ORDER BY date_scanned DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.PrivacyReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// LatestReports retrieves the n most recent reports, newest first.
// This is what the compare command uses to diff consecutive scans.
func (hdb *HistoryDB) LatestReports(ctx context.Context, n int) ([]*model.PrivacyReport, error) {
	query := `
	SELECT report_json FROM reports
	ORDER BY date_scanned DESC, id DESC
	LIMIT ?
	`

	rows, err := hdb.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.PrivacyReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.PrivacyReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportMetadata contains summary information about a saved report.
// This is used for displaying scan history without loading full reports.
type ReportMetadata struct {
	// ID is the row identifier in the database.
	ID int64

	// ReportID is the unique identifier assigned at scan time.
	ReportID string

	// DateScanned is when the scan was performed.
	DateScanned time.Time

	// TotalScore is the composite privacy score at scan time.
	TotalScore int

	// RiskLevel is the human-readable risk tier at scan time.
	RiskLevel string

	// SeverityCounts maps severity names to finding counts.
	SeverityCounts map[string]int
}

// ListReports retrieves metadata for up to limit saved reports, newest
// first. A limit of 0 or less returns all reports.
func (hdb *HistoryDB) ListReports(ctx context.Context, limit int) ([]ReportMetadata, error) {
	query := `
	SELECT id, report_id, date_scanned, total_score, risk_level,
		critical_count, high_count, medium_count, low_count, info_count
	FROM reports
	ORDER BY date_scanned DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var timestamp string
		var critical, high, medium, low, info int

		if err := rows.Scan(&meta.ID, &meta.ReportID, &timestamp, &meta.TotalScore,
			&meta.RiskLevel, &critical, &high, &medium, &low, &info); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.DateScanned = parseTimestamp(timestamp)
		meta.SeverityCounts = map[string]int{
			"critical": critical,
			"high":     high,
			"medium":   medium,
			"low":      low,
			"info":     info,
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
