package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docscope/docscope/internal/model"
)

// HistoryDB stores a record per finished crawl, keyed by session ID.
// It manages connection pooling and provides methods for recording and
// querying crawl history.
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

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance. Recommended for most use cases.
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
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "docscope.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer; readers share the connection.
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
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per finished crawl, keyed by session ID.
	CREATE TABLE IF NOT EXISTS crawl_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		base_url TEXT NOT NULL,
		status TEXT NOT NULL,
		pages_scraped INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		pages_total INTEGER DEFAULT 0,
		duration_seconds REAL DEFAULT 0,
		content_types TEXT,
		error TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id)
	);

	CREATE INDEX IF NOT EXISTS idx_history_domain ON crawl_history(domain);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON crawl_history(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// HistoryEntry is one recorded crawl as read back from the database.
type HistoryEntry struct {
	ID           int64
	SessionID    string
	Domain       string
	BaseURL      string
	Status       model.SessionStatus
	PagesScraped int
	PagesFailed  int
	PagesTotal   int
	Duration     time.Duration
	ContentTypes map[model.ContentType]int
	Error        string
	Timestamp    time.Time
}

// RecordCrawl inserts or updates the history row for a crawl report.
// Re-recording the same session (a resumed crawl finishing again)
// replaces the earlier row.
func (hdb *HistoryDB) RecordCrawl(ctx context.Context, report *model.CrawlReport) error {
	contentTypesJSON, err := json.Marshal(report.ContentTypes)
	if err != nil {
		return fmt.Errorf("serialize content types: %w", err)
	}

	query := `
	INSERT INTO crawl_history (session_id, domain, base_url, status, pages_scraped, pages_failed, pages_total, duration_seconds, content_types, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		status = excluded.status,
		pages_scraped = excluded.pages_scraped,
		pages_failed = excluded.pages_failed,
		pages_total = excluded.pages_total,
		duration_seconds = excluded.duration_seconds,
		content_types = excluded.content_types,
		error = excluded.error,
		timestamp = CURRENT_TIMESTAMP
	`

	_, err = hdb.db.ExecContext(ctx, query,
		report.SessionID,
		domainOf(report.BaseURL),
		report.BaseURL,
		string(report.Status),
		report.PagesScraped,
		report.PagesFailed,
		report.PagesTotal,
		report.Duration().Seconds(),
		string(contentTypesJSON),
		report.Error,
	)
	if err != nil {
		return fmt.Errorf("record crawl: %w", err)
	}
	return nil
}

// History returns recorded crawls, newest first. An empty domain returns
// every domain's history.
func (hdb *HistoryDB) History(ctx context.Context, domain string) ([]HistoryEntry, error) {
	query := `
	SELECT id, session_id, domain, base_url, status, pages_scraped, pages_failed, pages_total, duration_seconds, content_types, error, timestamp
	FROM crawl_history
	WHERE 1=1
	`
	args := make([]any, 0, 1)
	if domain != "" {
		query += " AND domain = ?"
		args = append(args, domain)
	}
	query += " ORDER BY timestamp DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var status, timestamp string
		var durationSeconds float64
		var contentTypesJSON, errMsg sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.Domain,
			&entry.BaseURL,
			&status,
			&entry.PagesScraped,
			&entry.PagesFailed,
			&entry.PagesTotal,
			&durationSeconds,
			&contentTypesJSON,
			&errMsg,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		entry.Status = model.SessionStatus(status)
		entry.Duration = time.Duration(durationSeconds * float64(time.Second))
		entry.Timestamp = parseTimestamp(timestamp)
		entry.Error = errMsg.String
		if contentTypesJSON.Valid && contentTypesJSON.String != "" {
			if err := json.Unmarshal([]byte(contentTypesJSON.String), &entry.ContentTypes); err != nil {
				entry.ContentTypes = nil
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Latest returns the most recent history entry for a domain, or nil when
// the domain has never been crawled.
func (hdb *HistoryDB) Latest(ctx context.Context, domain string) (*HistoryEntry, error) {
	entries, err := hdb.History(ctx, domain)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListDomains returns every domain with recorded history, sorted.
func (hdb *HistoryDB) ListDomains(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT domain FROM crawl_history
	ORDER BY domain
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, domain)
	}

	return domains, rows.Err()
}

// domainOf extracts the host of a URL, falling back to the raw string
// for unparseable input so history rows are never silently dropped.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
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

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. Returns zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
