package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"igfollow/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	school TEXT NOT NULL,
	follower_url TEXT NOT NULL,
	abbreviation TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	run_id TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_entries_follower ON entries(follower_url);
CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);
`

// SQLiteStore keeps the ledger in a SQLite database. Every row carries the
// id of the run that wrote it.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	runID string
}

// OpenSQLiteStore opens or creates the database at path
func OpenSQLiteStore(path, runID string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=FULL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{db: db, path: path, runID: runID}, nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// Scan reads every entry in insertion order
func (s *SQLiteStore) Scan(fn func(models.Entry) error) error {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT school, follower_url, abbreviation, result, timestamp FROM entries ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var school, ref, tokens, result, ts string
		if err := rows.Scan(&school, &ref, &tokens, &result, &ts); err != nil {
			return fmt.Errorf("failed to scan ledger row: %w", err)
		}
		e := models.Entry{Subject: school, Ref: ref, Tokens: tokens}
		if d, err := models.ParseDecision(result); err == nil {
			e.Decision = d
		}
		if t, err := time.ParseInLocation(models.TimestampLayout, ts, time.Local); err == nil {
			e.Timestamp = t
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Append inserts e
func (s *SQLiteStore) Append(e models.Entry) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO entries (school, follower_url, abbreviation, result, timestamp, run_id) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Subject, e.Ref, e.Tokens, e.Decision.String(), e.Timestamp.Local().Format(models.TimestampLayout), s.runID)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// Runs counts entries per run id
func (s *SQLiteStore) Runs() (map[string]int, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT run_id, COUNT(*) FROM entries GROUP BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs[id] = n
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
