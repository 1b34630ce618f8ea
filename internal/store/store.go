// Package store persists budgets and imported expenses in SQLite. The
// parser itself keeps no state; this is where accepted transactions land
// once the user converts them into budget entries.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
-- Expenses imported from parsed statements. One row per accepted
-- transaction; source_id is the parse-time transaction ID, kept for
-- traceability only (it is not a dedup key).
CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL,
    date TEXT NOT NULL,              -- YYYY-MM-DD
    description TEXT NOT NULL,
    amount REAL NOT NULL,
    type TEXT NOT NULL,              -- income | expense
    category TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);
CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category);

-- Monthly budgets per category.
CREATE TABLE IF NOT EXISTS budgets (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    month TEXT NOT NULL,             -- YYYY-MM
    monthly_limit REAL NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(category, month)
);
`

// Store manages the SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL mode and foreign keys, and initializes the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: create database directory: %w", err)
		}
	}

	// The busy timeout makes concurrent writers wait for the lock instead
	// of failing immediately with SQLITE_BUSY.
	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
