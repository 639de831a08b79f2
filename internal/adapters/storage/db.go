package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS month_window (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		fetched_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar_record (
		collection TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		day TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (collection, position)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
