package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite handle for the reservation store: the mutable
// reservations table and the append-only confirmation log.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty in-memory DB.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reservations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            customer_name TEXT NOT NULL,
            email TEXT NOT NULL,
            contact_number TEXT NOT NULL,
            event_type TEXT,
            event_name TEXT,
            special_request TEXT,
            event_start_date TEXT NOT NULL,
            event_end_date TEXT NOT NULL,
            status TEXT DEFAULT 'Pending',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS confirmation_logs (
            log_id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL,
            event_type TEXT,
            customer_name TEXT NOT NULL,
            email TEXT NOT NULL,
            contact_number TEXT NOT NULL,
            special_request TEXT,
            event_start_date TEXT NOT NULL,
            event_end_date TEXT NOT NULL,
            confirmed_at TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'Confirmed'
        )`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_dates ON reservations(event_start_date, event_end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_status ON confirmation_logs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_confirmed_at ON confirmation_logs(confirmed_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
