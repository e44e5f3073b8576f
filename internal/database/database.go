package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection for the matching service.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

var (
	ErrMasterNotFound = errors.New("master not found")
	ErrJobNotFound    = errors.New("job not found")
)

// NewDB opens the database at path and runs migrations.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and busy timeout keep concurrent readers happy.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS masters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL,
			phone TEXT UNIQUE NOT NULL,
			specializations TEXT NOT NULL,
			city TEXT NOT NULL,
			preferred_channel TEXT DEFAULT 'telegram',
			rating REAL DEFAULT 5.0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			terminal_active BOOLEAN NOT NULL DEFAULT 0,
			schedule_json TEXT,
			last_schedule_confirmation DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_name TEXT NOT NULL,
			client_phone TEXT NOT NULL,
			category TEXT NOT NULL,
			problem_description TEXT NOT NULL,
			address TEXT NOT NULL,
			city TEXT NOT NULL,
			scheduled_date DATETIME NOT NULL,
			scheduled_time TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			master_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (master_id) REFERENCES masters(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_masters_city_active ON masters(city, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_masters_phone ON masters(phone)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_master ON jobs(master_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_scheduled ON jobs(scheduled_date)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}

	return db.ensureNewColumns()
}

// ensureNewColumns adds columns introduced after the initial schema.
func (db *DB) ensureNewColumns() error {
	migrations := []string{
		`ALTER TABLE masters ADD COLUMN schedule_json TEXT`,
		`ALTER TABLE masters ADD COLUMN terminal_active BOOLEAN NOT NULL DEFAULT 0`,
		`ALTER TABLE masters ADD COLUMN last_schedule_confirmation DATETIME`,
	}

	for _, m := range migrations {
		_, err := db.Exec(m)
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			if db.logger != nil {
				db.logger.Debug().Err(err).Str("migration", m).Msg("migration skipped")
			}
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

func (db *DB) Close() error {
	return db.DB.Close()
}
