package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Files migrate in parallel; one writer at a time keeps SQLite from reporting busy
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			dry_run INTEGER NOT NULL DEFAULT 0,
			inputs TEXT NOT NULL DEFAULT '',
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			files_failed INTEGER NOT NULL DEFAULT 0,
			cancelled INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS note_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			file TEXT NOT NULL,
			notebook TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			document_id TEXT,
			status TEXT NOT NULL,
			error TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS file_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			path TEXT NOT NULL,
			notebook TEXT NOT NULL,
			error TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS attachment_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			file TEXT NOT NULL,
			notebook TEXT NOT NULL,
			note_title TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			hash TEXT NOT NULL,
			file_id TEXT,
			reused INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_note_results_run ON note_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_note_results_status ON note_results(run_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_file_results_run ON file_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attachment_results_hash ON attachment_results(run_id, hash)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
