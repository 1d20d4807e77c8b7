package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dd2-manager/internal/models"
	"dd2-manager/pkg/core"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	db  *sql.DB
	log core.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    cycles INTEGER NOT NULL DEFAULT 0,
    reason TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

func Open(path string, log core.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Debug("History database opened", "path", path)
	return &DB{db: db, log: log}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// BeginRun records a run start and returns its id.
func (d *DB) BeginRun(start time.Time) (string, error) {
	id := uuid.NewString()
	_, err := d.db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`, id, start.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun completes a run created by BeginRun.
func (d *DB) FinishRun(id string, end time.Time, cycles int, reason string) error {
	res, err := d.db.Exec(`
		UPDATE runs SET finished_at = ?, cycles = ?, reason = ?
		WHERE id = ?`,
		end.UTC(), cycles, reason, id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// AddRun inserts a complete run. An empty ID gets a fresh one.
func (d *DB) AddRun(run models.Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	var end sql.NullTime
	if !run.End.IsZero() {
		end = sql.NullTime{Time: run.End.UTC(), Valid: true}
	}
	_, err := d.db.Exec(`
		INSERT INTO runs (id, started_at, finished_at, cycles, reason)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Start.UTC(), end, run.Cycles, run.Reason)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (d *DB) RecentRuns(limit int) ([]models.Run, error) {
	d.log.Debug("Retrieving runs from database", "limit", limit)
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
        SELECT id, started_at, finished_at, cycles, reason
        FROM runs
        ORDER BY started_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var end sql.NullTime
		if err := rows.Scan(&run.ID, &run.Start, &end, &run.Cycles, &run.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if end.Valid {
			run.End = end.Time
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	d.log.Debug("Total runs retrieved", "count", len(runs))
	return runs, nil
}

func (d *DB) RemoveRuns(ids []string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete run %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func (d *DB) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).UTC()
	_, err := d.db.Exec("DELETE FROM runs WHERE started_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old runs: %w", err)
	}
	return nil
}
