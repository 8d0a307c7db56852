package server

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/farmbot/gofarm/internal/domain"
)

// RunRow is one recorded orchestrator run.
type RunRow struct {
	ID             string    `json:"id"`
	Claimed        int       `json:"claimed"`
	AlreadyClaimed int       `json:"alreadyClaimed"`
	Failed         int       `json:"failed"`
	Total          int       `json:"total"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RunsRepo persists run summaries in sqlite. It doubles as the runner's
// RunSink so the bot can record a row after each pass.
type RunsRepo struct {
	db *sql.DB
}

// OpenRunsRepo opens (and migrates) the run-history database.
func OpenRunsRepo(dbPath string) (*RunsRepo, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	repo := &RunsRepo{db: db}
	if err := repo.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *RunsRepo) migrate() error {
	_, err := r.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	claimed         INTEGER NOT NULL,
	already_claimed INTEGER NOT NULL,
	failed          INTEGER NOT NULL,
	total           INTEGER NOT NULL,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`)
	return err
}

func (r *RunsRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// RecordRun implements services.RunSink.
func (r *RunsRepo) RecordRun(summary *domain.RunSummary) error {
	_, err := r.db.Exec(
		`INSERT INTO runs (id, claimed, already_claimed, failed, total, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.Claimed, summary.AlreadyClaimed, summary.Failed, summary.Total, time.Now().UTC(),
	)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (r *RunsRepo) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, claimed, already_claimed, failed, total, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var row RunRow
		if err := rows.Scan(&row.ID, &row.Claimed, &row.AlreadyClaimed, &row.Failed, &row.Total, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run, or sql.ErrNoRows if none exist.
func (r *RunsRepo) LatestRun() (*RunRow, error) {
	var row RunRow
	err := r.db.QueryRow(
		`SELECT id, claimed, already_claimed, failed, total, created_at FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&row.ID, &row.Claimed, &row.AlreadyClaimed, &row.Failed, &row.Total, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &row, nil
}
