package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/pdfassist/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		ready INTEGER NOT NULL,
		reason TEXT,
		chunks INTEGER NOT NULL,
		failures_json TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session_seq ON turns(session_id, seq);
	`
	_, err := db.Exec(schema)
	return err
}

type runFailures struct {
	URLs    []models.FailureRecord `json:"urls"`
	Uploads []models.FailureRecord `json:"uploads"`
}

// RecordRun stores the outcome of a processing run.
func (s *SQLiteStorage) RecordRun(ctx context.Context, sessionID string, result *models.ProcessResult) error {
	failuresJSON, err := json.Marshal(runFailures{URLs: result.FailedURLs, Uploads: result.FailedUploads})
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (session_id, ready, reason, chunks, failures_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, result.Ready, result.Reason, result.Chunks, string(failuresJSON), time.Now(),
	)
	return err
}

// RecordTurn stores answered turn number seq (1-based) of a session. Turns are append-only:
// recording a seq that already exists is an error and never overwrites the earlier turn.
func (s *SQLiteStorage) RecordTurn(ctx context.Context, sessionID string, seq int, turn models.Turn) error {
	askedAt := turn.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, seq, question, answer, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, seq, turn.Question, turn.Answer, askedAt,
	)
	return err
}

// ListTurns returns a session's recorded turns in order.
func (s *SQLiteStorage) ListTurns(ctx context.Context, sessionID string) (models.History, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, created_at FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	history := models.History{}
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.Question, &t.Answer, &t.AskedAt); err != nil {
			return nil, err
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// CountRuns returns how many processing runs were recorded for a session.
func (s *SQLiteStorage) CountRuns(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE session_id = ?", sessionID).Scan(&count)
	return count, err
}

// SizeBytes returns the size of the database including its WAL files.
func (s *SQLiteStorage) SizeBytes() (int64, error) {
	return DiskUsageBytes(s.path, s.path+"-wal", s.path+"-shm")
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
