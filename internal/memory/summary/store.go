// Package summary persists one rolling narrative summary per session. The
// summary is an optional context source: a missing or failing store degrades
// the assembled prompt, never the turn.
package summary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// Store reads and writes per-session summaries.
type Store interface {
	// Get returns the current summary for a session. ok is false when the
	// session has no summary yet.
	Get(ctx context.Context, sessionID types.ID) (summary string, ok bool, err error)

	// Set replaces the summary for a session.
	Set(ctx context.Context, sessionID types.ID, summary string) error

	// Health returns the health status of the summary store.
	Health(ctx context.Context) types.HealthStatus

	// Close releases all resources held by the store.
	Close() error
}

// Config configures the summary store.
type Config struct {
	// Path is the sqlite database path.
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "quimera_summaries.db"
	}
}

// SqliteStore is a Store backed by SQLite.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore creates a persistent summary store at cfg.Path.
func NewSqliteStore(cfg Config) (*SqliteStore, error) {
	cfg.ApplyDefaults()

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, memory.NewSummaryStoreError("failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, memory.NewSummaryStoreError("failed to ping database", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS session_summaries (
		session_id TEXT PRIMARY KEY,
		summary    TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, memory.NewSummaryStoreError("failed to create schema", err)
	}

	return &SqliteStore{db: db}, nil
}

// Get returns the current summary for a session.
func (s *SqliteStore) Get(ctx context.Context, sessionID types.ID) (string, bool, error) {
	if sessionID.IsZero() {
		return "", false, memory.NewSummaryStoreError("session id cannot be empty", nil)
	}

	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM session_summaries WHERE session_id = ?`,
		sessionID.String()).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, memory.NewSummaryStoreError("failed to read summary", err)
	}
	return text, true, nil
}

// Set replaces the summary for a session.
func (s *SqliteStore) Set(ctx context.Context, sessionID types.ID, summary string) error {
	if sessionID.IsZero() {
		return memory.NewSummaryStoreError("session id cannot be empty", nil)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_summaries (session_id, summary, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			summary = excluded.summary,
			updated_at = excluded.updated_at`,
		sessionID.String(), summary, time.Now().Unix())
	if err != nil {
		return memory.NewSummaryStoreError("failed to write summary", err)
	}
	return nil
}

// Health pings the database.
func (s *SqliteStore) Health(ctx context.Context) types.HealthStatus {
	if err := s.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("sqlite ping failed: %v", err))
	}
	return types.Healthy("summary store operational")
}

// Close closes the database.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}
