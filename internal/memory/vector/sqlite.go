package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// SqliteStore is a persistent vector store on SQLite. Embeddings are stored
// as JSON blobs and scored with brute-force cosine similarity scoped to one
// session, which keeps the candidate set small enough that no ANN index is
// needed. Thread-safe.
type SqliteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dims   int
	closed bool
}

// NewSqliteStore creates a persistent vector store at cfg.Path.
func NewSqliteStore(cfg Config) (*SqliteStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// WAL mode for concurrent readers alongside the single writer.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, memory.NewVectorStoreError("failed to open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, memory.NewVectorStoreError("failed to ping database", err)
	}

	store := &SqliteStore{db: db, dims: cfg.Dimensions}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SqliteStore) createSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS vectors (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		turn_id    TEXT NOT NULL,
		text       TEXT NOT NULL,
		embedding  BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vectors_session ON vectors(session_id);`

	if _, err := s.db.Exec(schema); err != nil {
		return memory.NewVectorStoreError("failed to create schema", err)
	}
	return nil
}

// Insert adds a record, replacing any previous record with the same ID.
func (s *SqliteStore) Insert(ctx context.Context, record Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if len(record.Embedding) != s.dims {
		return memory.NewVectorStoreError(
			fmt.Sprintf("embedding dimensions mismatch: expected %d, got %d", s.dims, len(record.Embedding)), nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return memory.NewVectorStoreError("store is closed", nil)
	}

	blob, err := json.Marshal(record.Embedding)
	if err != nil {
		return memory.NewVectorStoreError("failed to serialize embedding", err)
	}

	const insert = `
	INSERT INTO vectors (id, session_id, turn_id, text, embedding)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		session_id = excluded.session_id,
		turn_id    = excluded.turn_id,
		text       = excluded.text,
		embedding  = excluded.embedding`

	if _, err := s.db.ExecContext(ctx, insert,
		record.ID.String(), record.SessionID.String(), record.TurnID.String(), record.Text, blob); err != nil {
		return memory.NewVectorStoreError("failed to insert record", err)
	}
	return nil
}

// Query loads the session's candidates and scores them by cosine similarity.
func (s *SqliteStore) Query(ctx context.Context, query Query) ([]Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, memory.NewVectorSearchError("store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, turn_id, text, embedding FROM vectors WHERE session_id = ?`,
		query.SessionID.String())
	if err != nil {
		return nil, memory.NewVectorSearchError("failed to query candidates", err)
	}
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		var (
			record Record
			id     string
			sid    string
			tid    string
			blob   []byte
		)
		if err := rows.Scan(&id, &sid, &tid, &record.Text, &blob); err != nil {
			return nil, memory.NewVectorSearchError("failed to scan record", err)
		}
		record.ID, record.SessionID, record.TurnID = types.ID(id), types.ID(sid), types.ID(tid)

		if err := json.Unmarshal(blob, &record.Embedding); err != nil {
			return nil, memory.NewVectorSearchError("failed to deserialize embedding", err)
		}

		sim := cosineSimilarity(query.Embedding, record.Embedding)
		if sim < query.MinSimilarity {
			continue
		}
		results = append(results, Result{Record: record, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, memory.NewVectorSearchError("candidate iteration failed", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > query.TopK {
		results = results[:query.TopK]
	}
	return results, nil
}

// Delete removes a record from the store.
func (s *SqliteStore) Delete(ctx context.Context, id types.ID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return memory.NewVectorStoreError("store is closed", nil)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, id.String()); err != nil {
		return memory.NewVectorStoreError("failed to delete record", err)
	}
	return nil
}

// Health pings the database.
func (s *SqliteStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.Unhealthy("store is closed")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("ping failed: %v", err))
	}
	return types.Healthy("sqlite vector store")
}

// Close releases the database handle.
func (s *SqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
