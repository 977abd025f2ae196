// Package vector implements the semantic memory tier: embedding storage and
// approximate nearest-neighbor lookup over past turns, plus the recall
// policy (similarity floor, result cap, recency dedup) applied on top.
package vector

import (
	"context"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// Store provides vector-based semantic search over persisted turns.
// Implementations must be thread-safe for concurrent access; inserts are
// commutative and need no session-level coordination.
type Store interface {
	// Insert adds a single vector record to the store. Inserting a record
	// with an existing ID replaces it, which makes commits idempotent.
	Insert(ctx context.Context, record Record) error

	// Query finds similar records by embedding vector, sorted by similarity
	// descending, capped at query.TopK, filtered to query.MinSimilarity.
	Query(ctx context.Context, query Query) ([]Result, error)

	// Delete removes a record from the store.
	Delete(ctx context.Context, id types.ID) error

	// Health returns the health status of the vector store.
	Health(ctx context.Context) types.HealthStatus

	// Close releases all resources held by the vector store.
	Close() error
}

// Record represents a stored vector with turn metadata.
type Record struct {
	ID        types.ID  `json:"id"`
	SessionID types.ID  `json:"session_id"`
	TurnID    types.ID  `json:"turn_id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// Validate ensures the Record has valid fields.
func (r *Record) Validate() error {
	if r.ID.IsZero() {
		return memory.NewVectorStoreError("record id cannot be empty", nil)
	}
	if r.SessionID.IsZero() {
		return memory.NewVectorStoreError("record session_id cannot be empty", nil)
	}
	if r.TurnID.IsZero() {
		return memory.NewVectorStoreError("record turn_id cannot be empty", nil)
	}
	if len(r.Embedding) == 0 {
		return memory.NewVectorStoreError("record embedding cannot be empty", nil)
	}
	return nil
}

// Query represents a vector search request.
type Query struct {
	Embedding     []float64 `json:"embedding"`
	SessionID     types.ID  `json:"session_id"`
	TopK          int       `json:"top_k"`
	MinSimilarity float64   `json:"min_similarity"`
}

// Validate ensures the Query has valid fields.
func (q *Query) Validate() error {
	if len(q.Embedding) == 0 {
		return memory.NewVectorSearchError("query embedding cannot be empty", nil)
	}
	if q.TopK <= 0 {
		return memory.NewVectorSearchError("query top_k must be greater than 0", nil)
	}
	if q.MinSimilarity < 0 || q.MinSimilarity > 1 {
		return memory.NewVectorSearchError("query min_similarity must be between 0 and 1", nil)
	}
	return nil
}

// Result is one search hit with its cosine similarity (0-1, higher is better).
type Result struct {
	Record     Record  `json:"record"`
	Similarity float64 `json:"similarity"`
}

// Config configures the semantic tier.
type Config struct {
	// Backend selects the store implementation: "sqlite" or "embedded".
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	// Path is the sqlite database path for the sqlite backend.
	Path string `mapstructure:"path" yaml:"path" json:"path"`

	// Dimensions is the embedding dimensionality.
	Dimensions int `mapstructure:"dimensions" yaml:"dimensions" json:"dimensions"`

	// TopK is the default number of semantic hits per recall.
	TopK int `mapstructure:"top_k" yaml:"top_k" json:"top_k"`

	// MinSimilarity is the similarity floor for recall hits.
	MinSimilarity float64 `mapstructure:"min_similarity" yaml:"min_similarity" json:"min_similarity"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" {
		c.Path = "quimera_vectors.db"
	}
	if c.Dimensions == 0 {
		c.Dimensions = 1536
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.MinSimilarity == 0 {
		c.MinSimilarity = 0.6
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	switch c.Backend {
	case "sqlite", "embedded":
	default:
		return memory.NewInvalidConfigError(
			"invalid vector backend '" + c.Backend + "', must be one of: sqlite, embedded")
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return memory.NewInvalidConfigError("vector path is required for the sqlite backend")
	}
	if c.Dimensions <= 0 {
		return memory.NewInvalidConfigError("vector dimensions must be greater than 0")
	}
	if c.TopK <= 0 {
		return memory.NewInvalidConfigError("vector top_k must be greater than 0")
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return memory.NewInvalidConfigError("vector min_similarity must be between 0 and 1")
	}
	return nil
}
