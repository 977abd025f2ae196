package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// EmbeddedStore is an in-memory vector store using brute-force cosine
// search. It backs tests and the embedded deployment mode; production
// deployments use the sqlite backend.
type EmbeddedStore struct {
	mu      sync.RWMutex
	records map[types.ID]Record
	dims    int

	// failQuery and failInserts inject errors for degradation tests.
	failQuery   error
	failInserts int
	failInsert  error
}

// NewEmbeddedStore creates an in-memory vector store for embeddings of the
// given dimensionality.
func NewEmbeddedStore(dims int) *EmbeddedStore {
	return &EmbeddedStore{
		records: make(map[types.ID]Record),
		dims:    dims,
	}
}

// Insert adds a record, replacing any previous record with the same ID.
func (s *EmbeddedStore) Insert(ctx context.Context, record Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if len(record.Embedding) != s.dims {
		return memory.NewVectorStoreError(
			fmt.Sprintf("embedding dimensions mismatch: expected %d, got %d", s.dims, len(record.Embedding)), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInserts > 0 {
		s.failInserts--
		return memory.NewVectorStoreError("failed to insert record", s.failInsert)
	}
	s.records[record.ID] = record
	return nil
}

// Query runs a brute-force cosine search, filtered to the query session,
// floored at MinSimilarity and capped at TopK.
func (s *EmbeddedStore) Query(ctx context.Context, query Query) ([]Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failQuery != nil {
		return nil, memory.NewVectorSearchError("injected query failure", s.failQuery)
	}

	results := make([]Result, 0)
	for _, record := range s.records {
		if !query.SessionID.IsZero() && record.SessionID != query.SessionID {
			continue
		}
		sim := cosineSimilarity(query.Embedding, record.Embedding)
		if sim < query.MinSimilarity {
			continue
		}
		results = append(results, Result{Record: record, Similarity: sim})
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
func (s *EmbeddedStore) Delete(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Health always reports healthy for the embedded store.
func (s *EmbeddedStore) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("embedded vector store")
}

// Close is a no-op for the embedded store.
func (s *EmbeddedStore) Close() error {
	return nil
}

// Len returns the number of stored records. Test helper.
func (s *EmbeddedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FailQuery makes subsequent queries fail with the given cause.
// Pass nil to restore normal behavior.
func (s *EmbeddedStore) FailQuery(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failQuery = cause
}

// FailInsertTimes makes the next n inserts fail with the given cause, then
// restores normal behavior. Exercises retry paths.
func (s *EmbeddedStore) FailInsertTimes(n int, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInserts = n
	s.failInsert = cause
}

// cosineSimilarity computes the cosine similarity between two embedding
// vectors, normalized into [0,1]. Mismatched lengths score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	// Negative cosines clamp to 0 so scores compose with similarity floors
	// expressed as fractions in [0,1].
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	return cos
}
