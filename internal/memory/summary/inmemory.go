package summary

import (
	"context"
	"sync"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// InMemoryStore is a Store backed by a map, for tests and dry runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	summaries map[types.ID]string
	getErr    error
	setErr    error
}

// NewInMemoryStore creates an empty in-memory summary store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{summaries: make(map[types.ID]string)}
}

// FailGet makes subsequent Get calls fail with a SUMMARY_STORE_FAILED error.
func (s *InMemoryStore) FailGet(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = cause
}

// FailSet makes subsequent Set calls fail with a SUMMARY_STORE_FAILED error.
func (s *InMemoryStore) FailSet(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = cause
}

// Get returns the current summary for a session.
func (s *InMemoryStore) Get(ctx context.Context, sessionID types.ID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getErr != nil {
		return "", false, memory.NewSummaryStoreError("failed to read summary", s.getErr)
	}
	text, ok := s.summaries[sessionID]
	return text, ok, nil
}

// Set replaces the summary for a session.
func (s *InMemoryStore) Set(ctx context.Context, sessionID types.ID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setErr != nil {
		return memory.NewSummaryStoreError("failed to write summary", s.setErr)
	}
	s.summaries[sessionID] = summary
	return nil
}

// Health always reports healthy.
func (s *InMemoryStore) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("in-memory summary store")
}

// Close is a no-op for the in-memory backend.
func (s *InMemoryStore) Close() error {
	return nil
}
