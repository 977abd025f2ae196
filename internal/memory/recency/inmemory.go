package recency

import (
	"context"
	"sync"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// InMemoryStore is a process-local recency store. It backs tests and the
// embedded deployment mode where no redis is available.
type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	buffers  map[types.ID][]memory.Turn
	seqs     map[types.ID]int64

	// failAppend and failFetch inject errors for failure-path tests.
	failAppend error
	failFetch  error
}

// NewInMemoryStore creates an in-memory recency store with the given capacity.
// A capacity of zero or less falls back to the default of 20.
func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity <= 0 {
		capacity = 20
	}
	return &InMemoryStore{
		capacity: capacity,
		buffers:  make(map[types.ID][]memory.Turn),
		seqs:     make(map[types.ID]int64),
	}
}

// Append adds a turn to the session buffer, evicting the oldest beyond capacity.
func (s *InMemoryStore) Append(ctx context.Context, sessionID types.ID, turn memory.Turn) (memory.Turn, error) {
	if err := turn.Validate(); err != nil {
		return memory.Turn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAppend != nil {
		return memory.Turn{}, memory.NewRecencyAppendError("injected append failure", s.failAppend)
	}

	turn.SequenceIndex = s.seqs[sessionID]
	s.seqs[sessionID]++

	buf := append(s.buffers[sessionID], turn)
	if len(buf) > s.capacity {
		buf = buf[len(buf)-s.capacity:]
	}
	s.buffers[sessionID] = buf

	return turn, nil
}

// Recent returns up to limit turns in chronological order, newest last.
func (s *InMemoryStore) Recent(ctx context.Context, sessionID types.ID, limit int) ([]memory.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failFetch != nil {
		return nil, memory.NewRecencyFetchError("injected fetch failure", s.failFetch)
	}

	buf := s.buffers[sessionID]
	if limit <= 0 || limit > len(buf) {
		limit = len(buf)
	}

	out := make([]memory.Turn, limit)
	copy(out, buf[len(buf)-limit:])
	return out, nil
}

// Health always reports healthy for the in-memory store.
func (s *InMemoryStore) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("in-memory recency store")
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// Reset drops the buffered turns of one session, keeping its sequence
// counter. Test helper.
func (s *InMemoryStore) Reset(sessionID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, sessionID)
}

// FailAppend makes subsequent appends fail with the given cause.
// Pass nil to restore normal behavior.
func (s *InMemoryStore) FailAppend(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppend = cause
}

// FailFetch makes subsequent fetches fail with the given cause.
// Pass nil to restore normal behavior.
func (s *InMemoryStore) FailFetch(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFetch = cause
}
