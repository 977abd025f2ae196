package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/SRdeMora/quimera/internal/types"
)

// MockEmbedder is a deterministic in-memory Embedder for testing. The same
// text always produces the same unit-norm vector, so similarity comparisons
// are stable across test runs.
type MockEmbedder struct {
	mu         sync.Mutex
	dimensions int
	embedErr   error
	calls      []string
}

// NewMockEmbedder creates a mock embedder producing 1536-dimensional vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{dimensions: 1536}
}

// NewMockEmbedderWithDimensions creates a mock embedder with custom dimensions.
func NewMockEmbedderWithDimensions(dims int) *MockEmbedder {
	return &MockEmbedder{dimensions: dims}
}

// FailWith makes subsequent Embed and EmbedBatch calls return err.
func (m *MockEmbedder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedErr = err
}

// Calls returns the texts passed to Embed and EmbedBatch so far.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Embed generates a deterministic embedding derived from a SHA256 hash of
// the text.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, text)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.generate(text), nil
}

// EmbedBatch generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, texts...)
	if m.embedErr != nil {
		return nil, m.embedErr
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = m.generate(text)
	}
	return out, nil
}

// Dimensions returns the dimensionality of embedding vectors.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}

// Model returns the name of the embedding model being used.
func (m *MockEmbedder) Model() string {
	return "mock-embedder"
}

// Health always reports healthy.
func (m *MockEmbedder) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock embedder")
}

func (m *MockEmbedder) generate(text string) []float64 {
	hash := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(hash[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float64, m.dimensions)
	var norm float64
	for i := range vec {
		vec[i] = rng.NormFloat64()
		norm += vec[i] * vec[i]
	}

	// Normalize to unit length so cosine similarity behaves like production
	// embeddings.
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
