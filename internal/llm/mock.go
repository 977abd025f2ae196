package llm

import (
	"context"
	"sync"

	"github.com/SRdeMora/quimera/internal/types"
)

// MockProvider is a scriptable Provider for tests.
type MockProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []CompletionRequest
}

// NewMockProvider creates a mock provider that echoes a canned reply.
func NewMockProvider() *MockProvider {
	return &MockProvider{reply: "respuesta simulada"}
}

// SetReply sets the canned completion content.
func (m *MockProvider) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// FailWith makes subsequent Complete calls return err.
func (m *MockProvider) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns the completion requests received so far.
func (m *MockProvider) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Complete records the request and returns the canned reply.
func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, types.WrapError(types.ErrCodeProviderCallFailed,
			"mock completion failed", m.err)
	}
	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(types.ErrCodeProviderCallFailed,
			"completion cancelled", err)
	}
	return &CompletionResponse{Content: m.reply, Model: "mock"}, nil
}

// Health always reports healthy.
func (m *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider")
}
