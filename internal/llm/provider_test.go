package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRdeMora/quimera/internal/types"
)

func TestMockProvider_Complete(t *testing.T) {
	provider := NewMockProvider()
	provider.SetReply("hola")

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System:   "Eres Quimera, un asistente de IA avanzado.",
		Messages: []Message{{Role: RoleUser, Content: "buenos días"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hola", resp.Content)

	requests := provider.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Eres Quimera, un asistente de IA avanzado.", requests[0].System)
}

func TestMockProvider_FailWith(t *testing.T) {
	provider := NewMockProvider()
	provider.FailWith(errors.New("api down"))

	_, err := provider.Complete(context.Background(), CompletionRequest{})
	assert.True(t, types.IsCode(err, types.ErrCodeProviderCallFailed))
}

func TestMockProvider_CancelledContext(t *testing.T) {
	provider := NewMockProvider()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Complete(ctx, CompletionRequest{})
	assert.True(t, types.IsCode(err, types.ErrCodeProviderCallFailed))
}

func TestNew_Factory(t *testing.T) {
	provider, err := New(Config{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())

	_, err = New(Config{Provider: "llama-local"})
	assert.True(t, types.IsCode(err, types.ErrCodeProviderUnavailable))
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIProvider(Config{Provider: "openai"})
	assert.True(t, types.IsCode(err, types.ErrCodeProviderAuthFailed))
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 1024, cfg.MaxTokens)
}

func TestToContentMessages(t *testing.T) {
	req := CompletionRequest{
		System: "sistema",
		Messages: []Message{
			{Role: RoleUser, Content: "pregunta"},
			{Role: RoleAssistant, Content: "respuesta"},
		},
	}

	messages := toContentMessages(req)
	require.Len(t, messages, 3)
}
