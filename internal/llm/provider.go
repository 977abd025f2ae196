// Package llm abstracts the generation model behind a provider interface so
// the engine never depends on a concrete vendor SDK.
package llm

import (
	"context"

	"github.com/SRdeMora/quimera/internal/types"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one chat message in a completion request.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// CompletionRequest is a full chat completion request: the assembled system
// prompt plus the conversation messages.
type CompletionRequest struct {
	System      string    `json:"system"`
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is the generated reply.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Provider is the unified abstraction over chat completion backends.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "mock").
	Name() string

	// Complete sends a completion request and blocks for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) types.HealthStatus
}

// Config configures a generation provider.
type Config struct {
	// Provider selects the implementation: "openai" or "mock".
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider"`

	// Model is the default generation model.
	Model string `mapstructure:"model" yaml:"model" json:"model"`

	// APIKey authenticates against the provider. Falls back to the
	// provider's conventional environment variable when empty.
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`

	// BaseURL overrides the provider API endpoint.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`

	// Temperature is the default sampling temperature.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`

	// MaxTokens bounds the generated reply length.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
}
