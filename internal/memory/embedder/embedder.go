package embedder

import (
	"context"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// Embedder generates embedding vectors from text content.
// Implementations must be thread-safe for concurrent access.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimensionality of embedding vectors.
	Dimensions() int

	// Model returns the name of the embedding model being used.
	Model() string

	// Health returns the health status of the embedder.
	Health(ctx context.Context) types.HealthStatus
}

// Config holds configuration for embedding providers.
type Config struct {
	// Provider specifies which embedder implementation to use.
	// Options: "openai", "mock"
	Provider string `yaml:"provider" json:"provider" mapstructure:"provider"`

	// Model is the specific embedding model to use.
	// For OpenAI: "text-embedding-3-small" (1536 dims) or "text-embedding-3-large" (3072 dims)
	Model string `yaml:"model" json:"model" mapstructure:"model"`

	// APIKey is the API key for the embedding provider.
	// Can also be provided via environment variable (e.g., OPENAI_API_KEY)
	APIKey string `yaml:"api_key" json:"api_key" mapstructure:"api_key"`

	// BaseURL overrides the base URL for the embedding API.
	BaseURL string `yaml:"base_url" json:"base_url" mapstructure:"base_url"`

	// Dimensions is the expected dimensionality of the produced vectors.
	Dimensions int `yaml:"dimensions" json:"dimensions" mapstructure:"dimensions"`
}

// ApplyDefaults fills in default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 1536
	}
}

// Validate checks if the Config is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return memory.NewInvalidConfigError("embedder provider cannot be empty")
	}
	if c.Model == "" {
		return memory.NewInvalidConfigError("embedder model cannot be empty")
	}
	if c.Dimensions <= 0 {
		return memory.NewInvalidConfigError("embedder dimensions must be positive")
	}
	return nil
}
