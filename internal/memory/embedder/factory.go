package embedder

import (
	"fmt"

	"github.com/SRdeMora/quimera/internal/memory"
)

// New creates an embedder based on the provided configuration.
//
// Supported providers:
//   - "openai": OpenAI Embeddings API (requires API key) - DEFAULT
//   - "mock":   deterministic hash-based embeddings for tests and dry runs
func New(cfg Config) (Embedder, error) {
	cfg.ApplyDefaults()

	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(cfg)
	case "mock":
		return NewMockEmbedderWithDimensions(cfg.Dimensions), nil
	default:
		return nil, memory.NewInvalidConfigError(
			fmt.Sprintf("unknown embedder provider %q - must be 'openai' or 'mock'", cfg.Provider))
	}
}
