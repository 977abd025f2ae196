package llm

import (
	"fmt"

	"github.com/SRdeMora/quimera/internal/types"
)

// New creates a generation provider from configuration.
//
// Supported providers:
//   - "openai": OpenAI chat completions API - DEFAULT
//   - "mock":   canned replies for tests and dry runs
func New(cfg Config) (Provider, error) {
	cfg.ApplyDefaults()

	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, types.NewError(types.ErrCodeProviderUnavailable,
			fmt.Sprintf("unknown provider %q - must be 'openai' or 'mock'", cfg.Provider))
	}
}
