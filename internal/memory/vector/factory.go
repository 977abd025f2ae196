package vector

import (
	"fmt"

	"github.com/SRdeMora/quimera/internal/memory"
)

// New creates a vector store based on the provided configuration.
//
// Supported backends:
//   - "sqlite":   persistent store at cfg.Path - DEFAULT
//   - "embedded": in-process store for tests and ephemeral runs
func New(cfg Config) (Store, error) {
	cfg.ApplyDefaults()

	switch cfg.Backend {
	case "sqlite":
		return NewSqliteStore(cfg)
	case "embedded":
		return NewEmbeddedStore(cfg.Dimensions), nil
	default:
		return nil, memory.NewInvalidConfigError(
			fmt.Sprintf("unknown vector backend %q - must be 'sqlite' or 'embedded'", cfg.Backend))
	}
}
