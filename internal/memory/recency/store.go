// Package recency implements the bounded, ordered per-session turn buffer.
// It is the short-term memory tier and the only load-bearing tier of the
// engine: a failed append or fetch here fails the whole request.
package recency

import (
	"context"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// Store is the recency tier contract. Implementations must preserve strict
// chronological order per session and evict FIFO beyond the configured
// capacity. Reads are safe from multiple concurrent readers; writes for a
// single session are serialized by the persistence writer, not by the store.
type Store interface {
	// Append adds a turn to the end of the session buffer, evicting the
	// oldest turn once the buffer exceeds its capacity. The returned turn
	// carries the sequence index assigned by the store.
	Append(ctx context.Context, sessionID types.ID, turn memory.Turn) (memory.Turn, error)

	// Recent returns up to limit turns for the session in chronological
	// order, newest last. A session with no history returns an empty slice.
	Recent(ctx context.Context, sessionID types.ID, limit int) ([]memory.Turn, error)

	// Health returns the health status of the recency store.
	Health(ctx context.Context) types.HealthStatus

	// Close releases resources held by the store.
	Close() error
}

// Config configures the recency tier.
type Config struct {
	// Capacity is the maximum number of turns retained per session.
	Capacity int `mapstructure:"capacity" yaml:"capacity" json:"capacity"`

	// Addr is the redis address for the redis-backed store.
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`

	// Password is the optional redis password.
	Password string `mapstructure:"password" yaml:"password" json:"password"`

	// DB is the redis database index.
	DB int `mapstructure:"db" yaml:"db" json:"db"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = 20
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return memory.NewInvalidConfigError("recency capacity must be greater than 0")
	}
	if c.Addr == "" {
		return memory.NewInvalidConfigError("recency addr cannot be empty")
	}
	return nil
}
