// Package tone implements the session-scoped tone carryover cache: a
// TTL-bound memory of the last strong directive, consulted when the current
// turn produces no strong signal of its own.
package tone

import (
	"context"
	"time"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// Cache holds one directive per session, expiring after a TTL. The carryover
// read is advisory: a strong current-turn directive always overrides it, so
// implementations only need to answer "is a non-expired directive present".
type Cache interface {
	// Get returns the cached directive for the session, or ok=false when no
	// directive is cached or the cached directive has expired.
	Get(ctx context.Context, sessionID types.ID) (directive.Directive, bool, error)

	// Set caches a directive for the session with the given TTL, replacing
	// any previous value.
	Set(ctx context.Context, sessionID types.ID, d directive.Directive, ttl time.Duration) error

	// Close releases resources held by the cache.
	Close() error
}

// Config configures the tone carryover cache.
type Config struct {
	// TTL is how long a cached directive steers subsequent turns.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`

	// Addr is the redis address for the redis-backed cache.
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`

	// Password is the optional redis password.
	Password string `mapstructure:"password" yaml:"password" json:"password"`

	// DB is the redis database index.
	DB int `mapstructure:"db" yaml:"db" json:"db"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.TTL == 0 {
		c.TTL = 900 * time.Second
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return memory.NewInvalidConfigError("tone ttl must be positive")
	}
	if c.Addr == "" {
		return memory.NewInvalidConfigError("tone addr cannot be empty")
	}
	return nil
}
