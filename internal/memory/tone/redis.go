package tone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// RedisCache stores the carryover directive under a per-session key with a
// native redis TTL, so expiry needs no sweeper.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a tone cache on the given redis address.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{client: client}, nil
}

func toneKey(sessionID types.ID) string {
	return fmt.Sprintf("session:%s:tone", sessionID)
}

// Get returns the cached directive, or ok=false once the key has expired.
func (c *RedisCache) Get(ctx context.Context, sessionID types.ID) (directive.Directive, bool, error) {
	raw, err := c.client.Get(ctx, toneKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return directive.None(), false, nil
	}
	if err != nil {
		return directive.None(), false, memory.NewToneCacheError("failed to read tone carryover", err)
	}

	var d directive.Directive
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return directive.None(), false, memory.NewToneCacheError("failed to deserialize tone carryover", err)
	}

	return d, true, nil
}

// Set caches a directive for the session with the given TTL.
func (c *RedisCache) Set(ctx context.Context, sessionID types.ID, d directive.Directive, ttl time.Duration) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return memory.NewToneCacheError("failed to serialize tone carryover", err)
	}

	if err := c.client.Set(ctx, toneKey(sessionID), payload, ttl).Err(); err != nil {
		return memory.NewToneCacheError("failed to write tone carryover", err)
	}

	return nil
}

// Close releases the redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
