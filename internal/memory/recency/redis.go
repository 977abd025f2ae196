package recency

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// RedisStore is the production recency store backed by a redis list per
// session. Appends RPUSH the serialized turn and LTRIM the list to the
// configured capacity, which gives strict FIFO eviction; sequence indices
// come from a per-session INCR counter so they survive eviction.
type RedisStore struct {
	client   *redis.Client
	capacity int64
}

// NewRedisStore creates a recency store on the given redis address.
// The connection is verified lazily; use Health to probe it.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		client:   client,
		capacity: int64(cfg.Capacity),
	}, nil
}

func turnsKey(sessionID types.ID) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

func seqKey(sessionID types.ID) string {
	return fmt.Sprintf("session:%s:seq", sessionID)
}

// Append adds a turn to the session buffer and trims it to capacity.
func (s *RedisStore) Append(ctx context.Context, sessionID types.ID, turn memory.Turn) (memory.Turn, error) {
	if err := turn.Validate(); err != nil {
		return memory.Turn{}, err
	}

	seq, err := s.client.Incr(ctx, seqKey(sessionID)).Result()
	if err != nil {
		return memory.Turn{}, memory.NewRecencyAppendError("failed to allocate sequence index", err)
	}
	turn.SequenceIndex = seq - 1

	payload, err := json.Marshal(turn)
	if err != nil {
		return memory.Turn{}, memory.NewRecencyAppendError("failed to serialize turn", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, turnsKey(sessionID), payload)
	pipe.LTrim(ctx, turnsKey(sessionID), -s.capacity, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return memory.Turn{}, memory.NewRecencyAppendError("failed to append turn", err)
	}

	return turn, nil
}

// Recent returns up to limit turns in chronological order, newest last.
func (s *RedisStore) Recent(ctx context.Context, sessionID types.ID, limit int) ([]memory.Turn, error) {
	if limit <= 0 || int64(limit) > s.capacity {
		limit = int(s.capacity)
	}

	raw, err := s.client.LRange(ctx, turnsKey(sessionID), int64(-limit), -1).Result()
	if err != nil {
		return nil, memory.NewRecencyFetchError("failed to fetch recent turns", err)
	}

	turns := make([]memory.Turn, 0, len(raw))
	for _, item := range raw {
		var turn memory.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, memory.NewRecencyFetchError("failed to deserialize turn", err)
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Health pings redis to verify the connection.
func (s *RedisStore) Health(ctx context.Context) types.HealthStatus {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return types.Unhealthy(fmt.Sprintf("redis ping failed: %v", err))
	}
	return types.Healthy("connected to redis")
}

// Close releases the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
