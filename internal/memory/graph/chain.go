// Package graph implements the relational memory tier: every turn is a node
// in a per-session conversation chain linked by NEXT edges. The chain is a
// simple path under single-writer discipline; a branch is a bug, not a
// recoverable condition.
package graph

import (
	"context"
	"time"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// ChainTurn is one node of a conversation chain, as returned by
// neighborhood expansion.
type ChainTurn struct {
	TurnID        types.ID    `json:"turn_id"`
	SessionID     types.ID    `json:"session_id"`
	Role          memory.Role `json:"role"`
	Text          string      `json:"text"`
	SequenceIndex int64       `json:"sequence_index"`
}

// Chain persists and traverses per-session conversation chains.
// Record is idempotent: re-committing a turn with the same ID and
// predecessor leaves the chain unchanged.
type Chain interface {
	// Record adds a turn node to its session chain and links it to prevTurnID
	// with a NEXT edge. A zero prevTurnID marks the first turn of a session.
	Record(ctx context.Context, turn memory.Turn, prevTurnID types.ID) error

	// Neighborhood returns the chain segment around an anchor turn: up to
	// `before` predecessors, the anchor itself, and up to `after` successors,
	// ordered oldest first. An unknown anchor yields an empty segment.
	Neighborhood(ctx context.Context, sessionID, turnID types.ID, before, after int) ([]ChainTurn, error)

	// Health returns the health status of the graph backend.
	Health(ctx context.Context) types.HealthStatus

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Config configures the relational tier.
type Config struct {
	// URI is the bolt URI of the Neo4j server.
	URI string `mapstructure:"uri" yaml:"uri" json:"uri"`

	// Username and Password authenticate against Neo4j basic auth.
	Username string `mapstructure:"username" yaml:"username" json:"username"`
	Password string `mapstructure:"password" yaml:"password" json:"password"`

	// Database is the Neo4j database name. Empty selects the server default.
	Database string `mapstructure:"database" yaml:"database" json:"database"`

	// DepthBefore and DepthAfter bound neighborhood expansion around a
	// semantic hit.
	DepthBefore int `mapstructure:"depth_before" yaml:"depth_before" json:"depth_before"`
	DepthAfter  int `mapstructure:"depth_after" yaml:"depth_after" json:"depth_after"`

	// ConnectTimeout bounds the initial connectivity check.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout" json:"connect_timeout"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.URI == "" {
		c.URI = "bolt://localhost:7687"
	}
	if c.DepthBefore == 0 {
		c.DepthBefore = 2
	}
	if c.DepthAfter == 0 {
		c.DepthAfter = 2
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if c.URI == "" {
		return memory.NewInvalidConfigError("graph uri cannot be empty")
	}
	if c.DepthBefore < 0 || c.DepthAfter < 0 {
		return memory.NewInvalidConfigError("graph expansion depths must be non-negative")
	}
	return nil
}
