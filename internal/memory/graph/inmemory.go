package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// InMemoryChain is a Chain implementation backed by in-process maps. It is
// used in tests and dry runs, and unlike the Neo4j backend it actively
// verifies the simple-path invariant: an append that would fork the chain
// fails with CHAIN_BRANCH_DETECTED.
type InMemoryChain struct {
	mu          sync.RWMutex
	nodes       map[types.ID]ChainTurn
	next        map[types.ID]types.ID // outgoing NEXT edge per node
	prev        map[types.ID]types.ID // incoming NEXT edge per node
	recordErr   error
	expandErr   error
	failRecords int
}

// NewInMemoryChain creates an empty in-memory chain store.
func NewInMemoryChain() *InMemoryChain {
	return &InMemoryChain{
		nodes: make(map[types.ID]ChainTurn),
		next:  make(map[types.ID]types.ID),
		prev:  make(map[types.ID]types.ID),
	}
}

// FailRecord makes subsequent Record calls fail with a GRAPH_WRITE_FAILED
// error wrapping cause.
func (c *InMemoryChain) FailRecord(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordErr = cause
}

// FailRecordTimes makes the next n Record calls fail with cause, then
// restores normal behavior. Exercises retry paths.
func (c *InMemoryChain) FailRecordTimes(n int, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failRecords = n
	c.recordErr = cause
}

// FailExpand makes subsequent Neighborhood calls fail with a
// GRAPH_EXPAND_FAILED error wrapping cause.
func (c *InMemoryChain) FailExpand(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expandErr = cause
}

// Record adds a turn node and its NEXT edge. Re-recording the same turn
// with the same predecessor is a no-op; linking a predecessor that already
// points elsewhere is a branch and fails.
func (c *InMemoryChain) Record(ctx context.Context, turn memory.Turn, prevTurnID types.ID) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recordErr != nil {
		err := memory.NewGraphWriteError("failed to record turn in chain", c.recordErr)
		if c.failRecords > 0 {
			c.failRecords--
			if c.failRecords == 0 {
				c.recordErr = nil
			}
		}
		return err
	}

	if !prevTurnID.IsZero() {
		if existing, ok := c.next[prevTurnID]; ok && existing != turn.ID {
			return memory.NewChainBranchError(fmt.Sprintf(
				"turn %s already has successor %s, refusing to link %s",
				prevTurnID, existing, turn.ID))
		}
		if existing, ok := c.prev[turn.ID]; ok && existing != prevTurnID {
			return memory.NewChainBranchError(fmt.Sprintf(
				"turn %s already has predecessor %s, refusing to link from %s",
				turn.ID, existing, prevTurnID))
		}
	}

	c.nodes[turn.ID] = ChainTurn{
		TurnID:        turn.ID,
		SessionID:     turn.SessionID,
		Role:          turn.Role,
		Text:          turn.Text,
		SequenceIndex: turn.SequenceIndex,
	}
	if !prevTurnID.IsZero() {
		c.next[prevTurnID] = turn.ID
		c.prev[turn.ID] = prevTurnID
	}
	return nil
}

// Neighborhood walks the chain pointers around the anchor.
func (c *InMemoryChain) Neighborhood(ctx context.Context, sessionID, turnID types.ID, before, after int) ([]ChainTurn, error) {
	if before < 0 || after < 0 {
		return nil, memory.NewGraphExpandError("expansion depths must be non-negative", nil)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.expandErr != nil {
		return nil, memory.NewGraphExpandError("failed to expand chain neighborhood", c.expandErr)
	}

	anchor, ok := c.nodes[turnID]
	if !ok || anchor.SessionID != sessionID {
		return []ChainTurn{}, nil
	}

	var segment []ChainTurn
	cursor := turnID
	for i := 0; i < before; i++ {
		prevID, ok := c.prev[cursor]
		if !ok {
			break
		}
		segment = append([]ChainTurn{c.nodes[prevID]}, segment...)
		cursor = prevID
	}

	segment = append(segment, anchor)

	cursor = turnID
	for i := 0; i < after; i++ {
		nextID, ok := c.next[cursor]
		if !ok {
			break
		}
		segment = append(segment, c.nodes[nextID])
		cursor = nextID
	}

	return segment, nil
}

// Health always reports healthy.
func (c *InMemoryChain) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("in-memory chain store")
}

// Close is a no-op for the in-memory backend.
func (c *InMemoryChain) Close(ctx context.Context) error {
	return nil
}

// Len returns the number of stored nodes.
func (c *InMemoryChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}
