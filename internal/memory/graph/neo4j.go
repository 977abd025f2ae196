package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// Neo4jChain implements Chain over a Neo4j database. The underlying driver
// pools connections, so one Neo4jChain is safe for concurrent use across
// sessions; per-session write ordering is the caller's responsibility.
type Neo4jChain struct {
	config Config
	driver neo4j.DriverWithContext
}

// NewNeo4jChain creates a Neo4j-backed chain and verifies connectivity.
func NewNeo4jChain(ctx context.Context, cfg Config) (*Neo4jChain, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, types.WrapError(memory.ErrCodeGraphUnavailable,
			"failed to create Neo4j driver", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(connectCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, types.WrapError(memory.ErrCodeGraphUnavailable,
			"failed to connect to Neo4j", err)
	}

	return &Neo4jChain{config: cfg, driver: driver}, nil
}

// Record merges the turn node and its NEXT edge from the predecessor.
// MERGE on both node and edge makes a retried commit a no-op.
func (c *Neo4jChain) Record(ctx context.Context, turn memory.Turn, prevTurnID types.ID) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	cypher := `
		MERGE (t:Turn {id: $id})
		SET t.session_id = $session_id,
		    t.role = $role,
		    t.text = $text,
		    t.sequence_index = $sequence_index,
		    t.created_at = $created_at
	`
	params := map[string]any{
		"id":             turn.ID.String(),
		"session_id":     turn.SessionID.String(),
		"role":           string(turn.Role),
		"text":           turn.Text,
		"sequence_index": turn.SequenceIndex,
		"created_at":     turn.CreatedAt.Unix(),
	}

	if !prevTurnID.IsZero() {
		cypher += `
		WITH t
		MATCH (p:Turn {id: $prev_id})
		MERGE (p)-[:NEXT]->(t)
		`
		params["prev_id"] = prevTurnID.String()
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return memory.NewGraphWriteError("failed to record turn in chain", err)
	}
	return nil
}

// Neighborhood expands the chain around an anchor turn. Depth bounds are
// baked into the Cypher because variable-length patterns cannot be
// parameterized.
func (c *Neo4jChain) Neighborhood(ctx context.Context, sessionID, turnID types.ID, before, after int) ([]ChainTurn, error) {
	if before < 0 || after < 0 {
		return nil, memory.NewGraphExpandError("expansion depths must be non-negative", nil)
	}

	cypher := fmt.Sprintf(`
		MATCH (a:Turn {id: $id, session_id: $session_id})
		OPTIONAL MATCH (b:Turn)-[:NEXT*1..%d]->(a)
		OPTIONAL MATCH (a)-[:NEXT*1..%d]->(f:Turn)
		RETURN a, collect(DISTINCT b) AS before, collect(DISTINCT f) AS after
	`, max(before, 1), max(after, 1))

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
	defer session.Close(ctx)

	segment, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":         turnID.String(),
			"session_id": sessionID.String(),
		})
		if err != nil {
			return nil, err
		}

		// Collect keeps "no anchor node" (zero records, not an error)
		// distinct from a failed read, which must surface so the
		// relational tier degrades instead of silently reporting absent.
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return []ChainTurn{}, nil
		}
		record := records[0]

		anchor, ok := record.Values[0].(neo4j.Node)
		if !ok {
			return []ChainTurn{}, nil
		}

		var turns []ChainTurn
		for _, node := range asNodeList(record.Values[1]) {
			turns = append(turns, nodeToChainTurn(node))
		}
		turns = append(turns, nodeToChainTurn(anchor))
		for _, node := range asNodeList(record.Values[2]) {
			turns = append(turns, nodeToChainTurn(node))
		}

		sort.Slice(turns, func(i, j int) bool {
			return turns[i].SequenceIndex < turns[j].SequenceIndex
		})
		return turns, nil
	})
	if err != nil {
		return nil, memory.NewGraphExpandError("failed to expand chain neighborhood", err)
	}

	turns := segment.([]ChainTurn)
	if before == 0 || after == 0 {
		turns = trimSegment(turns, turnID, before, after)
	}
	return turns, nil
}

// Health verifies connectivity to the Neo4j server.
func (c *Neo4jChain) Health(ctx context.Context) types.HealthStatus {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("Neo4j connectivity check failed: %v", err))
	}
	return types.Healthy("connected to Neo4j")
}

// Close releases the driver and its connection pool.
func (c *Neo4jChain) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func asNodeList(value any) []neo4j.Node {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	nodes := make([]neo4j.Node, 0, len(list))
	for _, item := range list {
		if node, ok := item.(neo4j.Node); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func nodeToChainTurn(node neo4j.Node) ChainTurn {
	turn := ChainTurn{
		Text: stringProp(node, "text"),
		Role: memory.Role(stringProp(node, "role")),
	}
	if id, err := types.ParseID(stringProp(node, "id")); err == nil {
		turn.TurnID = id
	}
	if id, err := types.ParseID(stringProp(node, "session_id")); err == nil {
		turn.SessionID = id
	}
	if seq, ok := node.Props["sequence_index"].(int64); ok {
		turn.SequenceIndex = seq
	}
	return turn
}

func stringProp(node neo4j.Node, key string) string {
	if v, ok := node.Props[key].(string); ok {
		return v
	}
	return ""
}

// trimSegment enforces zero-depth bounds that the Cypher pattern cannot
// express (a *1..0 range is invalid, so we over-fetch one hop and cut here).
func trimSegment(turns []ChainTurn, anchorID types.ID, before, after int) []ChainTurn {
	anchorIdx := -1
	for i, turn := range turns {
		if turn.TurnID == anchorID {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		return turns
	}

	start, end := 0, len(turns)
	if before == 0 {
		start = anchorIdx
	}
	if after == 0 {
		end = anchorIdx + 1
	}
	return turns[start:end]
}
