package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/memory/recency"
	"github.com/SRdeMora/quimera/internal/memory/tone"
	"github.com/SRdeMora/quimera/internal/memory/vector"
	"github.com/SRdeMora/quimera/internal/types"
)

// Persister writes a completed turn back into every memory tier. Appends
// for one session are serialized through a per-session lock so the NEXT
// chain stays a simple path under concurrent user messages; sessions never
// block each other.
type Persister struct {
	recency   recency.Store
	recall    *vector.Recall
	chain     graph.Chain
	toneCache tone.Cache
	toneTTL   time.Duration
	logger    *slog.Logger

	locks sync.Map // types.ID -> *sync.Mutex
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithPersisterLogger sets the logger used for best-effort write warnings.
func WithPersisterLogger(logger *slog.Logger) PersisterOption {
	return func(p *Persister) {
		p.logger = logger.With("component", "persister")
	}
}

// WithToneTTL sets how long a committed directive steers subsequent turns.
func WithToneTTL(ttl time.Duration) PersisterOption {
	return func(p *Persister) {
		p.toneTTL = ttl
	}
}

// NewPersister creates a Persister. Recency is required; recall, chain, and
// toneCache may be nil, in which case their tiers are skipped.
func NewPersister(store recency.Store, recall *vector.Recall, chain graph.Chain, toneCache tone.Cache, opts ...PersisterOption) *Persister {
	p := &Persister{
		recency:   store,
		recall:    recall,
		chain:     chain,
		toneCache: toneCache,
		toneTTL:   900 * time.Second,
		logger:    slog.Default().With("component", "persister"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CommitResult reports which tiers recorded the turn.
type CommitResult struct {
	UserTurn      memory.Turn
	AssistantTurn memory.Turn
	Degraded      []string
}

// Commit appends the user and assistant turns of one exchange to all tiers.
// The recency append is the required write: its failure aborts the commit
// and the caller must treat the turn as not recorded. Semantic and
// relational writes are best-effort with one retry. The tone carryover is
// updated synchronously from the directive computed for this turn.
func (p *Persister) Commit(ctx context.Context, sessionID types.ID, userText, assistantText string, d directive.Directive) (*CommitResult, error) {
	unlock := p.lockSession(sessionID)
	defer unlock()

	// Chain predecessor is the session tail before this exchange.
	var prevTurnID types.ID
	tail, err := p.recency.Recent(ctx, sessionID, 1)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeTurnNotRecorded,
			"could not read session tail before commit", err)
	}
	if len(tail) > 0 {
		prevTurnID = tail[len(tail)-1].ID
	}

	userTurn, err := p.recency.Append(ctx, sessionID, memory.NewTurn(sessionID, memory.RoleUser, userText))
	if err != nil {
		return nil, types.WrapError(types.ErrCodeTurnNotRecorded,
			"required recency append failed for user turn", err)
	}
	assistantTurn, err := p.recency.Append(ctx, sessionID, memory.NewTurn(sessionID, memory.RoleAssistant, assistantText))
	if err != nil {
		return nil, types.WrapError(types.ErrCodeTurnNotRecorded,
			"required recency append failed for assistant turn", err)
	}

	result := &CommitResult{UserTurn: userTurn, AssistantTurn: assistantTurn}

	if p.recall != nil {
		var g errgroup.Group
		for _, turn := range []memory.Turn{userTurn, assistantTurn} {
			g.Go(func() error {
				return p.withRetry(func() error { return p.recall.Insert(ctx, turn) })
			})
		}
		if err := g.Wait(); err != nil {
			p.logger.Warn("semantic tier write degraded",
				"session_id", sessionID, "error", err)
			result.Degraded = append(result.Degraded, "semantic")
		}
	}

	if p.chain != nil {
		if err := p.recordChain(ctx, userTurn, assistantTurn, prevTurnID); err != nil {
			if types.IsCode(err, memory.ErrCodeChainBranchDetected) {
				// A branch means the single-writer discipline is broken.
				// That is a bug, not a degradation.
				return nil, types.WrapError(types.ErrCodeInvariantViolation,
					"chain branch detected during commit", err)
			}
			p.logger.Warn("relational tier write degraded",
				"session_id", sessionID, "error", err)
			result.Degraded = append(result.Degraded, "relational")
		}
	}

	if p.toneCache != nil && shouldCacheTone(d) {
		if err := p.toneCache.Set(ctx, sessionID, d, p.toneTTL); err != nil {
			p.logger.Warn("tone carryover update degraded",
				"session_id", sessionID, "error", err)
			result.Degraded = append(result.Degraded, "tone_carryover")
		}
	}

	return result, nil
}

func (p *Persister) recordChain(ctx context.Context, userTurn, assistantTurn memory.Turn, prevTurnID types.ID) error {
	if err := p.withRetry(func() error { return p.chain.Record(ctx, userTurn, prevTurnID) }); err != nil {
		return err
	}
	return p.withRetry(func() error { return p.chain.Record(ctx, assistantTurn, userTurn.ID) })
}

// withRetry runs fn, retrying once on failure. Invariant violations are
// never retried: replaying a branching append cannot make it legal.
func (p *Persister) withRetry(fn func() error) error {
	err := fn()
	if err == nil || types.IsCode(err, memory.ErrCodeChainBranchDetected) {
		return err
	}
	return fn()
}

func (p *Persister) lockSession(sessionID types.ID) func() {
	actual, _ := p.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// shouldCacheTone reports whether the directive re-arms the carryover
// cache. Carryover-sourced directives do not: re-writing them would extend
// the original TTL indefinitely.
func shouldCacheTone(d directive.Directive) bool {
	return !d.IsNone() && d.SourceStage != directive.StageCarryover
}
