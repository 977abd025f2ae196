// Package engine implements context synthesis: the concurrent fan-out over
// the memory tiers and the directive cascade, the deterministic fusion of
// their results into one instruction bundle, and the durable write-back of
// completed turns.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/memory/recency"
	"github.com/SRdeMora/quimera/internal/memory/summary"
	"github.com/SRdeMora/quimera/internal/memory/tone"
	"github.com/SRdeMora/quimera/internal/memory/vector"
	"github.com/SRdeMora/quimera/internal/types"
)

// Synthesis is the joined result of one context fan-out: everything the
// assembler needs to build the instruction bundle for a turn.
type Synthesis struct {
	// Directive is the fused behavioral signal for this turn.
	Directive directive.Directive

	// Window is the recency buffer, oldest first.
	Window []memory.Turn

	// Semantic holds the deduplicated semantic hits, similarity descending.
	Semantic []memory.MemoryRecord

	// Relational is the chain neighborhood around the top semantic hit,
	// oldest first. Empty when there was no semantic hit.
	Relational []graph.ChainTurn

	// Summary is the rolling session summary, empty when absent.
	Summary string

	// Degraded lists the optional sources that failed or timed out.
	Degraded []string
}

// Engine coordinates the read side of a turn: directive inference, tone
// carryover, and the three recall tiers under a shared deadline.
type Engine struct {
	cascade   *directive.Cascade
	toneCache tone.Cache
	recency   recency.Store
	recall    *vector.Recall
	chain     graph.Chain
	summaries summary.Store

	fanoutTimeout time.Duration
	depthBefore   int
	depthAfter    int
	logger        *slog.Logger
}

// Deps are the collaborators an Engine is built from. Cascade and Recency
// are required; the rest are optional tiers that degrade to absent.
type Deps struct {
	Cascade   *directive.Cascade
	ToneCache tone.Cache
	Recency   recency.Store
	Recall    *vector.Recall
	Chain     graph.Chain
	Summaries summary.Store
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With("component", "engine")
	}
}

// WithFanoutTimeout sets the shared deadline for the optional context
// sources on each request.
func WithFanoutTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.fanoutTimeout = d
	}
}

// WithExpansionDepths sets how far the relational tier expands around a
// semantic hit.
func WithExpansionDepths(before, after int) Option {
	return func(e *Engine) {
		e.depthBefore = before
		e.depthAfter = after
	}
}

// New creates an Engine from its collaborators.
func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		cascade:       deps.Cascade,
		toneCache:     deps.ToneCache,
		recency:       deps.Recency,
		recall:        deps.Recall,
		chain:         deps.Chain,
		summaries:     deps.Summaries,
		fanoutTimeout: 3 * time.Second,
		depthBefore:   2,
		depthAfter:    2,
		logger:        slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Synthesize runs the full read-side fan-out for one inbound message. The
// recency tier is load-bearing: its failure fails the whole call. Every
// other source degrades to absent, noted in Synthesis.Degraded.
func (e *Engine) Synthesize(ctx context.Context, sessionID types.ID, text string) (*Synthesis, error) {
	fanCtx, cancel := context.WithTimeout(ctx, e.fanoutTimeout)
	defer cancel()

	syn := &Synthesis{Directive: directive.None()}

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		recencyErr error
	)
	degrade := func(source string, err error) {
		e.logger.Warn("optional context source degraded",
			"source", source,
			"session_id", sessionID,
			"error", degradationError(source, err))
		mu.Lock()
		syn.Degraded = append(syn.Degraded, source)
		mu.Unlock()
	}

	// The recency window is both a bundle section and the dedup reference
	// for semantic recall, so its result is published to the semantic
	// goroutine as well as the join point.
	windowCh := make(chan []memory.Turn, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		window, err := e.recency.Recent(fanCtx, sessionID, 0)
		if err != nil {
			recencyErr = err
			close(windowCh)
			return
		}
		syn.Window = window
		windowCh <- window
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d := e.cascade.Infer(fanCtx, text)
		if d.IsNone() && e.toneCache != nil {
			cached, ok, err := e.toneCache.Get(fanCtx, sessionID)
			if err != nil {
				degrade("tone_carryover", err)
			} else if ok {
				d = cached.WithStage(directive.StageCarryover)
			}
		}
		mu.Lock()
		syn.Directive = d
		mu.Unlock()
	}()

	if e.recall != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := e.recall.Query(fanCtx, sessionID, text, nil)
			if err != nil {
				degrade("semantic", err)
				return
			}

			// Dedup against the recency window once it is available; an
			// unavailable window means the request is failing anyway.
			var window []memory.Turn
			select {
			case window = <-windowCh:
			case <-fanCtx.Done():
				degrade("semantic", fanCtx.Err())
				return
			}
			hits = vector.FilterWindow(hits, window)

			mu.Lock()
			syn.Semantic = hits
			mu.Unlock()

			if len(hits) == 0 || e.chain == nil {
				return
			}
			segment, err := e.chain.Neighborhood(fanCtx, sessionID, hits[0].TurnID, e.depthBefore, e.depthAfter)
			if err != nil {
				degrade("relational", err)
				return
			}
			mu.Lock()
			syn.Relational = segment
			mu.Unlock()
		}()
	}

	if e.summaries != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, ok, err := e.summaries.Get(fanCtx, sessionID)
			if err != nil {
				degrade("summary", err)
				return
			}
			if ok {
				mu.Lock()
				syn.Summary = text
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if recencyErr != nil {
		return nil, types.WrapError(types.ErrCodeRequiredTierUnavailable,
			"recency window fetch failed", recencyErr)
	}
	return syn, nil
}

// degradationError classifies an optional-source failure for logging:
// deadline overruns get a distinct code so operators can tell a slow tier
// from a broken one.
func degradationError(source string, err error) error {
	code := types.ErrCodeOptionalTierDegraded
	if errors.Is(err, context.DeadlineExceeded) {
		code = types.ErrCodeOptionalTierTimeout
	}
	return types.WrapError(code, source+" source unavailable", err)
}
