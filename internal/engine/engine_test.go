package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/memory/embedder"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/memory/recency"
	"github.com/SRdeMora/quimera/internal/memory/summary"
	"github.com/SRdeMora/quimera/internal/memory/tone"
	"github.com/SRdeMora/quimera/internal/memory/vector"
	"github.com/SRdeMora/quimera/internal/types"
)

// testHarness bundles the in-memory tiers an Engine needs.
type testHarness struct {
	scorer    *directive.MockScorer
	toneCache *tone.InMemoryCache
	recency   *recency.InMemoryStore
	store     *vector.EmbeddedStore
	recall    *vector.Recall
	chain     *graph.InMemoryChain
	summaries *summary.InMemoryStore
	engine    *Engine
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		scorer:    directive.NewMockScorer(),
		toneCache: tone.NewInMemoryCache(),
		recency:   recency.NewInMemoryStore(20),
		store:     vector.NewEmbeddedStore(1536),
		chain:     graph.NewInMemoryChain(),
		summaries: summary.NewInMemoryStore(),
	}
	h.recall = vector.NewRecall(h.store, embedder.NewMockEmbedder(), vector.Config{
		Backend:       "embedded",
		TopK:          5,
		MinSimilarity: 0.6,
	})
	h.engine = New(Deps{
		Cascade:   directive.NewCascade(h.scorer, h.scorer, h.scorer),
		ToneCache: h.toneCache,
		Recency:   h.recency,
		Recall:    h.recall,
		Chain:     h.chain,
		Summaries: h.summaries,
	})
	return h
}

// seedExchange appends one user/assistant exchange to all tiers directly.
func (h *testHarness) seedExchange(t *testing.T, session types.ID, userText, assistantText string, prev types.ID) (memory.Turn, memory.Turn) {
	t.Helper()
	ctx := context.Background()

	userTurn, err := h.recency.Append(ctx, session, memory.NewTurn(session, memory.RoleUser, userText))
	require.NoError(t, err)
	assistantTurn, err := h.recency.Append(ctx, session, memory.NewTurn(session, memory.RoleAssistant, assistantText))
	require.NoError(t, err)

	require.NoError(t, h.recall.Insert(ctx, userTurn))
	require.NoError(t, h.recall.Insert(ctx, assistantTurn))
	require.NoError(t, h.chain.Record(ctx, userTurn, prev))
	require.NoError(t, h.chain.Record(ctx, assistantTurn, userTurn.ID))
	return userTurn, assistantTurn
}

func TestEngine_Synthesize_FirstMessageNoSignal(t *testing.T) {
	h := newHarness(t)
	session := types.NewID()

	syn, err := h.engine.Synthesize(context.Background(), session, "cuéntame algo sobre la historia de roma")
	require.NoError(t, err)

	assert.True(t, syn.Directive.IsNone())
	assert.Empty(t, syn.Window)
	assert.Empty(t, syn.Semantic)
	assert.Empty(t, syn.Relational)
	assert.Empty(t, syn.Summary)
	assert.Empty(t, syn.Degraded)
}

func TestEngine_Synthesize_RecencyFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.recency.FailFetch(errors.New("redis down"))

	_, err := h.engine.Synthesize(context.Background(), types.NewID(), "hola, necesito ayuda con algo")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeRequiredTierUnavailable))
}

func TestEngine_Synthesize_SemanticFailureDegrades(t *testing.T) {
	h := newHarness(t)
	h.store.FailQuery(errors.New("vector store down"))
	session := types.NewID()

	syn, err := h.engine.Synthesize(context.Background(), session, "qué me dijiste sobre el proyecto anterior")
	require.NoError(t, err)

	assert.Empty(t, syn.Semantic)
	assert.Contains(t, syn.Degraded, "semantic")
}

func TestEngine_Synthesize_RelationalSkippedWithoutSemanticHit(t *testing.T) {
	h := newHarness(t)
	h.chain.FailExpand(errors.New("neo4j down"))
	session := types.NewID()

	// The vector store is empty, so no semantic hit exists and the failing
	// relational tier must never be queried.
	syn, err := h.engine.Synthesize(context.Background(), session, "primera consulta de la sesión")
	require.NoError(t, err)

	assert.Empty(t, syn.Relational)
	assert.NotContains(t, syn.Degraded, "relational")
}

func TestEngine_Synthesize_RelationalExpandsAroundTopHit(t *testing.T) {
	h := newHarness(t)
	session := types.NewID()

	userTurn, assistantTurn := h.seedExchange(t, session,
		"estoy montando un invernadero automatizado",
		"suena interesante, cuéntame más", types.ID(""))

	// Drain the recency window so the semantic hits are not deduplicated
	// away (the seeded turns would otherwise be inside the window).
	h.recency.Reset(session)

	syn, err := h.engine.Synthesize(context.Background(), session,
		"estoy montando un invernadero automatizado")
	require.NoError(t, err)

	require.NotEmpty(t, syn.Semantic, "identical text must be a semantic hit")
	assert.Equal(t, userTurn.ID, syn.Semantic[0].TurnID)

	require.NotEmpty(t, syn.Relational)
	assert.Equal(t, userTurn.ID, syn.Relational[0].TurnID)
	assert.Equal(t, assistantTurn.ID, syn.Relational[1].TurnID)
}

func TestEngine_Synthesize_RelationalFailureDegrades(t *testing.T) {
	// A failed chain read with a live semantic hit must surface as a
	// degraded relational tier, not as an empty neighborhood.
	h := newHarness(t)
	session := types.NewID()

	h.seedExchange(t, session,
		"estoy montando un invernadero automatizado",
		"suena interesante, cuéntame más", types.ID(""))
	h.recency.Reset(session)
	h.chain.FailExpand(errors.New("bolt connection reset"))

	syn, err := h.engine.Synthesize(context.Background(), session,
		"estoy montando un invernadero automatizado")
	require.NoError(t, err)

	require.NotEmpty(t, syn.Semantic)
	assert.Empty(t, syn.Relational)
	assert.Contains(t, syn.Degraded, "relational")
}

func TestEngine_Synthesize_SemanticDedupAgainstWindow(t *testing.T) {
	h := newHarness(t)
	session := types.NewID()

	h.seedExchange(t, session,
		"estoy montando un invernadero automatizado",
		"suena interesante, cuéntame más", types.ID(""))

	// Both seeded turns are inside the recency window, so every semantic
	// hit is redundant and must be deduplicated out.
	syn, err := h.engine.Synthesize(context.Background(), session,
		"estoy montando un invernadero automatizado")
	require.NoError(t, err)

	assert.Len(t, syn.Window, 2)
	assert.Empty(t, syn.Semantic)
	assert.Empty(t, syn.Relational)
}

func TestEngine_Synthesize_CarryoverAppliedWhenCurrentSignalAbsent(t *testing.T) {
	h := newHarness(t)
	session := types.NewID()
	ctx := context.Background()

	cached := directive.Tone(directive.EmotionAnger, 0.8, directive.StageEnsemble)
	require.NoError(t, h.toneCache.Set(ctx, session, cached, 900*time.Second))

	syn, err := h.engine.Synthesize(ctx, session, "vale, entiendo lo que me dices sobre eso")
	require.NoError(t, err)

	assert.Equal(t, directive.TypeTone, syn.Directive.Type)
	assert.Equal(t, directive.EmotionAnger, syn.Directive.Label)
	assert.Equal(t, directive.StageCarryover, syn.Directive.SourceStage)
}

func TestEngine_Synthesize_CurrentSignalOverridesCarryover(t *testing.T) {
	h := newHarness(t)
	session := types.NewID()
	ctx := context.Background()

	require.NoError(t, h.toneCache.Set(ctx, session,
		directive.Tone(directive.EmotionAnger, 0.8, directive.StageEnsemble), 900*time.Second))
	h.scorer.SetEmotion(directive.EmotionJoy, 0.9)

	syn, err := h.engine.Synthesize(ctx, session, "me ha salido genial el experimento de hoy")
	require.NoError(t, err)

	assert.Equal(t, directive.EmotionJoy, syn.Directive.Label)
	assert.NotEqual(t, directive.StageCarryover, syn.Directive.SourceStage)
}

func TestEngine_Synthesize_SummaryIncluded(t *testing.T) {
	h := newHarness(t)
	session := types.NewID()
	ctx := context.Background()

	require.NoError(t, h.summaries.Set(ctx, session, "el usuario construye un invernadero"))

	syn, err := h.engine.Synthesize(ctx, session, "seguimos con lo de ayer entonces")
	require.NoError(t, err)
	assert.Equal(t, "el usuario construye un invernadero", syn.Summary)
}

func TestEngine_Synthesize_SummaryFailureDegrades(t *testing.T) {
	h := newHarness(t)
	h.summaries.FailGet(errors.New("disk error"))

	syn, err := h.engine.Synthesize(context.Background(), types.NewID(), "seguimos con lo de ayer entonces")
	require.NoError(t, err)

	assert.Empty(t, syn.Summary)
	assert.Contains(t, syn.Degraded, "summary")
}

func TestDegradationErrorClassification(t *testing.T) {
	slow := degradationError("semantic", context.DeadlineExceeded)
	assert.True(t, types.IsCode(slow, types.ErrCodeOptionalTierTimeout))

	broken := degradationError("relational", errors.New("bolt connection reset"))
	assert.True(t, types.IsCode(broken, types.ErrCodeOptionalTierDegraded))
	assert.False(t, types.IsCode(broken, types.ErrCodeOptionalTierTimeout))
}
