package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/engine"
	"github.com/SRdeMora/quimera/internal/llm"
	"github.com/SRdeMora/quimera/internal/memory/embedder"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/memory/recency"
	"github.com/SRdeMora/quimera/internal/memory/summary"
	"github.com/SRdeMora/quimera/internal/memory/tone"
	"github.com/SRdeMora/quimera/internal/memory/vector"
	"github.com/SRdeMora/quimera/internal/types"
)

type pipelineHarness struct {
	scorer       *directive.MockScorer
	recency      *recency.InMemoryStore
	store        *vector.EmbeddedStore
	chain        *graph.InMemoryChain
	provider     *llm.MockProvider
	orchestrator *Orchestrator
}

func newPipeline(t *testing.T, opts ...Option) *pipelineHarness {
	t.Helper()

	h := &pipelineHarness{
		scorer:   directive.NewMockScorer(),
		recency:  recency.NewInMemoryStore(20),
		store:    vector.NewEmbeddedStore(1536),
		chain:    graph.NewInMemoryChain(),
		provider: llm.NewMockProvider(),
	}
	recall := vector.NewRecall(h.store, embedder.NewMockEmbedder(), vector.Config{Backend: "embedded"})
	toneCache := tone.NewInMemoryCache()

	eng := engine.New(engine.Deps{
		Cascade:   directive.NewCascade(h.scorer, h.scorer, h.scorer),
		ToneCache: toneCache,
		Recency:   h.recency,
		Recall:    recall,
		Chain:     h.chain,
		Summaries: summary.NewInMemoryStore(),
	})
	persister := engine.NewPersister(h.recency, recall, h.chain, toneCache)
	h.orchestrator = New(eng, persister, h.provider, opts...)
	return h
}

func TestChat_FirstMessageBaseOnlyBundle(t *testing.T) {
	h := newPipeline(t)

	resp, err := h.orchestrator.Chat(context.Background(), ChatRequest{
		Message: "cuéntame algo interesante sobre los pulpos",
	})
	require.NoError(t, err)
	assert.True(t, resp.Directive.IsNone())

	requests := h.provider.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, engine.BasePrompt, requests[0].System,
		"a first message with no strong signal yields only the base role statement")
	require.Len(t, requests[0].Messages, 1)
	assert.Equal(t, "cuéntame algo interesante sobre los pulpos", requests[0].Messages[0].Content)
}

func TestChat_AssignsSessionIDWhenAbsent(t *testing.T) {
	h := newPipeline(t)

	resp, err := h.orchestrator.Chat(context.Background(), ChatRequest{Message: "hola, muy buenas tardes"})
	require.NoError(t, err)
	assert.False(t, resp.SessionID.IsZero())
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	h := newPipeline(t)

	_, err := h.orchestrator.Chat(context.Background(), ChatRequest{Message: "   "})
	assert.Error(t, err)
}

func TestChat_HistoryCarriedToProvider(t *testing.T) {
	h := newPipeline(t)
	ctx := context.Background()
	session := types.NewID()

	h.provider.SetReply("me llamo Quimera")
	_, err := h.orchestrator.Chat(ctx, ChatRequest{SessionID: session, Message: "hola, ¿cómo te llamas?"})
	require.NoError(t, err)

	_, err = h.orchestrator.Chat(ctx, ChatRequest{SessionID: session, Message: "¿y qué sabes hacer?"})
	require.NoError(t, err)

	requests := h.provider.Requests()
	require.Len(t, requests, 2)
	require.Len(t, requests[1].Messages, 3, "previous exchange plus current message")
	assert.Equal(t, llm.RoleUser, requests[1].Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, requests[1].Messages[1].Role)
	assert.Equal(t, "me llamo Quimera", requests[1].Messages[1].Content)
}

func TestChat_DirectiveSteersBundle(t *testing.T) {
	h := newPipeline(t)
	h.scorer.SetEmotion(directive.EmotionAnger, 0.8)

	resp, err := h.orchestrator.Chat(context.Background(), ChatRequest{
		Message: "estoy harto de que esto falle todo el rato",
	})
	require.NoError(t, err)
	assert.Equal(t, "tone:"+directive.EmotionAnger, resp.Directive.Kind())

	requests := h.provider.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].System, "empatía")
}

func TestChat_ProviderFailureLeavesTiersUntouched(t *testing.T) {
	h := newPipeline(t)
	h.provider.FailWith(errors.New("api down"))
	session := types.NewID()

	_, err := h.orchestrator.Chat(context.Background(), ChatRequest{
		SessionID: session, Message: "hola, buenas tardes",
	})
	require.Error(t, err)

	window, ferr := h.recency.Recent(context.Background(), session, 0)
	require.NoError(t, ferr)
	assert.Empty(t, window, "no write may happen without a generation result")
	assert.Equal(t, 0, h.chain.Len())
	assert.Equal(t, 0, h.store.Len())
}

func TestChat_CancellationBeforeGenerationPerformsNoWrites(t *testing.T) {
	h := newPipeline(t)
	session := types.NewID()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.orchestrator.Chat(ctx, ChatRequest{SessionID: session, Message: "hola, buenas"})
	require.Error(t, err)

	window, ferr := h.recency.Recent(context.Background(), session, 0)
	require.NoError(t, ferr)
	assert.Empty(t, window)
	assert.Equal(t, 0, h.chain.Len())
}

func TestChat_RequiredWriteFailureSurfaced(t *testing.T) {
	h := newPipeline(t)
	session := types.NewID()

	// Fail appends only: synthesis still reads the window, generation
	// succeeds, and then the required write cannot land.
	h.recency.FailAppend(errors.New("redis down"))

	_, err := h.orchestrator.Chat(context.Background(), ChatRequest{
		SessionID: session, Message: "guárdame esto que es importante",
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeTurnNotRecorded))
}

func TestChat_RecencyOutageAbortsBeforeGeneration(t *testing.T) {
	h := newPipeline(t)
	h.recency.FailFetch(errors.New("redis down"))

	_, err := h.orchestrator.Chat(context.Background(), ChatRequest{Message: "hola, buenas"})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeRequiredTierUnavailable))
	assert.Empty(t, h.provider.Requests(), "no generation call on a fatal tier outage")
}

func TestChat_CapabilityManifestPassedThrough(t *testing.T) {
	h := newPipeline(t, WithCapabilities([]string{"buscar_web: busca en internet"}))

	_, err := h.orchestrator.Chat(context.Background(), ChatRequest{Message: "hola, muy buenas"})
	require.NoError(t, err)

	requests := h.provider.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].System, "buscar_web")
}

func TestChat_TwentyFiveTurnsKeepLastTwenty(t *testing.T) {
	h := newPipeline(t)
	ctx := context.Background()
	session := types.NewID()

	// Recency capacity is 20 turns = 10 exchanges; run 25 user messages.
	for i := 1; i <= 25; i++ {
		h.provider.SetReply(fmt.Sprintf("respuesta %d", i))
		_, err := h.orchestrator.Chat(ctx, ChatRequest{
			SessionID: session,
			Message:   fmt.Sprintf("mensaje %d", i),
		})
		require.NoError(t, err)
	}

	window, err := h.recency.Recent(ctx, session, 20)
	require.NoError(t, err)
	require.Len(t, window, 20)

	// The oldest surviving turn is user message 16 (turns 1-30 evicted).
	assert.Equal(t, "mensaje 16", window[0].Text)
	assert.Equal(t, "respuesta 25", window[len(window)-1].Text)
	for i := 1; i < len(window); i++ {
		assert.Equal(t, window[i-1].SequenceIndex+1, window[i].SequenceIndex)
	}
}

type fixedHealth struct {
	status types.HealthStatus
}

func (f fixedHealth) Health(ctx context.Context) types.HealthStatus {
	return f.status
}

func TestHealthAggregator(t *testing.T) {
	up := fixedHealth{status: types.Healthy("ok")}
	down := fixedHealth{status: types.Unhealthy("connection refused")}

	t.Run("all healthy", func(t *testing.T) {
		report := NewHealthAggregator().
			Required("recency", up).
			Optional("relational", up).
			Check(context.Background())
		assert.True(t, report.Overall.IsHealthy())
		assert.Len(t, report.Tiers, 2)
	})

	t.Run("optional outage degrades", func(t *testing.T) {
		report := NewHealthAggregator().
			Required("recency", up).
			Optional("relational", down).
			Check(context.Background())
		assert.False(t, report.Overall.IsHealthy())
		assert.False(t, report.Overall.IsUnhealthy())
	})

	t.Run("required outage is fatal", func(t *testing.T) {
		report := NewHealthAggregator().
			Required("recency", down).
			Optional("relational", up).
			Check(context.Background())
		assert.True(t, report.Overall.IsUnhealthy())
		assert.Contains(t, report.Overall.Message, "recency")
	})
}
