package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SRdeMora/quimera/internal/config"
	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/engine"
	"github.com/SRdeMora/quimera/internal/httpapi"
	"github.com/SRdeMora/quimera/internal/llm"
	"github.com/SRdeMora/quimera/internal/memory/embedder"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/memory/recency"
	"github.com/SRdeMora/quimera/internal/memory/summary"
	"github.com/SRdeMora/quimera/internal/memory/tone"
	"github.com/SRdeMora/quimera/internal/memory/vector"
	"github.com/SRdeMora/quimera/internal/observability"
	"github.com/SRdeMora/quimera/internal/orchestrator"
)

var ephemeral bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the chat API server. By default the memory tiers connect to
their backing services (Redis, SQLite, Neo4j) and generation goes through
the configured provider. With --ephemeral everything runs in-process with a
mock provider, useful for local development without external services.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&ephemeral, "ephemeral", false,
		"Run with in-memory tiers and a mock provider (no external services)")
}

// tiers bundles the constructed memory and generation backends.
type tiers struct {
	recency   recency.Store
	toneCache tone.Cache
	vectors   vector.Store
	embed     embedder.Embedder
	chain     graph.Chain
	summaries summary.Store
	provider  llm.Provider

	emotion  directive.EmotionScorer
	polarity directive.PolarityScorer
	intent   directive.IntentScorer
}

func (t *tiers) close(logger *slog.Logger) {
	closers := map[string]func() error{
		"recency":    t.recency.Close,
		"tone cache": t.toneCache.Close,
		"vectors":    t.vectors.Close,
		"summaries":  t.summaries.Close,
	}
	for name, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("tier close failed", "tier", name, "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.chain.Close(ctx); err != nil {
		logger.Warn("tier close failed", "tier", "chain", "error", err)
	}
}

func buildTiers(ctx context.Context, cfg *config.Config) (*tiers, error) {
	if ephemeral {
		scorer := directive.NewMockScorer()
		return &tiers{
			recency:   recency.NewInMemoryStore(cfg.Recency.Capacity),
			toneCache: tone.NewInMemoryCache(),
			vectors:   vector.NewEmbeddedStore(cfg.Vector.Dimensions),
			embed:     embedder.NewMockEmbedderWithDimensions(cfg.Vector.Dimensions),
			chain:     graph.NewInMemoryChain(),
			summaries: summary.NewInMemoryStore(),
			provider:  llm.NewMockProvider(),
			emotion:   scorer,
			polarity:  scorer,
			intent:    scorer,
		}, nil
	}

	t := &tiers{}

	var err error
	if t.recency, err = recency.NewRedisStore(cfg.Recency); err != nil {
		return nil, fmt.Errorf("recency store: %w", err)
	}
	if t.toneCache, err = tone.NewRedisCache(cfg.Tone); err != nil {
		return nil, fmt.Errorf("tone cache: %w", err)
	}
	if t.vectors, err = vector.New(cfg.Vector); err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	if t.embed, err = embedder.New(cfg.Embedder); err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if t.chain, err = graph.NewNeo4jChain(ctx, cfg.Graph); err != nil {
		return nil, fmt.Errorf("graph chain: %w", err)
	}
	if t.summaries, err = summary.NewSqliteStore(cfg.Summary); err != nil {
		return nil, fmt.Errorf("summary store: %w", err)
	}
	if t.provider, err = llm.New(cfg.Provider); err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	// The classifier ensemble shares the generation provider's model when it
	// exposes one; otherwise it degrades to heuristics only.
	if p, ok := t.provider.(*llm.OpenAIProvider); ok {
		scorer := directive.NewLLMScorer(p.Model())
		t.emotion, t.polarity, t.intent = scorer, scorer, scorer
	} else {
		scorer := directive.NewMockScorer()
		t.emotion, t.polarity, t.intent = scorer, scorer, scorer
	}

	return t, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	loader := config.NewLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(logger)

	tracerProvider, err := observability.InitTracing(ctx, cfg.Observability.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownTracing(shutdownCtx, tracerProvider); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	meterProvider, err := observability.InitMetrics(ctx, cfg.Observability.Metrics)
	if err != nil {
		return err
	}
	metrics := observability.NewRecorder(meterProvider.Meter("quimera"))

	t, err := buildTiers(ctx, cfg)
	if err != nil {
		return err
	}
	defer t.close(logger)

	recall := vector.NewRecall(t.vectors, t.embed, cfg.Vector)

	cascade := directive.NewCascade(t.emotion, t.polarity, t.intent,
		directive.WithThresholds(directive.Thresholds{
			Emotion:  cfg.Engine.EmotionThreshold,
			Polarity: cfg.Engine.PolarityThreshold,
			Intent:   cfg.Engine.IntentThreshold,
		}),
		directive.WithScorerTimeout(cfg.Engine.ScorerTimeout),
		directive.WithLogger(logger),
	)

	eng := engine.New(engine.Deps{
		Cascade:   cascade,
		ToneCache: t.toneCache,
		Recency:   t.recency,
		Recall:    recall,
		Chain:     t.chain,
		Summaries: t.summaries,
	},
		engine.WithLogger(logger),
		engine.WithFanoutTimeout(cfg.Engine.FanoutTimeout),
		engine.WithExpansionDepths(cfg.Graph.DepthBefore, cfg.Graph.DepthAfter),
	)

	persister := engine.NewPersister(t.recency, recall, t.chain, t.toneCache,
		engine.WithPersisterLogger(logger),
		engine.WithToneTTL(cfg.Tone.TTL),
	)

	orch := orchestrator.New(eng, persister, t.provider,
		orchestrator.WithCapabilities(cfg.Capabilities),
		orchestrator.WithLogger(logger),
	)

	chatter := observability.NewTracedChatter(orch,
		observability.WithTracer(tracerProvider.Tracer("quimera")),
		observability.WithMetrics(metrics),
		observability.WithChatterLogger(logger),
	)

	health := orchestrator.NewHealthAggregator().
		Required("recency", t.recency).
		Optional("semantic", t.vectors).
		Optional("relational", t.chain).
		Optional("summary", t.summaries).
		Optional("provider", t.provider)

	api := httpapi.New(chatter, health, logger)

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			"addr", cfg.Server.ListenAddr,
			"ephemeral", ephemeral)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
