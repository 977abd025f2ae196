// Package orchestrator drives the turn pipeline: synthesize context,
// assemble the instruction bundle, call the generation provider, and commit
// the completed exchange back into the memory tiers.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/engine"
	"github.com/SRdeMora/quimera/internal/llm"
	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/types"
)

// ChatRequest is one inbound user message.
type ChatRequest struct {
	SessionID types.ID `json:"session_id"`
	Message   string   `json:"message"`
}

// ChatResponse is the generated reply plus what steered it.
type ChatResponse struct {
	SessionID types.ID            `json:"session_id"`
	Reply     string              `json:"reply"`
	Directive directive.Directive `json:"directive"`
	Degraded  []string            `json:"degraded,omitempty"`
}

// Orchestrator owns one turn pipeline end to end.
type Orchestrator struct {
	engine       *engine.Engine
	persister    *engine.Persister
	provider     llm.Provider
	capabilities []string
	logger       *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCapabilities sets the capability manifest appended to every bundle.
func WithCapabilities(capabilities []string) Option {
	return func(o *Orchestrator) {
		o.capabilities = capabilities
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger.With("component", "orchestrator")
	}
}

// New creates an Orchestrator.
func New(eng *engine.Engine, persister *engine.Persister, provider llm.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:    eng,
		persister: persister,
		provider:  provider,
		logger:    slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chat handles one user message. Nothing is written before the generation
// call succeeds: a cancellation or provider failure leaves every tier
// untouched. A failed required write after generation surfaces as
// TURN_NOT_RECORDED so the caller knows the turn is not durable.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, memory.NewInvalidTurnError("message cannot be empty")
	}
	sessionID := req.SessionID
	if sessionID.IsZero() {
		sessionID = types.NewID()
	}

	syn, err := o.engine.Synthesize(ctx, sessionID, req.Message)
	if err != nil {
		return nil, err
	}

	bundle := engine.Assemble(syn, o.capabilities)

	// Cancellation before generation must not reach the writers.
	if err := ctx.Err(); err != nil {
		return nil, types.WrapError(types.ErrCodeProviderCallFailed,
			"request cancelled before generation", err)
	}

	completion, err := o.provider.Complete(ctx, llm.CompletionRequest{
		System:   bundle.System(),
		Messages: historyMessages(syn.Window, req.Message),
	})
	if err != nil {
		return nil, err
	}

	result, err := o.persister.Commit(ctx, sessionID, req.Message, completion.Content, syn.Directive)
	if err != nil {
		return nil, err
	}

	degraded := append(append([]string(nil), syn.Degraded...), result.Degraded...)
	o.logger.Info("turn completed",
		"session_id", sessionID,
		"directive", syn.Directive.Kind(),
		"source_stage", syn.Directive.SourceStage,
		"semantic_hits", len(syn.Semantic),
		"degraded", degraded)

	return &ChatResponse{
		SessionID: sessionID,
		Reply:     completion.Content,
		Directive: syn.Directive,
		Degraded:  degraded,
	}, nil
}

// historyMessages renders the recency window plus the current message as
// the provider conversation.
func historyMessages(window []memory.Turn, current string) []llm.Message {
	messages := make([]llm.Message, 0, len(window)+1)
	for _, turn := range window {
		role := llm.RoleUser
		if turn.Role == memory.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: current})
}
