package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/SRdeMora/quimera/internal/orchestrator"
)

// Span and attribute name constants for turn tracing.
const (
	SpanTurn = "quimera.turn"

	AttrSessionID      = "quimera.session.id"
	AttrDirectiveKind  = "quimera.directive.kind"
	AttrDirectiveStage = "quimera.directive.stage"
	AttrDegradedTiers  = "quimera.degraded.tiers"
	AttrUserMessage    = "quimera.turn.user_message"
)

// Chatter is the turn pipeline surface the traced wrapper decorates.
type Chatter interface {
	Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error)
}

// TracedChatter wraps a Chatter with OpenTelemetry tracing and turn metrics.
// Each Chat call becomes a "quimera.turn" span carrying the session, the
// inferred directive, and any degraded tiers; the recorder counts turns,
// directive stages, and degradations.
type TracedChatter struct {
	inner          Chatter
	tracer         trace.Tracer
	metrics        *Recorder
	logger         *slog.Logger
	captureMessage bool
}

// TracedOption configures a TracedChatter.
type TracedOption func(*TracedChatter)

// WithTracer sets the tracer used for turn spans.
func WithTracer(tracer trace.Tracer) TracedOption {
	return func(t *TracedChatter) {
		t.tracer = tracer
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *Recorder) TracedOption {
	return func(t *TracedChatter) {
		t.metrics = metrics
	}
}

// WithChatterLogger makes the wrapper log each turn's outcome. Log lines
// carry the active span's trace and span IDs so they can be joined to the
// turn trace.
func WithChatterLogger(logger *slog.Logger) TracedOption {
	return func(t *TracedChatter) {
		t.logger = logger
	}
}

// WithMessageCapture controls whether user message text is recorded on turn
// spans. Disable when handling sensitive conversations.
func WithMessageCapture(capture bool) TracedOption {
	return func(t *TracedChatter) {
		t.captureMessage = capture
	}
}

// NewTracedChatter wraps inner with tracing. Without options it uses a noop
// tracer and records no metrics.
func NewTracedChatter(inner Chatter, opts ...TracedOption) *TracedChatter {
	t := &TracedChatter{
		inner:          inner,
		tracer:         tracenoop.NewTracerProvider().Tracer("quimera"),
		captureMessage: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Chat runs one traced turn through the wrapped pipeline.
func (t *TracedChatter) Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error) {
	ctx, span := t.tracer.Start(ctx, SpanTurn)
	defer span.End()

	if !req.SessionID.IsZero() {
		span.SetAttributes(attribute.String(AttrSessionID, req.SessionID.String()))
	}
	if t.captureMessage {
		span.SetAttributes(attribute.String(AttrUserMessage, req.Message))
	}

	start := time.Now()
	resp, err := t.inner.Chat(ctx, req)
	latencyMs := float64(time.Since(start).Milliseconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if t.metrics != nil {
			t.metrics.RecordTurn("error", latencyMs)
		}
		if t.logger != nil {
			WithTraceContext(ctx, t.logger).Error("turn failed",
				"session_id", req.SessionID,
				"latency_ms", latencyMs,
				"error", err)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String(AttrSessionID, resp.SessionID.String()),
		attribute.String(AttrDirectiveKind, resp.Directive.Kind()),
		attribute.String(AttrDirectiveStage, string(resp.Directive.SourceStage)),
	)
	if len(resp.Degraded) > 0 {
		span.SetAttributes(attribute.StringSlice(AttrDegradedTiers, resp.Degraded))
	}
	span.SetStatus(codes.Ok, "turn completed")

	if t.metrics != nil {
		status := "success"
		if len(resp.Degraded) > 0 {
			status = "degraded"
		}
		t.metrics.RecordTurn(status, latencyMs)
		t.metrics.RecordDirective(string(resp.Directive.SourceStage), resp.Directive.Kind())
		for _, source := range resp.Degraded {
			t.metrics.RecordDegradation(source)
		}
	}

	if t.logger != nil {
		WithTraceContext(ctx, t.logger).Info("turn completed",
			"session_id", resp.SessionID,
			"directive", resp.Directive.Kind(),
			"degraded", resp.Degraded,
			"latency_ms", latencyMs)
	}

	return resp, nil
}
