package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/SRdeMora/quimera/internal/directive"
	"github.com/SRdeMora/quimera/internal/orchestrator"
	"github.com/SRdeMora/quimera/internal/types"
)

type stubChatter struct {
	resp *orchestrator.ChatResponse
	err  error
}

func (s *stubChatter) Chat(ctx context.Context, req orchestrator.ChatRequest) (*orchestrator.ChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracedChatter_RecordsTurnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	session := types.NewID()
	inner := &stubChatter{resp: &orchestrator.ChatResponse{
		SessionID: session,
		Reply:     "hola",
		Directive: directive.Tone(directive.EmotionAnger, 0.8, directive.StageEnsemble),
		Degraded:  []string{"semantic"},
	}}

	traced := NewTracedChatter(inner, WithTracer(tp.Tracer("test")))
	resp, err := traced.Chat(context.Background(), orchestrator.ChatRequest{
		SessionID: session,
		Message:   "esto no funciona nunca",
	})
	require.NoError(t, err)
	assert.Equal(t, "hola", resp.Reply)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, SpanTurn, span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	kind, ok := spanAttr(span, AttrDirectiveKind)
	require.True(t, ok)
	assert.Equal(t, "tone:ira", kind.AsString())

	degraded, ok := spanAttr(span, AttrDegradedTiers)
	require.True(t, ok)
	assert.Equal(t, []string{"semantic"}, degraded.AsStringSlice())

	msg, ok := spanAttr(span, AttrUserMessage)
	require.True(t, ok)
	assert.Equal(t, "esto no funciona nunca", msg.AsString())
}

func TestTracedChatter_MessageCaptureDisabled(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	inner := &stubChatter{resp: &orchestrator.ChatResponse{
		SessionID: types.NewID(),
		Directive: directive.None(),
	}}

	traced := NewTracedChatter(inner,
		WithTracer(tp.Tracer("test")),
		WithMessageCapture(false),
	)
	_, err := traced.Chat(context.Background(), orchestrator.ChatRequest{Message: "texto sensible"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	_, ok := spanAttr(spans[0], AttrUserMessage)
	assert.False(t, ok, "user message must not be captured")
}

func TestTracedChatter_ErrorMarksSpanAndMetrics(t *testing.T) {
	spanRec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRec))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics := NewRecorder(mp.Meter("quimera-test"))

	inner := &stubChatter{err: errors.New("provider down")}
	traced := NewTracedChatter(inner,
		WithTracer(tp.Tracer("test")),
		WithMetrics(metrics),
	)

	_, err := traced.Chat(context.Background(), orchestrator.ChatRequest{Message: "hola"})
	require.Error(t, err)

	spans := spanRec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var foundErrorTurn bool
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != MetricTurns {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if status, ok := dp.Attributes.Value("status"); ok && status.AsString() == "error" {
					foundErrorTurn = dp.Value == 1
				}
			}
		}
	}
	assert.True(t, foundErrorTurn, "error turn counter must be recorded")
}

func TestTracedChatter_DegradedTurnCountsPerSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics := NewRecorder(mp.Meter("quimera-test"))

	inner := &stubChatter{resp: &orchestrator.ChatResponse{
		SessionID: types.NewID(),
		Directive: directive.None(),
		Degraded:  []string{"semantic", "summary"},
	}}
	traced := NewTracedChatter(inner, WithMetrics(metrics))

	_, err := traced.Chat(context.Background(), orchestrator.ChatRequest{Message: "hola"})
	require.NoError(t, err)

	found := collect(t, reader)
	degradations, ok := found[MetricTierDegradations].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, degradations.DataPoints, 2)
}

func TestTracedChatter_LogsCarryTraceIDs(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	inner := &stubChatter{resp: &orchestrator.ChatResponse{
		SessionID: types.NewID(),
		Reply:     "hola",
		Directive: directive.None(),
	}}
	traced := NewTracedChatter(inner,
		WithTracer(tp.Tracer("test")),
		WithChatterLogger(logger),
	)

	_, err := traced.Chat(context.Background(), orchestrator.ChatRequest{Message: "hola"})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "turn completed", line["msg"])
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), line["trace_id"])
	assert.Equal(t, spans[0].SpanContext().SpanID().String(), line["span_id"])
}

func TestWithTraceContext_NoSpanPassthrough(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithTraceContext(context.Background(), logger).Info("sin traza")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, hasTrace := line["trace_id"]
	assert.False(t, hasTrace)
}
