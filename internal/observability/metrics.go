package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metric name constants. Centralized so dashboards and alerts agree with the
// code on spelling.
const (
	// Turn pipeline metrics
	MetricTurns       = "quimera.turns"
	MetricTurnLatency = "quimera.turn.latency"

	// Directive cascade metrics
	MetricDirectiveInferences = "quimera.directive.inferences"

	// Memory tier metrics
	MetricTierDegradations = "quimera.tier.degradations"

	// LLM completion metrics
	MetricLLMCompletions = "quimera.llm.completions"
	MetricLLMLatency     = "quimera.llm.latency"
)

// InitMetrics initializes a meter provider for the configured backend.
//
// The "prometheus" provider registers an exporter with the default
// Prometheus registry; metrics are then served by the /metrics endpoint and
// scraped. No explicit shutdown is needed for it.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		return noop.NewMeterProvider(), nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapObservabilityError(ErrCodeMetricsInitFailed, "invalid metrics config", err)
	}

	switch strings.ToLower(cfg.Provider) {
	case "noop":
		return noop.NewMeterProvider(), nil

	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return nil, WrapObservabilityError(ErrCodeMetricsInitFailed, "failed to create prometheus exporter", err)
		}
		return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)), nil

	default:
		return nil, NewObservabilityError(ErrCodeMetricsInitFailed,
			fmt.Sprintf("unsupported metrics provider: %s", cfg.Provider))
	}
}

// Recorder records turn pipeline metrics through an OpenTelemetry meter.
// Instruments are created lazily on first use and cached. Safe for
// concurrent use.
type Recorder struct {
	meter      metric.Meter
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
	mu         sync.RWMutex
}

// NewRecorder creates a metrics recorder backed by the given meter.
func NewRecorder(meter metric.Meter) *Recorder {
	return &Recorder{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

// RecordCounter increments a counter metric by the given value.
func (r *Recorder) RecordCounter(name string, value int64, labels map[string]string) {
	counter := r.getOrCreateCounter(name)
	if counter == nil {
		return
	}

	counter.Add(context.Background(), value, metric.WithAttributes(labelsToAttributes(labels)...))
}

// RecordHistogram records a value in a histogram metric.
func (r *Recorder) RecordHistogram(name string, value float64, labels map[string]string) {
	histogram := r.getOrCreateHistogram(name)
	if histogram == nil {
		return
	}

	histogram.Record(context.Background(), value, metric.WithAttributes(labelsToAttributes(labels)...))
}

// RecordTurn records one completed chat turn.
//
// Recorded metrics:
//   - quimera.turns (counter): total turns by status
//   - quimera.turn.latency (histogram): end-to-end turn latency in ms
func (r *Recorder) RecordTurn(status string, latencyMs float64) {
	labels := map[string]string{"status": status}

	r.RecordCounter(MetricTurns, 1, labels)
	r.RecordHistogram(MetricTurnLatency, latencyMs, labels)
}

// RecordDirective records one directive inference outcome, labeled by the
// cascade stage that resolved it and the directive kind.
func (r *Recorder) RecordDirective(stage, kind string) {
	r.RecordCounter(MetricDirectiveInferences, 1, map[string]string{
		"stage": stage,
		"kind":  kind,
	})
}

// RecordDegradation records one optional-tier degradation by source name.
func (r *Recorder) RecordDegradation(source string) {
	r.RecordCounter(MetricTierDegradations, 1, map[string]string{
		"source": source,
	})
}

// RecordCompletion records one LLM generation call.
func (r *Recorder) RecordCompletion(provider, model, status string, latencyMs float64) {
	labels := map[string]string{
		"provider": provider,
		"model":    model,
		"status":   status,
	}

	r.RecordCounter(MetricLLMCompletions, 1, labels)
	r.RecordHistogram(MetricLLMLatency, latencyMs, labels)
}

func (r *Recorder) getOrCreateCounter(name string) metric.Int64Counter {
	r.mu.RLock()
	counter, exists := r.counters[name]
	r.mu.RUnlock()
	if exists {
		return counter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if counter, exists := r.counters[name]; exists {
		return counter
	}

	counter, err := r.meter.Int64Counter(name)
	if err != nil {
		return nil
	}

	r.counters[name] = counter
	return counter
}

func (r *Recorder) getOrCreateHistogram(name string) metric.Float64Histogram {
	r.mu.RLock()
	histogram, exists := r.histograms[name]
	r.mu.RUnlock()
	if exists {
		return histogram
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if histogram, exists := r.histograms[name]; exists {
		return histogram
	}

	histogram, err := r.meter.Float64Histogram(name)
	if err != nil {
		return nil
	}

	r.histograms[name] = histogram
	return histogram
}

func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}
