package orchestrator

import (
	"context"

	"github.com/SRdeMora/quimera/internal/types"
)

// HealthChecker is any tier that can report its health.
type HealthChecker interface {
	Health(ctx context.Context) types.HealthStatus
}

// HealthReport aggregates per-tier health. Overall is unhealthy only when a
// required tier is down; optional-tier outages degrade it.
type HealthReport struct {
	Overall types.HealthStatus            `json:"overall"`
	Tiers   map[string]types.HealthStatus `json:"tiers"`
}

// HealthAggregator checks a set of named tiers.
type HealthAggregator struct {
	required map[string]HealthChecker
	optional map[string]HealthChecker
}

// NewHealthAggregator creates an empty aggregator.
func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		required: make(map[string]HealthChecker),
		optional: make(map[string]HealthChecker),
	}
}

// Required registers a tier whose outage makes the whole service unhealthy.
func (a *HealthAggregator) Required(name string, checker HealthChecker) *HealthAggregator {
	a.required[name] = checker
	return a
}

// Optional registers a tier whose outage only degrades the service.
func (a *HealthAggregator) Optional(name string, checker HealthChecker) *HealthAggregator {
	a.optional[name] = checker
	return a
}

// Check probes every registered tier.
func (a *HealthAggregator) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Overall: types.Healthy("all tiers operational"),
		Tiers:   make(map[string]types.HealthStatus),
	}

	for name, checker := range a.required {
		status := checker.Health(ctx)
		report.Tiers[name] = status
		if status.IsUnhealthy() {
			report.Overall = types.Unhealthy("required tier down: " + name)
		}
	}
	for name, checker := range a.optional {
		status := checker.Health(ctx)
		report.Tiers[name] = status
		if status.IsUnhealthy() && !report.Overall.IsUnhealthy() {
			report.Overall = types.Degraded("optional tier down: " + name)
		}
	}
	return report
}
