// Package observability provides distributed tracing and metrics for the
// turn pipeline: OpenTelemetry span instrumentation around chat turns and a
// Prometheus-backed recorder for turn, tier, and completion metrics.
package observability

import (
	"fmt"
	"strings"
)

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Provider    string  `mapstructure:"provider" yaml:"provider" json:"provider"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name" json:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate" json:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure" json:"insecure"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *TracingConfig) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "noop"
	}
	if c.ServiceName == "" {
		c.ServiceName = "quimera"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate checks the tracing configuration. Disabled tracing always
// validates.
func (c *TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	provider := strings.ToLower(c.Provider)
	switch provider {
	case "otlp", "noop":
	default:
		return fmt.Errorf("invalid tracing provider: %s (must be one of: otlp, noop)", c.Provider)
	}

	if c.SampleRate < 0.0 || c.SampleRate > 1.0 {
		return fmt.Errorf("invalid sample rate: %f (must be between 0.0 and 1.0)", c.SampleRate)
	}

	if provider == "otlp" && c.Endpoint == "" {
		return fmt.Errorf("endpoint is required for the otlp tracing provider")
	}

	return nil
}

// MetricsConfig contains metrics export configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *MetricsConfig) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "prometheus"
	}
}

// Validate checks the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch strings.ToLower(c.Provider) {
	case "prometheus", "noop":
	default:
		return fmt.Errorf("invalid metrics provider: %s (must be one of: prometheus, noop)", c.Provider)
	}

	return nil
}

// Config groups the observability sub-configurations.
type Config struct {
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	c.Tracing.ApplyDefaults()
	c.Metrics.ApplyDefaults()
}

// Validate checks both sub-configurations.
func (c *Config) Validate() error {
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}
