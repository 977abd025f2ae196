// Package config loads and validates the engine configuration from YAML
// files with environment variable interpolation.
package config

import (
	"time"

	"github.com/SRdeMora/quimera/internal/llm"
	"github.com/SRdeMora/quimera/internal/memory/embedder"
	"github.com/SRdeMora/quimera/internal/memory/graph"
	"github.com/SRdeMora/quimera/internal/memory/recency"
	"github.com/SRdeMora/quimera/internal/memory/summary"
	"github.com/SRdeMora/quimera/internal/memory/tone"
	"github.com/SRdeMora/quimera/internal/memory/vector"
	"github.com/SRdeMora/quimera/internal/observability"
)

// Config is the root configuration for the Quimera engine.
type Config struct {
	Server   ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Engine   EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Provider llm.Config      `mapstructure:"provider" yaml:"provider"`
	Embedder embedder.Config `mapstructure:"embedder" yaml:"embedder"`
	Recency  recency.Config  `mapstructure:"recency" yaml:"recency"`
	Tone     tone.Config     `mapstructure:"tone" yaml:"tone"`
	Vector   vector.Config   `mapstructure:"vector" yaml:"vector"`
	Graph    graph.Config    `mapstructure:"graph" yaml:"graph"`
	Summary  summary.Config  `mapstructure:"summary" yaml:"summary"`

	Observability observability.Config `mapstructure:"observability" yaml:"observability"`

	// Capabilities is the tool manifest announced at the end of every
	// instruction bundle, one "name: description" entry per tool.
	Capabilities []string `mapstructure:"capabilities" yaml:"capabilities"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`

	// Format selects the handler: "json" or "text".
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// EngineConfig holds the synthesis engine tunables: the classifier
// acceptance thresholds and the shared deadline for context fan-out.
type EngineConfig struct {
	// EmotionThreshold is the minimum confidence for an emotion verdict to
	// produce a tone directive.
	EmotionThreshold float64 `mapstructure:"emotion_threshold" yaml:"emotion_threshold" validate:"gte=0,lte=1"`

	// PolarityThreshold is the minimum confidence for a negative polarity
	// verdict to produce a tone directive.
	PolarityThreshold float64 `mapstructure:"polarity_threshold" yaml:"polarity_threshold" validate:"gte=0,lte=1"`

	// IntentThreshold is the minimum confidence for an intent verdict to
	// produce an intent directive.
	IntentThreshold float64 `mapstructure:"intent_threshold" yaml:"intent_threshold" validate:"gte=0,lte=1"`

	// FanoutTimeout is the shared deadline for the concurrent context
	// sources (semantic, relational, summary) on each request.
	FanoutTimeout time.Duration `mapstructure:"fanout_timeout" yaml:"fanout_timeout" validate:"gt=0"`

	// ScorerTimeout bounds each classifier ensemble run.
	ScorerTimeout time.Duration `mapstructure:"scorer_timeout" yaml:"scorer_timeout" validate:"gt=0"`
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			ListenAddr:      ":8420",
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			EmotionThreshold:  0.6,
			PolarityThreshold: 0.9,
			IntentThreshold:   0.7,
			FanoutTimeout:     3 * time.Second,
			ScorerTimeout:     2 * time.Second,
		},
	}
	cfg.Provider.ApplyDefaults()
	cfg.Embedder.ApplyDefaults()
	cfg.Recency.ApplyDefaults()
	cfg.Tone.ApplyDefaults()
	cfg.Vector.ApplyDefaults()
	cfg.Graph.ApplyDefaults()
	cfg.Summary.ApplyDefaults()
	cfg.Observability.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with default values.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = def.Server.ListenAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Engine.EmotionThreshold == 0 {
		c.Engine.EmotionThreshold = def.Engine.EmotionThreshold
	}
	if c.Engine.PolarityThreshold == 0 {
		c.Engine.PolarityThreshold = def.Engine.PolarityThreshold
	}
	if c.Engine.IntentThreshold == 0 {
		c.Engine.IntentThreshold = def.Engine.IntentThreshold
	}
	if c.Engine.FanoutTimeout == 0 {
		c.Engine.FanoutTimeout = def.Engine.FanoutTimeout
	}
	if c.Engine.ScorerTimeout == 0 {
		c.Engine.ScorerTimeout = def.Engine.ScorerTimeout
	}
	c.Provider.ApplyDefaults()
	c.Embedder.ApplyDefaults()
	c.Recency.ApplyDefaults()
	c.Tone.ApplyDefaults()
	c.Vector.ApplyDefaults()
	c.Graph.ApplyDefaults()
	c.Summary.ApplyDefaults()
	c.Observability.ApplyDefaults()
}
