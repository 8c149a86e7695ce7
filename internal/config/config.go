// Package config loads pcbtrace settings from an optional YAML file and
// PCBTRACE_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/logging"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/observability"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// Config is the full runtime configuration of the pcbtrace binary.
type Config struct {
	// Board is the path of the board JSON file. Usually given with --board.
	Board   string        `mapstructure:"board"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Stackup StackupConfig `mapstructure:"stackup"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// EngineConfig mirrors core.EngineConfig. Distances are in mils.
type EngineConfig struct {
	ConnectTolerance  float64 `mapstructure:"connect_tolerance"`
	RoundingPrecision int     `mapstructure:"rounding_precision"`
	ArcSegments       int     `mapstructure:"arc_segments"`
	BufferFactor      float64 `mapstructure:"buffer_factor"`
	JumperDistance    float64 `mapstructure:"jumper_distance"`
	DefaultTrackWidth float64 `mapstructure:"default_track_width"`
}

// StackupConfig lists the board layers. An empty list selects the default
// 7-layer stackup.
type StackupConfig struct {
	Layers []model.PCBLayer `mapstructure:"layers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Validate checks ranges after defaults have been applied.
func (c *Config) Validate() error {
	e := c.Engine
	if e.ConnectTolerance <= 0 {
		return fmt.Errorf("config: engine.connect_tolerance must be > 0, got %v", e.ConnectTolerance)
	}
	if e.RoundingPrecision < 0 || e.RoundingPrecision > 9 {
		return fmt.Errorf("config: engine.rounding_precision %d is out of range [0, 9]", e.RoundingPrecision)
	}
	if e.ArcSegments < 1 {
		return fmt.Errorf("config: engine.arc_segments must be >= 1, got %d", e.ArcSegments)
	}
	if e.BufferFactor <= 0 {
		return fmt.Errorf("config: engine.buffer_factor must be > 0, got %v", e.BufferFactor)
	}
	if e.JumperDistance <= 0 {
		return fmt.Errorf("config: engine.jumper_distance must be > 0, got %v", e.JumperDistance)
	}
	if e.DefaultTrackWidth <= 0 {
		return fmt.Errorf("config: engine.default_track_width must be > 0, got %v", e.DefaultTrackWidth)
	}

	seen := make(map[int]bool, len(c.Stackup.Layers))
	for i, l := range c.Stackup.Layers {
		if l.Number < 1 {
			return fmt.Errorf("config: stackup.layers[%d].layer_number must be >= 1, got %d", i, l.Number)
		}
		if seen[l.Number] {
			return fmt.Errorf("config: stackup.layers[%d] repeats layer_number %d", i, l.Number)
		}
		seen[l.Number] = true
		if !l.IsCopper() && l.DielectricConstant <= 0 {
			return fmt.Errorf("config: stackup.layers[%d] (%s) needs a dielectric_constant", i, l.Name)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected text|json", c.Log.Format)
	}

	switch strings.ToLower(c.Tracing.Exporter) {
	case "stdout", "otlp", "otlpgrpc":
	default:
		return fmt.Errorf("config: tracing.exporter %q is invalid; expected stdout|otlp", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("config: tracing.sample_ratio %v is out of range [0, 1]", c.Tracing.SampleRatio)
	}
	return nil
}

// EngineConfig converts the engine section for core.NewTraceService.
func (c *Config) EngineConfig() core.EngineConfig {
	return core.EngineConfig{
		ConnectTolerance:  c.Engine.ConnectTolerance,
		RoundingPrecision: c.Engine.RoundingPrecision,
		ArcSegments:       c.Engine.ArcSegments,
		BufferFactor:      c.Engine.BufferFactor,
		JumperDistance:    c.Engine.JumperDistance,
		DefaultTrackWidth: c.Engine.DefaultTrackWidth,
	}
}

// StackupModel builds the layer stackup, falling back to the default board.
func (c *Config) StackupModel() *model.Stackup {
	if len(c.Stackup.Layers) == 0 {
		return model.DefaultStackup()
	}
	return model.NewStackup(c.Stackup.Layers)
}

func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

func (c *Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    strings.ToLower(c.Tracing.Exporter),
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
