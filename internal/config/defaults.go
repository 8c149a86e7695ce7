package config

import (
	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/internal/observability"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultMetricsAddr = ":9464"

	DefaultTracingExporter    = "stdout"
	DefaultTracingSampleRatio = 1.0
)

// setDefaults registers every scalar key with viper so PCBTRACE_* variables
// resolve even when no config file mentions the key.
func setDefaults(v *viper.Viper) {
	e := core.DefaultEngineConfig()
	v.SetDefault("board", "")
	v.SetDefault("engine.connect_tolerance", e.ConnectTolerance)
	v.SetDefault("engine.rounding_precision", e.RoundingPrecision)
	v.SetDefault("engine.arc_segments", e.ArcSegments)
	v.SetDefault("engine.buffer_factor", e.BufferFactor)
	v.SetDefault("engine.jumper_distance", e.JumperDistance)
	v.SetDefault("engine.default_track_width", e.DefaultTrackWidth)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("metrics.addr", DefaultMetricsAddr)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", DefaultTracingExporter)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", observability.DefaultTracingServiceName)
	v.SetDefault("tracing.sample_ratio", DefaultTracingSampleRatio)
}

// ApplyDefaults fills zero-value fields of cfg. Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	e := core.DefaultEngineConfig()
	if cfg.Engine.ConnectTolerance == 0 {
		cfg.Engine.ConnectTolerance = e.ConnectTolerance
	}
	if cfg.Engine.ArcSegments == 0 {
		cfg.Engine.ArcSegments = e.ArcSegments
	}
	if cfg.Engine.BufferFactor == 0 {
		cfg.Engine.BufferFactor = e.BufferFactor
	}
	if cfg.Engine.JumperDistance == 0 {
		cfg.Engine.JumperDistance = e.JumperDistance
	}
	if cfg.Engine.DefaultTrackWidth == 0 {
		cfg.Engine.DefaultTrackWidth = e.DefaultTrackWidth
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = observability.DefaultTracingServiceName
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{Tracing: TracingConfig{SampleRatio: DefaultTracingSampleRatio}}
	cfg.Engine.RoundingPrecision = core.DefaultEngineConfig().RoundingPrecision
	ApplyDefaults(cfg)
	return cfg
}
