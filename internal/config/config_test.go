package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Engine.RoundingPrecision)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{ConnectTolerance: 5}, Log: LogConfig{Format: "json"}}
	ApplyDefaults(cfg)

	assert.Equal(t, 5.0, cfg.Engine.ConnectTolerance)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, 32, cfg.Engine.ArcSegments)

	ApplyDefaults(nil)
}

func TestConverters(t *testing.T) {
	cfg := Default()
	cfg.Tracing.Exporter = "OTLP"
	cfg.Log.Level = "debug"

	assert.Equal(t, "otlp", cfg.TracingConfig().Exporter)
	assert.Equal(t, "debug", cfg.LoggingConfig().Level)
	assert.True(t, cfg.StackupModel().IsOuter(7))
}
