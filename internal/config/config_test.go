// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "marquee", cfg.Logger.ServiceName)

	assert.Equal(t, "left", cfg.Engine.Direction)
	assert.Equal(t, 1.0, cfg.Engine.Step)
	assert.Equal(t, 16*time.Millisecond, cfg.Engine.StepWait)
	assert.True(t, cfg.Engine.HoverStop)
	assert.Equal(t, 600.0, cfg.Engine.ContentSize)

	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, cfg.Demo.Items)
	assert.Equal(t, 5*time.Second, cfg.Demo.Duration)
	assert.False(t, cfg.Demo.Browser)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marquee.yaml")
	content := []byte(`
logger:
  level: debug
  format: json
engine:
  direction: up
  step: 2.5
  step_wait: 25ms
demo:
  items:
    - one
    - two
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "up", cfg.Engine.Direction)
	assert.Equal(t, 2.5, cfg.Engine.Step)
	assert.Equal(t, 25*time.Millisecond, cfg.Engine.StepWait)
	assert.Equal(t, []string{"one", "two"}, cfg.Demo.Items)

	// Untouched keys keep their defaults.
	assert.True(t, cfg.Engine.HoverStop)
	assert.Equal(t, "marquee", cfg.Logger.ServiceName)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	v := viper.New()
	v.AddConfigPath(t.TempDir())

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "left", cfg.Engine.Direction)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MARQUEE_ENGINE_DIRECTION", "right")
	t.Setenv("MARQUEE_LOGGER_LEVEL", "warn")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "right", cfg.Engine.Direction)
	assert.Equal(t, "warn", cfg.Logger.Level)
}
