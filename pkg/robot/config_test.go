package robot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1_000_000, cfg.Base.BaudRate)
	assert.InDelta(t, 0.22, cfg.Base.TrackWidth, 1e-9)
	assert.Equal(t, 20, cfg.Loop.Hz)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.Period())
	assert.InDelta(t, 0.2, cfg.Plans.Speed, 1e-9)
	assert.InDelta(t, 0.05, cfg.Plans.HeadingTolerance, 1e-9)
	assert.InDelta(t, math.Pi/2, cfg.Plans.TurnRate, 1e-9)
	assert.NoError(t, cfg.Base.Calibration.Validate())
	assert.False(t, cfg.Base.IsConfigured())
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raubot.json")

	cfg := DefaultConfig()
	cfg.Base.Port = "/dev/ttyACM0"
	cfg.Base.LineSensor = true
	cfg.Loop.Hz = 50
	cfg.Loop.StallTicks = 200
	cfg.Plans.Speed = 0.35
	cfg.Journal.Enabled = true
	require.NoError(t, cfg.SaveTo(path))

	got, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", got.Base.Port)
	assert.True(t, got.Base.LineSensor)
	assert.Equal(t, 50, got.Loop.Hz)
	assert.Equal(t, 200, got.Loop.StallTicks)
	assert.InDelta(t, 0.35, got.Plans.Speed, 1e-9)
	assert.True(t, got.Journal.Enabled)
	assert.Equal(t, cfg.Base.Calibration, got.Base.Calibration)
	assert.True(t, got.Base.IsConfigured())
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raubot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base": {"port": "COM3"}}`), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "COM3", cfg.Base.Port)
	assert.Equal(t, 1_000_000, cfg.Base.BaudRate)
	assert.Equal(t, 20, cfg.Loop.Hz)
	assert.Equal(t, DefaultCalibration(), cfg.Base.Calibration)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RAUBOT_LOOP_HZ", "40")
	t.Setenv("RAUBOT_BASE_PORT", "/dev/ttyUSB1")

	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Loop.Hz)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Base.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoopPeriodFallback(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, LoopConfig{}.Period())
	assert.Equal(t, 10*time.Millisecond, LoopConfig{Hz: 100}.Period())
}
