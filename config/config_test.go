package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blues/voxconv/mapper"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.MapperParams()
	require.NoError(t, err)
	assert.Equal(t, mapper.DefaultParams(), p)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mapper:
  k: 5
  distance: mahalanobis
  weighting: triangle
  match_using_target: true
processor:
  fixed_rate: true
  window_size: 0.03
  skip_size: 0.01
  block_size: 512
prosody:
  pitch: [1.2]
  time: [1, 2]
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	p, err := cfg.MapperParams()
	require.NoError(t, err)
	assert.Equal(t, 5, p.K)
	assert.Equal(t, mapper.Mahalanobis, p.Distance)
	assert.Equal(t, mapper.TriangleHalfWindow, p.Weighting)
	assert.True(t, p.MatchTarget)
	// untouched keys keep their defaults
	assert.Equal(t, 0.5, p.Alpha)

	pc, err := cfg.ProcessorConfig(18, 2)
	require.NoError(t, err)
	assert.Equal(t, 18, pc.LPOrder)
	assert.True(t, pc.FixedRate)
	assert.Equal(t, 512, pc.BlockSize)
	assert.Equal(t, 0.97, pc.PreCoef)
	assert.InDelta(t, 1.2, pc.Scales.Pitch.At(1.5), 1e-12)
	assert.InDelta(t, 1.5, pc.Scales.Time.At(1), 1e-12)
	assert.Equal(t, 1.0, pc.Scales.Energy.At(0))
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown_distance", body: "mapper:\n  distance: cosine\n"},
		{name: "zero_k", body: "mapper:\n  k: 0\n"},
		{name: "alpha_above_one", body: "mapper:\n  alpha: 1.5\n"},
		{name: "single_period", body: "processor:\n  num_periods: 1\n"},
		{name: "window_below_skip", body: "processor:\n  fixed_rate: true\n  window_size: 0.005\n"},
		{name: "bad_level", body: "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Load(writeConfig(t, "mapper: [\n"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
