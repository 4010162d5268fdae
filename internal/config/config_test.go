package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/synesthesia/internal/clock"
	"github.com/udisondev/synesthesia/internal/model"
)

func TestDefaultSpawner(t *testing.T) {
	cfg := DefaultSpawner()

	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 50.0, cfg.HorizontalBufferSpace)
	assert.Equal(t, 500.0, cfg.SpawnCircleRadius)
	assert.Equal(t, 200.0, cfg.SpawnCircleGroundBuffer)
	assert.Equal(t, 300.0, cfg.SpawnRange)
	assert.Equal(t, 48, cfg.SpawnFrequencyBandsAmount)
	assert.Equal(t, 400.0, cfg.DistanceToIncreaseSpawnLocations)
	assert.Equal(t, clock.Beat, cfg.SpawnTimeQuantization)
	assert.Equal(t, clock.Bar, cfg.LocationsTimeQuantization)
	assert.NoError(t, cfg.Validate())
}

func TestSpawnerValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spawner)
	}{
		{"zero pool", func(s *Spawner) { s.PoolSize = 0 }},
		{"bands below pool", func(s *Spawner) { s.SpawnFrequencyBandsAmount = s.PoolSize - 1 }},
		{"zero increment", func(s *Spawner) { s.SpawnLocationsIncrement = 0 }},
		{"negative radius", func(s *Spawner) { s.SpawnCircleRadius = -1 }},
		{"negative range", func(s *Spawner) { s.SpawnRange = -1 }},
		{"short probe", func(s *Spawner) { s.ProbeDepth = 999 }},
		{"zero axis", func(s *Spawner) { s.SequenceAxis = model.Vector{} }},
		{"no spawn quantization", func(s *Spawner) { s.SpawnTimeQuantization = clock.QuantizationNone }},
		{"no locations quantization", func(s *Spawner) { s.LocationsTimeQuantization = clock.QuantizationNone }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSpawner()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSpawnerValidate_ReportsAll(t *testing.T) {
	cfg := DefaultSpawner()
	cfg.PoolSize = 0
	cfg.ProbeDepth = 10

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool_size")
	assert.Contains(t, err.Error(), "probe_depth")
}

func TestLoadApp_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadApp(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultApp(), cfg)
}

func TestLoadApp_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spawner.yaml")
	data := `
log_level: debug
spawner:
  pool_size: 4
  spawn_range: 250
  spawn_time_quantization: eighth_note
  locations_time_quantization: beat
  sequence_axis: {x: 1, y: 0, z: 0}
clock:
  bpm: 96
listener:
  step_every: 20ms
analytics:
  enabled: true
  brokers: [kafka:9092]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadApp(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Spawner.PoolSize)
	assert.Equal(t, 250.0, cfg.Spawner.SpawnRange)
	assert.Equal(t, clock.EighthNote, cfg.Spawner.SpawnTimeQuantization)
	assert.Equal(t, clock.Beat, cfg.Spawner.LocationsTimeQuantization)
	assert.Equal(t, model.Vector{X: 1}, cfg.Spawner.SequenceAxis)
	assert.Equal(t, 96, cfg.Clock.BPM)
	assert.Equal(t, 20*time.Millisecond, cfg.Listener.StepEvery)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Analytics.Brokers)

	// untouched fields keep defaults
	assert.Equal(t, 48, cfg.Spawner.SpawnFrequencyBandsAmount)
	assert.Equal(t, 4, cfg.Clock.BeatsPerBar)
}

func TestLoadApp_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spawner: [not, a, map"), 0o644))

	_, err := LoadApp(path)
	assert.Error(t, err)
}

func TestLoadApp_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spawner:\n  pool_size: 100\n"), 0o644))

	_, err := LoadApp(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadApp_ShippedConfig(t *testing.T) {
	cfg, err := LoadApp(filepath.Join("..", "..", "config", "synesthesia.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSpawner(), cfg.Spawner)
	assert.Equal(t, DefaultApp().Terrain, cfg.Terrain)
	assert.Equal(t, DefaultApp().Listener, cfg.Listener)
	assert.True(t, cfg.Clock.Click)
}
