package config

import (
	"errors"
	"fmt"

	"github.com/udisondev/synesthesia/internal/clock"
	"github.com/udisondev/synesthesia/internal/model"
)

// MinProbeDepth is the shortest allowed ground probe ray.
const MinProbeDepth = 1000.0

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Spawner holds the emitter spawner parameters. Read-only after Validate.
type Spawner struct {
	// Pool
	PoolSize int `yaml:"pool_size"` // count of pooled emitters

	// Placement
	HorizontalBufferSpace   float64      `yaml:"horizontal_buffer_space"`    // spacing between consecutive locations
	SpawnCircleRadius       float64      `yaml:"spawn_circle_radius"`        // circle emitters orbit on
	SpawnCircleGroundBuffer float64      `yaml:"spawn_circle_ground_buffer"` // clearance above ground
	SpawnRange              float64      `yaml:"spawn_range"`                // planar distance at which emitters are revealed
	ProbeDepth              float64      `yaml:"probe_depth"`                // ground ray length before the buffer is added
	SequenceAxis            model.Vector `yaml:"sequence_axis"`              // direction the location sequence grows in

	// Location sequence
	SpawnFrequencyBandsAmount        int     `yaml:"spawn_frequency_bands_amount"`         // initial sequence length
	DistanceToIncreaseSpawnLocations float64 `yaml:"distance_to_increase_spawn_locations"` // frontier proximity threshold
	SpawnLocationsIncrement          int     `yaml:"spawn_locations_increment"`            // growth step

	// Clock
	ClockName                 string             `yaml:"clock_name"` // empty accepts every clock
	SpawnTimeQuantization     clock.Quantization `yaml:"spawn_time_quantization"`
	LocationsTimeQuantization clock.Quantization `yaml:"locations_time_quantization"`

	// Hosted objects
	Prototype       string       `yaml:"prototype"`
	ScaleMultiplier model.Vector `yaml:"scale_multiplier"`

	Seed  uint64 `yaml:"seed"` // 0 = random
	Debug bool   `yaml:"debug"`
}

// DefaultSpawner returns Spawner config with sensible defaults.
func DefaultSpawner() Spawner {
	return Spawner{
		PoolSize:                         10,
		HorizontalBufferSpace:            50,
		SpawnCircleRadius:                500,
		SpawnCircleGroundBuffer:          200,
		SpawnRange:                       300,
		ProbeDepth:                       MinProbeDepth,
		SequenceAxis:                     model.Vector{Y: 1},
		SpawnFrequencyBandsAmount:        48,
		DistanceToIncreaseSpawnLocations: 400,
		SpawnLocationsIncrement:          16,
		ClockName:                        "QuartzCubesClock",
		SpawnTimeQuantization:            clock.Beat,
		LocationsTimeQuantization:        clock.Bar,
		Prototype:                        "sound_cube",
		ScaleMultiplier:                  model.Vector{X: 1, Y: 1, Z: 1},
	}
}

// Validate checks the spawner parameters.
func (s Spawner) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(s.PoolSize >= 1, "pool_size must be >= 1, got %d", s.PoolSize)
	check(s.SpawnFrequencyBandsAmount >= s.PoolSize,
		"spawn_frequency_bands_amount (%d) must be >= pool_size (%d)", s.SpawnFrequencyBandsAmount, s.PoolSize)
	check(s.SpawnLocationsIncrement >= 1, "spawn_locations_increment must be >= 1, got %d", s.SpawnLocationsIncrement)
	check(s.HorizontalBufferSpace >= 0, "horizontal_buffer_space must be >= 0, got %v", s.HorizontalBufferSpace)
	check(s.SpawnCircleRadius >= 0, "spawn_circle_radius must be >= 0, got %v", s.SpawnCircleRadius)
	check(s.SpawnCircleGroundBuffer >= 0, "spawn_circle_ground_buffer must be >= 0, got %v", s.SpawnCircleGroundBuffer)
	check(s.SpawnRange >= 0, "spawn_range must be >= 0, got %v", s.SpawnRange)
	check(s.DistanceToIncreaseSpawnLocations >= 0,
		"distance_to_increase_spawn_locations must be >= 0, got %v", s.DistanceToIncreaseSpawnLocations)
	check(s.ProbeDepth >= MinProbeDepth, "probe_depth must be >= %v, got %v", MinProbeDepth, s.ProbeDepth)
	check(!s.SequenceAxis.IsZero(), "sequence_axis must not be zero")
	check(s.SpawnTimeQuantization != clock.QuantizationNone, "spawn_time_quantization must be set")
	check(s.LocationsTimeQuantization != clock.QuantizationNone, "locations_time_quantization must be set")

	return errors.Join(errs...)
}
