package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/synesthesia/internal/model"
)

// App holds all configuration for the demo host.
type App struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	LogFile  string `yaml:"log_file"`  // empty: stdout, or discarded while the view owns the terminal

	Spawner   Spawner   `yaml:"spawner"`
	Clock     Clock     `yaml:"clock"`
	Terrain   Terrain   `yaml:"terrain"`
	Listener  Listener  `yaml:"listener"`
	View      View      `yaml:"view"`
	Analytics Analytics `yaml:"analytics"`
}

// Clock configures the metronome.
type Clock struct {
	BPM         int  `yaml:"bpm"`
	BeatsPerBar int  `yaml:"beats_per_bar"`
	SampleRate  int  `yaml:"sample_rate"`
	AudioOutput bool `yaml:"audio_output"` // drive the clock from the speaker instead of a timer
	Click       bool `yaml:"click"`

	QueueSize int `yaml:"queue_size"` // dispatch queue capacity
}

// Terrain configures the ground probe service.
type Terrain struct {
	Dir            string       `yaml:"dir"` // directory with <rx>_<ry>.hmap files; empty = procedural
	CellSize       float64      `yaml:"cell_size"`
	Origin         model.Vector `yaml:"origin"`
	RegionCells    int          `yaml:"region_cells"`
	RegionsX       int          `yaml:"regions_x"`
	RegionsY       int          `yaml:"regions_y"`
	BaseHeight     float64      `yaml:"base_height"`
	HillAmplitude  float64      `yaml:"hill_amplitude"`
	HillWavelength float64      `yaml:"hill_wavelength"`
}

// Listener configures the simulated player.
type Listener struct {
	Start     model.Vector  `yaml:"start"`
	Direction model.Vector  `yaml:"direction"`
	Speed     float64       `yaml:"speed"` // units per second
	StepEvery time.Duration `yaml:"step_every"`
}

// View configures the terminal debug view.
type View struct {
	Enabled      bool    `yaml:"enabled"`
	UnitsPerCell float64 `yaml:"units_per_cell"`
	FPS          int     `yaml:"fps"`
	MaxShapes    int     `yaml:"max_shapes"`
}

// Analytics configures the Kafka publisher for location events.
type Analytics struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Source  string   `yaml:"source"`
}

// DefaultApp returns App config with sensible defaults.
func DefaultApp() App {
	return App{
		LogLevel: "info",
		Spawner:  DefaultSpawner(),
		Clock: Clock{
			BPM:         120,
			BeatsPerBar: 4,
			SampleRate:  48000,
			QueueSize:   256,
		},
		Terrain: Terrain{
			CellSize:       16,
			Origin:         model.Vector{X: -8192, Y: -8192},
			RegionCells:    256,
			RegionsX:       4,
			RegionsY:       16,
			BaseHeight:     0,
			HillAmplitude:  120,
			HillWavelength: 2400,
		},
		Listener: Listener{
			Start:     model.Vector{Z: 2000},
			Direction: model.Vector{Y: 1},
			Speed:     120,
			StepEvery: 50 * time.Millisecond,
		},
		View: View{
			UnitsPerCell: 40,
			FPS:          20,
			MaxShapes:    512,
		},
		Analytics: Analytics{
			Brokers: []string{"localhost:9092"},
			Topic:   "spawner.events",
			Source:  "synesthesia",
		},
	}
}

// Validate checks the whole configuration.
func (a App) Validate() error {
	var errs []error
	if err := a.Spawner.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spawner: %w", err))
	}
	if a.Clock.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: clock.sample_rate must be > 0", ErrInvalid))
	}
	if a.Clock.BeatsPerBar <= 0 {
		errs = append(errs, fmt.Errorf("%w: clock.beats_per_bar must be > 0", ErrInvalid))
	}
	if a.Terrain.CellSize <= 0 || a.Terrain.RegionCells <= 0 {
		errs = append(errs, fmt.Errorf("%w: terrain cell_size and region_cells must be > 0", ErrInvalid))
	}
	if a.Analytics.Enabled && (len(a.Analytics.Brokers) == 0 || a.Analytics.Topic == "") {
		errs = append(errs, fmt.Errorf("%w: analytics needs brokers and topic", ErrInvalid))
	}
	return errors.Join(errs...)
}

// LoadApp loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadApp(path string) (App, error) {
	cfg := DefaultApp()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
