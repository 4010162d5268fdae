package spawn

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/synesthesia/internal/clock"
	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
	"github.com/udisondev/synesthesia/internal/notify"
)

// Dependencies are the host collaborators a Spawner needs.
type Dependencies struct {
	Host     ObjectHost         // required
	Probe    GroundProbeService // nil: locations keep their raw positions
	Listener ListenerLocator    // nil: the listener stays at Anchor
	Sink     debug.Sink         // nil: nothing is drawn
	Debug    *debug.Authority   // nil: a private authority seeded from config

	// Anchor is the spawner's own position: the start of the initial location
	// sequence and the listener fallback.
	Anchor model.Vector
}

// Spawner wires the location sequence and the emitter pool to the clock.
// All methods must be called from one logical thread.
type Spawner struct {
	cfg       config.Spawner
	authority *debug.Authority
	debugSubs []notify.Handle

	locations *Sequence
	scheduler *Scheduler
	listener  *ListenerTracker
	anchor    model.Vector

	started bool
}

// New validates cfg and builds a Spawner. Call Start before delivering ticks.
func New(cfg config.Spawner, deps Dependencies) (*Spawner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating spawner config: %w", err)
	}
	if deps.Host == nil {
		return nil, ErrNoHost
	}

	authority := deps.Debug
	if authority == nil {
		authority = debug.NewAuthority(cfg.Debug)
	}

	locGate := debug.NewGate(deps.Sink)
	poolGate := debug.NewGate(deps.Sink)

	s := &Spawner{
		cfg:       cfg,
		authority: authority,
		locations: NewSequence(cfg, deps.Probe, locGate),
		scheduler: NewScheduler(cfg, deps.Host, poolGate),
		listener:  NewListenerTracker(deps.Listener, deps.Anchor),
		anchor:    deps.Anchor,
	}
	s.debugSubs = []notify.Handle{
		locGate.Attach(authority),
		poolGate.Attach(authority),
	}
	return s, nil
}

// Locations returns the location sequence.
func (s *Spawner) Locations() *Sequence {
	return s.locations
}

// Scheduler returns the emitter pool scheduler.
func (s *Spawner) Scheduler() *Scheduler {
	return s.scheduler
}

// Listener returns the listener tracker.
func (s *Spawner) Listener() *ListenerTracker {
	return s.listener
}

// Debug returns the debug authority the spawner listens to.
func (s *Spawner) Debug() *debug.Authority {
	return s.authority
}

// Start grows the sequence to SpawnFrequencyBandsAmount locations from the
// anchor and initializes the emitter pool.
func (s *Spawner) Start() error {
	if s.started {
		return nil
	}

	if missing := s.cfg.SpawnFrequencyBandsAmount - s.locations.Len(); missing > 0 {
		s.locations.Extend(missing, s.anchor)
	}

	if err := s.scheduler.InitPool(s.locations, s.cfg.PoolSize, s.listener.Position()); err != nil {
		return fmt.Errorf("initializing emitter pool: %w", err)
	}

	s.started = true
	slog.Info("spawner started",
		"locations", s.locations.Len(),
		"poolSize", s.cfg.PoolSize,
		"spawnQuantization", s.cfg.SpawnTimeQuantization,
		"locationsQuantization", s.cfg.LocationsTimeQuantization)
	return nil
}

// OnQuantizationEvent routes a clock tick. Spawn ticks reposition the pool,
// locations ticks check the frontier; when one class serves both, the pool
// moves first. Events from other clocks are ignored when ClockName is set.
func (s *Spawner) OnQuantizationEvent(ev clock.Event) {
	if s.cfg.ClockName != "" && ev.Clock != "" && ev.Clock != s.cfg.ClockName {
		return
	}
	spawnTick := ev.Quantization == s.cfg.SpawnTimeQuantization
	locationsTick := ev.Quantization == s.cfg.LocationsTimeQuantization
	if !spawnTick && !locationsTick {
		return
	}
	if !s.started {
		violated(ErrSequenceTooShort, "operation", "quantization event", "reason", "spawner not started")
		return
	}

	listener := s.listener.Position()
	if spawnTick {
		s.scheduler.Tick(s.locations, listener)
	}
	if locationsTick {
		s.locations.Tick(listener)
	}
}

// Bind subscribes the spawner to src. dispatch moves each event onto the
// spawner's thread; nil delivers on the source's goroutine.
func (s *Spawner) Bind(src clock.Source, dispatch func(func())) {
	handler := func(ev clock.Event) {
		if dispatch == nil {
			s.OnQuantizationEvent(ev)
			return
		}
		dispatch(func() { s.OnQuantizationEvent(ev) })
	}

	src.Subscribe(s.cfg.SpawnTimeQuantization, handler)
	if s.cfg.LocationsTimeQuantization != s.cfg.SpawnTimeQuantization {
		src.Subscribe(s.cfg.LocationsTimeQuantization, handler)
	}
}

// Stop detaches from the debug authority and releases the pool.
func (s *Spawner) Stop() {
	for _, h := range s.debugSubs {
		s.authority.Unsubscribe(h)
	}
	s.debugSubs = nil
	s.scheduler.Release()
	s.started = false
}
