package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/synesthesia/internal/clock"
	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
)

type spawnerFixture struct {
	spawner  *Spawner
	host     *mockObjectHost
	locator  *mockLocator
	sink     *recordingSink
	debugger *debug.Authority
}

func newSpawnerFixture(t *testing.T, cfg config.Spawner) *spawnerFixture {
	t.Helper()
	f := &spawnerFixture{
		host:     newMockObjectHost(),
		locator:  &mockLocator{ok: true},
		sink:     &recordingSink{},
		debugger: debug.NewAuthority(false),
	}
	s, err := New(cfg, Dependencies{
		Host:     f.host,
		Listener: f.locator,
		Sink:     f.sink,
		Debug:    f.debugger,
	})
	require.NoError(t, err)
	f.spawner = s
	return f
}

func beat(cfg config.Spawner) clock.Event {
	return clock.Event{Clock: cfg.ClockName, Quantization: cfg.SpawnTimeQuantization}
}

func bar(cfg config.Spawner) clock.Event {
	return clock.Event{Clock: cfg.ClockName, Quantization: cfg.LocationsTimeQuantization}
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()

	_, err := New(cfg, Dependencies{})
	assert.ErrorIs(t, err, ErrNoHost)

	bad := cfg
	bad.PoolSize = 0
	_, err = New(bad, Dependencies{Host: newMockObjectHost()})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSpawner_Start(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)

	require.NoError(t, f.spawner.Start())

	assert.Equal(t, 48, f.spawner.Locations().Len())
	assert.True(t, f.spawner.Scheduler().Initialized())
	assert.Len(t, f.host.spawned, 10)

	// Second Start is a no-op
	require.NoError(t, f.spawner.Start())
	assert.Len(t, f.host.spawned, 10)
	assert.Equal(t, 48, f.spawner.Locations().Len())
}

func TestSpawner_Start_FromAnchor(t *testing.T) {
	cfg := testConfig()
	host := newMockObjectHost()
	anchor := model.Vector{X: 100, Y: -200, Z: 50}
	s, err := New(cfg, Dependencies{Host: host, Anchor: anchor})
	require.NoError(t, err)

	require.NoError(t, s.Start())

	assert.Equal(t, anchor, s.Locations().At(0))
	assert.Equal(t, anchor, s.Listener().Last(), "missing locator falls back to anchor")
}

func TestSpawner_FrontierScenario(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())

	// Far from the frontier at Y=2350
	f.locator.pos = model.Vector{Y: 1000}
	f.spawner.OnQuantizationEvent(bar(cfg))
	assert.Equal(t, 48, f.spawner.Locations().Len())

	f.locator.pos = model.Vector{Y: 1960}
	f.spawner.OnQuantizationEvent(bar(cfg))
	assert.Equal(t, 64, f.spawner.Locations().Len())

	// Beat ticks can now reach further
	// Location 48 repeats the old frontier, 49 is the first new step
	f.locator.pos = model.Vector{Y: 2400}
	f.spawner.OnQuantizationEvent(beat(cfg))
	assert.Equal(t, 49, f.spawner.Scheduler().NearestIndex())
	assert.Len(t, f.host.spawned, 10, "pool never grows")
}

func TestSpawner_OnQuantizationEvent_Routing(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())
	f.locator.pos = model.Vector{Y: 2350}

	// Beat moves the pool only
	f.spawner.OnQuantizationEvent(beat(cfg))
	assert.Equal(t, 37, f.spawner.Scheduler().NearestIndex())
	assert.Equal(t, 48, f.spawner.Locations().Len())

	// Unrelated classes are ignored
	f.spawner.OnQuantizationEvent(clock.Event{Clock: cfg.ClockName, Quantization: clock.SixteenthNote})
	assert.Equal(t, 48, f.spawner.Locations().Len())

	// Bar grows the sequence only
	f.spawner.OnQuantizationEvent(bar(cfg))
	assert.Equal(t, 64, f.spawner.Locations().Len())
	assert.Equal(t, 37, f.spawner.Scheduler().NearestIndex())
}

func TestSpawner_OnQuantizationEvent_ClockFilter(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())
	f.locator.pos = model.Vector{Y: 2350}

	f.spawner.OnQuantizationEvent(clock.Event{Clock: "OtherClock", Quantization: cfg.LocationsTimeQuantization})
	assert.Equal(t, 48, f.spawner.Locations().Len())

	// Unnamed events are accepted
	f.spawner.OnQuantizationEvent(clock.Event{Quantization: cfg.LocationsTimeQuantization})
	assert.Equal(t, 64, f.spawner.Locations().Len())
}

func TestSpawner_SharedQuantization_PoolFirst(t *testing.T) {
	cfg := testConfig()
	cfg.LocationsTimeQuantization = cfg.SpawnTimeQuantization
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())
	f.locator.pos = model.Vector{Y: 2350}

	f.spawner.OnQuantizationEvent(beat(cfg))

	assert.Equal(t, 64, f.spawner.Locations().Len())
	assert.Equal(t, 37, f.spawner.Scheduler().NearestIndex(), "pool moved over the pre-growth sequence")
}

func TestSpawner_BeforeStart(t *testing.T) {
	if strictPreconditions {
		t.Skip("precondition violations panic in strict builds")
	}
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)

	f.spawner.OnQuantizationEvent(beat(cfg))
	f.spawner.OnQuantizationEvent(bar(cfg))

	assert.Equal(t, 0, f.spawner.Locations().Len())
	assert.Empty(t, f.host.spawned)
}

func TestSpawner_ListenerFallback(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())

	f.locator.pos = model.Vector{Y: 1200}
	f.spawner.OnQuantizationEvent(beat(cfg))
	assert.Equal(t, 24, f.spawner.Scheduler().NearestIndex())

	// Listener disappears: last known position is used
	f.locator.ok = false
	f.locator.pos = model.Vector{}
	f.spawner.OnQuantizationEvent(beat(cfg))
	assert.Equal(t, 24, f.spawner.Scheduler().NearestIndex())
	assert.Equal(t, model.Vector{Y: 1200}, f.spawner.Listener().Last())
}

func TestSpawner_Bind(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())
	src := newFakeSource()

	var queued []func()
	f.spawner.Bind(src, func(fn func()) { queued = append(queued, fn) })

	assert.Len(t, src.handlers[cfg.SpawnTimeQuantization], 1)
	assert.Len(t, src.handlers[cfg.LocationsTimeQuantization], 1)

	f.locator.pos = model.Vector{Y: 2350}
	src.fire(bar(cfg))
	assert.Equal(t, 48, f.spawner.Locations().Len(), "nothing runs until dispatched")
	require.Len(t, queued, 1)

	queued[0]()
	assert.Equal(t, 64, f.spawner.Locations().Len())
}

func TestSpawner_Bind_Direct(t *testing.T) {
	cfg := testConfig()
	cfg.LocationsTimeQuantization = cfg.SpawnTimeQuantization
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())
	src := newFakeSource()

	f.spawner.Bind(src, nil)
	assert.Len(t, src.handlers[cfg.SpawnTimeQuantization], 1, "shared class subscribed once")

	f.locator.pos = model.Vector{Y: 2350}
	src.fire(beat(cfg))
	assert.Equal(t, 64, f.spawner.Locations().Len())
}

func TestSpawner_DebugToggle(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())
	assert.Empty(t, f.sink.shapes, "debug starts disabled")

	f.debugger.SetEnabled(true)
	f.spawner.OnQuantizationEvent(beat(cfg))
	assert.Len(t, f.sink.shapes, 20)

	f.locator.pos = model.Vector{Y: 2350}
	f.spawner.OnQuantizationEvent(bar(cfg))
	assert.Equal(t, 32, f.sink.count(debug.Blue), "16 new locations, circle and point each")

	f.debugger.Toggle()
	f.sink.shapes = nil
	f.spawner.OnQuantizationEvent(beat(cfg))
	assert.Empty(t, f.sink.shapes)
}

func TestSpawner_DebugFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Debug = true
	sink := &recordingSink{}
	s, err := New(cfg, Dependencies{Host: newMockObjectHost(), Sink: sink})
	require.NoError(t, err)

	require.NoError(t, s.Start())

	assert.True(t, s.Debug().Enabled())
	assert.Equal(t, 96, sink.count(debug.Blue))
}

func TestSpawner_Stop(t *testing.T) {
	cfg := testConfig()
	f := newSpawnerFixture(t, cfg)
	require.NoError(t, f.spawner.Start())

	f.spawner.Stop()

	assert.False(t, f.spawner.Scheduler().Initialized())
	assert.Empty(t, f.spawner.debugSubs)
	f.debugger.SetEnabled(true)
	require.NoError(t, f.spawner.Start())
	assert.Empty(t, f.sink.shapes, "stopped spawner no longer follows the debug switch")
}
