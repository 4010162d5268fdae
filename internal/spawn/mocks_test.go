package spawn

import (
	"errors"

	"github.com/udisondev/synesthesia/internal/clock"
	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
	"github.com/udisondev/synesthesia/internal/notify"
)

var errSpawnRefused = errors.New("spawn refused")

// mockObjectHost records every host call.
type mockObjectHost struct {
	next        Handle
	calls       int
	failCalls   map[int]bool // 0-based Spawn call numbers that fail
	prototypes  []string
	spawned     map[Handle]model.Transform
	visible     map[Handle]bool
	collidable  map[Handle]bool
	destination map[Handle]model.Transform
}

func newMockObjectHost() *mockObjectHost {
	return &mockObjectHost{
		failCalls:   make(map[int]bool),
		spawned:     make(map[Handle]model.Transform),
		visible:     make(map[Handle]bool),
		collidable:  make(map[Handle]bool),
		destination: make(map[Handle]model.Transform),
	}
}

func (h *mockObjectHost) Spawn(prototype string, t model.Transform) (Handle, error) {
	call := h.calls
	h.calls++
	if h.failCalls[call] {
		return 0, errSpawnRefused
	}
	h.next++
	h.prototypes = append(h.prototypes, prototype)
	h.spawned[h.next] = t
	return h.next, nil
}

func (h *mockObjectHost) SetVisible(handle Handle, visible bool) {
	h.visible[handle] = visible
}

func (h *mockObjectHost) SetCollidable(handle Handle, collidable bool) {
	h.collidable[handle] = collidable
}

func (h *mockObjectHost) SetDestination(handle Handle, t model.Transform) {
	h.destination[handle] = t
}

func (h *mockObjectHost) Exists(handle Handle) bool {
	_, ok := h.spawned[handle]
	return ok
}

func (h *mockObjectHost) remove(handle Handle) {
	delete(h.spawned, handle)
}

// stillHost implements only ObjectHost, without Mover.
type stillHost struct {
	h *mockObjectHost
}

func (s stillHost) Spawn(p string, t model.Transform) (Handle, error) { return s.h.Spawn(p, t) }
func (s stillHost) SetVisible(h Handle, v bool)                      { s.h.SetVisible(h, v) }
func (s stillHost) SetCollidable(h Handle, c bool)                   { s.h.SetCollidable(h, c) }
func (s stillHost) Exists(h Handle) bool                             { return s.h.Exists(h) }

// mockProbe is flat ground at height groundZ.
type mockProbe struct {
	groundZ float64
	miss    bool
	rays    int
	lastLen float64
}

func (p *mockProbe) Probe(origin, direction model.Vector, maxDistance float64) (model.Vector, bool) {
	p.rays++
	p.lastLen = maxDistance
	if p.miss || direction.Z >= 0 {
		return model.Vector{}, false
	}
	if origin.Z < p.groundZ || origin.Z-maxDistance > p.groundZ {
		return model.Vector{}, false
	}
	return origin.WithZ(p.groundZ), true
}

// mockLocator reports a fixed listener position.
type mockLocator struct {
	pos model.Vector
	ok  bool
}

func (l *mockLocator) Position() (model.Vector, bool) {
	return l.pos, l.ok
}

type shape struct {
	circle bool
	at     model.Vector
	radius float64
	color  debug.Color
}

type recordingSink struct {
	shapes []shape
}

func (s *recordingSink) DrawCircle(center model.Vector, radius float64, _ int, c debug.Color) {
	s.shapes = append(s.shapes, shape{circle: true, at: center, radius: radius, color: c})
}

func (s *recordingSink) DrawPoint(point model.Vector, _ float64, c debug.Color) {
	s.shapes = append(s.shapes, shape{at: point, color: c})
}

func (s *recordingSink) count(c debug.Color) int {
	n := 0
	for _, sh := range s.shapes {
		if sh.color == c {
			n++
		}
	}
	return n
}

// fakeSource records subscriptions so tests can fire them by hand.
type fakeSource struct {
	next     notify.Handle
	handlers map[clock.Quantization][]clock.Handler
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: make(map[clock.Quantization][]clock.Handler)}
}

func (f *fakeSource) Subscribe(q clock.Quantization, fn clock.Handler) notify.Handle {
	f.next++
	f.handlers[q] = append(f.handlers[q], fn)
	return f.next
}

func (f *fakeSource) fire(ev clock.Event) {
	for _, fn := range f.handlers[ev.Quantization] {
		fn(ev)
	}
}

// locationList is a fixed Locations for scheduler tests.
type locationList []model.Vector

func (l locationList) Len() int              { return len(l) }
func (l locationList) At(i int) model.Vector { return l[i] }

// line returns n locations spaced step apart along Y from the origin.
func line(n int, step float64) locationList {
	out := make(locationList, n)
	for i := range out {
		out[i] = model.Vector{Y: step * float64(i)}
	}
	return out
}

func testConfig() config.Spawner {
	cfg := config.DefaultSpawner()
	cfg.Seed = 42
	return cfg
}
