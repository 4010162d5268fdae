package spawn

import (
	"log/slog"
	"slices"

	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
	"github.com/udisondev/synesthesia/internal/notify"
)

// Locations is read access to the spawn location sequence.
type Locations interface {
	Len() int
	At(i int) model.Vector
}

// Sequence owns the append-only list of spawn locations along the listener's
// path. Locations are never removed or reordered.
type Sequence struct {
	cfg   config.Spawner
	axis  model.Vector
	probe GroundProbeService
	debug *debug.Gate

	locations []model.Vector
	extended  notify.Registry[[]model.Vector]
}

// NewSequence creates an empty sequence. A nil probe never hits, so every
// location keeps its raw position.
func NewSequence(cfg config.Spawner, probe GroundProbeService, gate *debug.Gate) *Sequence {
	if gate == nil {
		gate = debug.NewGate(nil)
	}
	return &Sequence{
		cfg:   cfg,
		axis:  cfg.SequenceAxis.Normalize(),
		probe: probe,
		debug: gate,
	}
}

// Len returns the number of locations.
func (s *Sequence) Len() int {
	return len(s.locations)
}

// At returns location i. Panics if i is out of range, like a slice index.
func (s *Sequence) At(i int) model.Vector {
	return s.locations[i]
}

// Last returns the frontier location. Returns false for an empty sequence.
func (s *Sequence) Last() (model.Vector, bool) {
	if len(s.locations) == 0 {
		return model.Vector{}, false
	}
	return s.locations[len(s.locations)-1], true
}

// Snapshot returns a copy of all locations.
func (s *Sequence) Snapshot() []model.Vector {
	return slices.Clone(s.locations)
}

// OnExtended registers fn to receive the full sequence after every Extend.
func (s *Sequence) OnExtended(fn func([]model.Vector)) notify.Handle {
	return s.extended.Subscribe(fn)
}

// RemoveExtendedListener drops a subscription made with OnExtended.
func (s *Sequence) RemoveExtendedListener(h notify.Handle) bool {
	return s.extended.Unsubscribe(h)
}

// GroundProbe snaps point onto the ground: a downward ray of ProbeDepth+buffer
// from point; on a hit the result is the hit lifted by buffer along the up
// axis, on a miss it is point unchanged.
func (s *Sequence) GroundProbe(point model.Vector, buffer float64) model.Vector {
	if s.probe == nil {
		return point
	}
	hit, ok := s.probe.Probe(point, model.UpAxis.Scale(-1), s.cfg.ProbeDepth+buffer)
	if !ok {
		return point
	}
	return hit.Add(model.UpAxis.Scale(buffer))
}

// Extend appends count locations starting at start and spaced
// HorizontalBufferSpace apart along the sequence axis, then notifies
// subscribers with the whole sequence.
func (s *Sequence) Extend(count int, start model.Vector) {
	if count <= 0 {
		return
	}

	buffer := s.cfg.SpawnCircleRadius + s.cfg.SpawnCircleGroundBuffer
	first := len(s.locations)
	s.locations = slices.Grow(s.locations, count)

	for i := range count {
		raw := start.Add(s.axis.Scale(s.cfg.HorizontalBufferSpace * float64(i)))
		loc := s.GroundProbe(raw, buffer)
		s.locations = append(s.locations, loc)

		s.debug.DrawCircle(loc, s.cfg.SpawnCircleRadius, debug.CircleSegments, debug.Blue)
		s.debug.DrawPoint(loc, debug.PointSize, debug.Blue)
	}

	slog.Info("spawn locations extended",
		"added", count,
		"total", len(s.locations),
		"first", s.locations[first],
		"frontier", s.locations[len(s.locations)-1])

	s.extended.Publish(s.Snapshot())
}

// IsNearFrontier reports whether the listener is within
// DistanceToIncreaseSpawnLocations (planar) of the last location.
// An empty sequence is never near.
func (s *Sequence) IsNearFrontier(listener model.Vector) bool {
	last, ok := s.Last()
	if !ok {
		return false
	}
	return model.PlanarDistance(listener, last) <= s.cfg.DistanceToIncreaseSpawnLocations
}

// Tick runs on a locations quantization event: when the listener approaches
// the frontier the sequence grows by SpawnLocationsIncrement, starting from the
// current frontier location. Returns whether it grew.
func (s *Sequence) Tick(listener model.Vector) bool {
	last, ok := s.Last()
	if !ok {
		violated(ErrSequenceTooShort, "operation", "locations tick", "len", 0)
		return false
	}
	if !s.IsNearFrontier(listener) {
		return false
	}

	slog.Debug("listener near frontier",
		"listener", listener,
		"frontier", last,
		"distance", model.PlanarDistance(listener, last))

	s.Extend(s.cfg.SpawnLocationsIncrement, last)
	return true
}
