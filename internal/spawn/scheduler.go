package spawn

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
)

// Scheduler owns a fixed pool of emitter slots and keeps it on the window of
// locations nearest to the listener. Slots are recycled in place; hosted
// objects are created once in InitPool and never destroyed here.
type Scheduler struct {
	cfg   config.Spawner
	host  ObjectHost
	mover Mover // nil when host can't move objects
	rng   *rand.Rand
	debug *debug.Gate

	locs     Locations
	slots    []Slot
	nearest  int
	listener model.Vector
}

// NewScheduler creates a scheduler over host. Seed 0 draws a random seed.
func NewScheduler(cfg config.Spawner, host ObjectHost, gate *debug.Gate) *Scheduler {
	if gate == nil {
		gate = debug.NewGate(nil)
	}
	mover, _ := host.(Mover)
	return &Scheduler{
		cfg:   cfg,
		host:  host,
		mover: mover,
		rng:   newRand(cfg.Seed),
		debug: gate,
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NearestIndex returns the index of the location nearest to the listener.
func (s *Scheduler) NearestIndex() int {
	return s.nearest
}

// Initialized reports whether InitPool succeeded.
func (s *Scheduler) Initialized() bool {
	return s.slots != nil
}

// PoolSize returns the number of slots.
func (s *Scheduler) PoolSize() int {
	return len(s.slots)
}

// Slots returns a copy of the pool.
func (s *Scheduler) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Slot returns slot i.
func (s *Scheduler) Slot(i int) (Slot, bool) {
	if i < 0 || i >= len(s.slots) {
		return Slot{}, false
	}
	return s.slots[i], true
}

// InitPool binds poolSize slots to freshly spawned hosted objects at the
// first poolSize locations and positions each one. A slot whose object the
// host fails to spawn stays unbound and is skipped from then on.
func (s *Scheduler) InitPool(locs Locations, poolSize int, listener model.Vector) error {
	if s.slots != nil {
		return ErrPoolInitialized
	}
	if poolSize < 1 {
		return violated(fmt.Errorf("%w: got %d", ErrInvalidPoolSize, poolSize))
	}
	if s.host == nil {
		return ErrNoHost
	}
	if locs == nil || locs.Len() < poolSize {
		n := 0
		if locs != nil {
			n = locs.Len()
		}
		return violated(fmt.Errorf("%w: have %d, need %d", ErrSequenceTooShort, n, poolSize))
	}

	s.locs = locs
	s.listener = listener
	s.nearest = 0
	s.slots = make([]Slot, poolSize)

	bound := 0
	for i := range poolSize {
		t := model.NewTransform(locs.At(i)).WithScale(s.cfg.ScaleMultiplier)
		h, err := s.host.Spawn(s.cfg.Prototype, t)
		if err != nil || h == 0 {
			slog.Warn("emitter spawn failed, slot left unbound",
				"slot", i,
				"prototype", s.cfg.Prototype,
				"error", err)
			continue
		}

		s.slots[i] = Slot{
			Handle:        h,
			Destination:   t,
			LocationIndex: i,
			State:         SlotBound,
		}
		bound++
		s.Reposition(i, i)
	}

	slog.Info("emitter pool initialized",
		"poolSize", poolSize,
		"bound", bound,
		"prototype", s.cfg.Prototype)
	return nil
}

// FindNearestIndex scans locs[0, upper) for the location nearest (planar) to
// listener. The scan is seeded with the previous nearest index, so a location
// only wins when it is strictly closer; ties keep the earlier candidate.
func (s *Scheduler) FindNearestIndex(locs Locations, listener model.Vector, upper int) int {
	n := locs.Len()
	if n == 0 {
		return 0
	}
	if upper > n {
		upper = n
	}

	best := min(s.nearest, n-1)
	bestDist := model.PlanarDistance(listener, locs.At(best))
	for i := range upper {
		if d := model.PlanarDistance(listener, locs.At(i)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Reposition moves slot slotIndex onto a random point of the circle of
// SpawnCircleRadius around location locationIndex and updates its visibility.
// Unbound slots are skipped; returns whether the slot was repositioned.
func (s *Scheduler) Reposition(slotIndex, locationIndex int) bool {
	if slotIndex < 0 || slotIndex >= len(s.slots) {
		slog.Warn("reposition skipped, slot out of range", "slot", slotIndex, "poolSize", len(s.slots))
		return false
	}
	if s.locs == nil || locationIndex < 0 || locationIndex >= s.locs.Len() {
		slog.Warn("reposition skipped, location out of range", "slot", slotIndex, "location", locationIndex)
		return false
	}

	slot := &s.slots[slotIndex]
	if !slot.Bound() {
		return false
	}
	if !s.host.Exists(slot.Handle) {
		slog.Warn("emitter object lost, unbinding slot", "slot", slotIndex, "handle", slot.Handle)
		slot.unbind()
		return false
	}

	base := s.locs.At(locationIndex)
	angle := s.rng.Float64() * 2 * math.Pi
	point := base.Add(model.Vector{
		X: s.cfg.SpawnCircleRadius * math.Cos(angle),
		Y: s.cfg.SpawnCircleRadius * math.Sin(angle),
	})
	visible := model.PlanarDistance(s.listener, base) <= s.cfg.SpawnRange

	slot.Destination = slot.Destination.
		WithPosition(point).
		WithRotation(model.LookRotation(base.Sub(point), model.UpAxis))
	slot.LocationIndex = locationIndex
	slot.Used = visible
	if visible {
		slot.State = SlotVisible
	} else {
		slot.State = SlotHidden
	}

	s.host.SetVisible(slot.Handle, visible)
	s.host.SetCollidable(slot.Handle, visible)
	if s.mover != nil {
		s.mover.SetDestination(slot.Handle, slot.Destination)
	}

	color := debug.Yellow
	if visible {
		color = debug.Magenta
	}
	s.debug.DrawCircle(base, s.cfg.SpawnCircleRadius, debug.CircleSegments, color)
	s.debug.DrawPoint(point, debug.PointSize, color)

	return true
}

// Tick runs on a spawn quantization event: it recomputes the nearest index
// over every start that still leaves room for a full window, then lays the
// pool over consecutive locations from there. The walk stops advancing before
// it would reach len-PoolSize, so slots near the frontier pile up on the last
// reachable location instead of overrunning.
func (s *Scheduler) Tick(locs Locations, listener model.Vector) {
	if s.slots == nil {
		violated(ErrSequenceTooShort, "operation", "spawn tick", "reason", "pool not initialized")
		return
	}
	n := locs.Len()
	if n < len(s.slots) {
		violated(ErrSequenceTooShort, "operation", "spawn tick", "len", n, "poolSize", len(s.slots))
		return
	}

	s.locs = locs
	s.listener = listener
	s.nearest = s.FindNearestIndex(locs, listener, n-len(s.slots))

	visible := 0
	current := s.nearest
	limit := n - len(s.slots)
	for i := range s.slots {
		if s.Reposition(i, current) && s.slots[i].Used {
			visible++
		}
		if current+1 < limit {
			current++
		}
	}

	slog.Debug("emitters repositioned",
		"nearest", s.nearest,
		"locations", n,
		"visible", visible)
}

// SetSlotScale sets the destination scale of slot i to scale multiplied by
// the configured ScaleMultiplier.
func (s *Scheduler) SetSlotScale(i int, scale model.Vector) error {
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("%w: %d", ErrSlotIndex, i)
	}
	slot := &s.slots[i]
	slot.Destination = slot.Destination.WithScale(scale.Mul(s.cfg.ScaleMultiplier))
	if slot.Bound() && s.mover != nil {
		s.mover.SetDestination(slot.Handle, slot.Destination)
	}
	return nil
}

// Release unbinds every slot. Hosted objects stay with the host.
func (s *Scheduler) Release() {
	for i := range s.slots {
		s.slots[i].unbind()
	}
	s.slots = nil
	s.nearest = 0
	slog.Info("emitter pool released")
}
