package world

import (
	"math"
	"sync"
	"time"

	"github.com/udisondev/synesthesia/internal/model"
	"github.com/udisondev/synesthesia/internal/spawn"
)

// Walker is a simulated listener moving along a straight line at constant speed.
// Safe for concurrent use.
type Walker struct {
	mu        sync.RWMutex
	position  model.Vector
	direction model.Vector
	speed     float64 // units per second
	available bool
	travelled float64
}

// NewWalker creates an available walker at start.
func NewWalker(start, direction model.Vector, speed float64) *Walker {
	return &Walker{
		position:  start,
		direction: direction.Normalize(),
		speed:     speed,
		available: true,
	}
}

// Advance moves the walker by speed*dt along its direction.
func (w *Walker) Advance(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.speed * dt.Seconds()
	w.position = w.position.Add(w.direction.Scale(d))
	w.travelled += math.Abs(d)
}

// Position implements spawn.ListenerLocator.
func (w *Walker) Position() (model.Vector, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.position, w.available
}

// SetAvailable simulates the listener dropping out and coming back.
func (w *Walker) SetAvailable(available bool) {
	w.mu.Lock()
	w.available = available
	w.mu.Unlock()
}

// Teleport moves the walker to p.
func (w *Walker) Teleport(p model.Vector) {
	w.mu.Lock()
	w.position = p
	w.mu.Unlock()
}

// SetSpeed changes the speed. Negative speeds walk backwards.
func (w *Walker) SetSpeed(speed float64) {
	w.mu.Lock()
	w.speed = speed
	w.mu.Unlock()
}

// Travelled returns the total distance walked.
func (w *Walker) Travelled() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.travelled
}

var _ spawn.ListenerLocator = (*Walker)(nil)
