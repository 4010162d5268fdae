package spawn

import (
	"log/slog"

	"github.com/udisondev/synesthesia/internal/model"
)

// Handle is an opaque reference to an object owned by the host.
// The zero Handle is never valid.
type Handle uint32

// GroundProbeService answers ray queries against static geometry.
type GroundProbeService interface {
	// Probe casts a ray and returns the first hit within maxDistance.
	Probe(origin, direction model.Vector, maxDistance float64) (hit model.Vector, ok bool)
}

// ListenerLocator reports the listener (player) position.
type ListenerLocator interface {
	// Position returns false while the listener is transiently unavailable.
	Position() (model.Vector, bool)
}

// ObjectHost owns the hosted visual/audio objects. The spawner never destroys them.
type ObjectHost interface {
	Spawn(prototype string, t model.Transform) (Handle, error)
	SetVisible(h Handle, visible bool)
	SetCollidable(h Handle, collidable bool)
	// Exists reports whether h still refers to a live object.
	Exists(h Handle) bool
}

// Mover is an optional ObjectHost capability: hosts implementing it receive
// every new destination transform.
type Mover interface {
	SetDestination(h Handle, t model.Transform)
}

// ListenerLocatorFunc adapts a function to ListenerLocator.
type ListenerLocatorFunc func() (model.Vector, bool)

func (f ListenerLocatorFunc) Position() (model.Vector, bool) { return f() }

// ListenerTracker falls back to the last known listener position when the
// locator is missing or temporarily unavailable.
type ListenerTracker struct {
	locator ListenerLocator
	last    model.Vector
	misses  int
}

// NewListenerTracker creates a tracker whose fallback starts at anchor.
func NewListenerTracker(locator ListenerLocator, anchor model.Vector) *ListenerTracker {
	return &ListenerTracker{locator: locator, last: anchor}
}

// Position returns the current listener position or the last known one.
func (t *ListenerTracker) Position() model.Vector {
	if t.locator != nil {
		if pos, ok := t.locator.Position(); ok {
			if t.misses > 0 {
				slog.Debug("listener available again", "missed", t.misses)
				t.misses = 0
			}
			t.last = pos
			return pos
		}
	}
	if t.misses == 0 {
		slog.Warn("listener unavailable, using last known position", "position", t.last)
	}
	t.misses++
	return t.last
}

// Last returns the most recent known position without querying the locator.
func (t *ListenerTracker) Last() model.Vector {
	return t.last
}
