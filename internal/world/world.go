// Package world hosts the emitter objects and the simulated listener.
package world

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/synesthesia/internal/model"
	"github.com/udisondev/synesthesia/internal/spawn"
)

var (
	// ErrUnknownPrototype is returned by Spawn for an unregistered prototype.
	ErrUnknownPrototype = errors.New("unknown prototype")

	// ErrCapacity is returned by Spawn when the world is full.
	ErrCapacity = errors.New("world object capacity reached")
)

// Object is a snapshot of a hosted object.
type Object struct {
	Handle      spawn.Handle
	Prototype   string
	Transform   model.Transform // current
	Destination model.Transform // target the object moves toward
	Visible     bool
	Collidable  bool
}

// World is the object table.
// Writers are serialized by the caller; readers (Objects, Get) may run concurrently.
type World struct {
	prototypes sync.Map // map[string]struct{}
	objects    sync.Map // map[spawn.Handle]*Object, replaced on every write

	nextHandle atomic.Uint32
	count      atomic.Int32
	capacity   int // 0 = unlimited
}

// New creates an empty world. capacity 0 means unlimited.
func New(capacity int) *World {
	return &World{capacity: capacity}
}

// RegisterPrototype makes name spawnable.
func (w *World) RegisterPrototype(name string) {
	w.prototypes.Store(name, struct{}{})
}

// Spawn creates an object of prototype at t, hidden and not collidable.
func (w *World) Spawn(prototype string, t model.Transform) (spawn.Handle, error) {
	if _, ok := w.prototypes.Load(prototype); !ok {
		return 0, fmt.Errorf("spawning %q: %w", prototype, ErrUnknownPrototype)
	}
	if w.capacity > 0 && int(w.count.Load()) >= w.capacity {
		return 0, fmt.Errorf("spawning %q: %w (%d)", prototype, ErrCapacity, w.capacity)
	}

	h := spawn.Handle(w.nextHandle.Add(1))
	w.objects.Store(h, &Object{
		Handle:      h,
		Prototype:   prototype,
		Transform:   t,
		Destination: t,
	})
	w.count.Add(1)
	slog.Debug("object spawned", "handle", h, "prototype", prototype, "position", t.Position)
	return h, nil
}

// update applies fn to a copy of object h and stores it.
func (w *World) update(h spawn.Handle, fn func(*Object)) bool {
	value, ok := w.objects.Load(h)
	if !ok {
		return false
	}
	obj := *value.(*Object)
	fn(&obj)
	w.objects.Store(h, &obj)
	return true
}

// SetVisible shows or hides object h.
func (w *World) SetVisible(h spawn.Handle, visible bool) {
	w.update(h, func(o *Object) { o.Visible = visible })
}

// SetCollidable toggles collision of object h.
func (w *World) SetCollidable(h spawn.Handle, collidable bool) {
	w.update(h, func(o *Object) { o.Collidable = collidable })
}

// SetDestination sets where object h moves to; Step advances it.
func (w *World) SetDestination(h spawn.Handle, t model.Transform) {
	w.update(h, func(o *Object) { o.Destination = t })
}

// Exists reports whether h refers to a live object.
func (w *World) Exists(h spawn.Handle) bool {
	_, ok := w.objects.Load(h)
	return ok
}

// Remove destroys object h.
func (w *World) Remove(h spawn.Handle) bool {
	if _, ok := w.objects.LoadAndDelete(h); !ok {
		return false
	}
	w.count.Add(-1)
	slog.Debug("object removed", "handle", h)
	return true
}

// Get returns a snapshot of object h.
func (w *World) Get(h spawn.Handle) (Object, bool) {
	value, ok := w.objects.Load(h)
	if !ok {
		return Object{}, false
	}
	return *value.(*Object), true
}

// Objects returns snapshots of all objects, in no particular order.
func (w *World) Objects() []Object {
	out := make([]Object, 0, w.count.Load())
	w.objects.Range(func(_, value any) bool {
		out = append(out, *value.(*Object))
		return true
	})
	return out
}

// ObjectCount returns the number of live objects.
func (w *World) ObjectCount() int {
	return int(w.count.Load())
}

// Step moves every object alpha of the way toward its destination.
// alpha 1 snaps objects onto their destinations.
func (w *World) Step(alpha float64) {
	w.objects.Range(func(key, _ any) bool {
		w.update(key.(spawn.Handle), func(o *Object) {
			o.Transform = model.Lerp(o.Transform, o.Destination, alpha)
		})
		return true
	})
}

var (
	_ spawn.ObjectHost = (*World)(nil)
	_ spawn.Mover      = (*World)(nil)
)
