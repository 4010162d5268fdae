// Package debug carries the spawner debug switch and the diagnostic drawing contract.
//
// One Authority owns the switch and broadcasts every change; each component
// holds a Gate that mirrors the switch and forwards draw requests to a Sink
// only while debugging is on. Drawing never affects spawner state.
package debug

import (
	"log/slog"

	"github.com/udisondev/synesthesia/internal/model"
	"github.com/udisondev/synesthesia/internal/notify"
)

// Shape parameters used by the spawner visualizations.
const (
	CircleSegments = 22
	PointSize      = 20.0
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Debug colors.
var (
	Blue    = Color{R: 0, G: 0, B: 255, A: 255}
	Magenta = Color{R: 255, G: 0, B: 255, A: 255}
	Yellow  = Color{R: 255, G: 255, B: 0, A: 255}
)

// Sink renders diagnostic shapes. Implemented by the host.
type Sink interface {
	DrawCircle(center model.Vector, radius float64, segments int, c Color)
	DrawPoint(point model.Vector, size float64, c Color)
}

// NopSink discards every shape.
type NopSink struct{}

func (NopSink) DrawCircle(model.Vector, float64, int, Color) {}
func (NopSink) DrawPoint(model.Vector, float64, Color)       {}

// LogSink writes shapes to slog at debug level.
type LogSink struct{}

func (LogSink) DrawCircle(center model.Vector, radius float64, segments int, c Color) {
	slog.Debug("debug circle", "center", center, "radius", radius, "segments", segments, "color", c)
}

func (LogSink) DrawPoint(point model.Vector, size float64, c Color) {
	slog.Debug("debug point", "point", point, "size", size, "color", c)
}

// Authority is the central owner of the debug switch.
type Authority struct {
	enabled bool
	toggled notify.Registry[bool]
}

// NewAuthority creates an Authority with the given initial state.
func NewAuthority(enabled bool) *Authority {
	return &Authority{enabled: enabled}
}

// Enabled reports the current state.
func (a *Authority) Enabled() bool {
	return a.enabled
}

// SetEnabled changes the state and broadcasts it to subscribers.
// Setting the current value again is not broadcast.
func (a *Authority) SetEnabled(enabled bool) {
	if a.enabled == enabled {
		return
	}
	a.enabled = enabled
	slog.Info("spawner debug toggled", "enabled", enabled)
	a.toggled.Publish(enabled)
}

// Toggle flips the state.
func (a *Authority) Toggle() {
	a.SetEnabled(!a.enabled)
}

// Broadcast re-sends the current state to every subscriber.
func (a *Authority) Broadcast() {
	a.toggled.Publish(a.enabled)
}

// Subscribe registers fn for state changes.
func (a *Authority) Subscribe(fn func(bool)) notify.Handle {
	return a.toggled.Subscribe(fn)
}

// Unsubscribe removes a subscription.
func (a *Authority) Unsubscribe(h notify.Handle) bool {
	return a.toggled.Unsubscribe(h)
}

// Gate mirrors the debug switch for one component.
type Gate struct {
	sink    Sink
	enabled bool
}

// NewGate creates a disabled gate drawing to sink. A nil sink draws nothing.
func NewGate(sink Sink) *Gate {
	if sink == nil {
		sink = NopSink{}
	}
	return &Gate{sink: sink}
}

// Attach subscribes the gate to a and adopts its current state.
func (g *Gate) Attach(a *Authority) notify.Handle {
	g.enabled = a.Enabled()
	return a.Subscribe(g.SetEnabled)
}

// SetEnabled sets the gate state directly.
func (g *Gate) SetEnabled(enabled bool) {
	g.enabled = enabled
}

// Enabled reports whether shapes are forwarded.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// DrawCircle forwards to the sink while enabled.
func (g *Gate) DrawCircle(center model.Vector, radius float64, segments int, c Color) {
	if !g.enabled {
		return
	}
	g.sink.DrawCircle(center, radius, segments, c)
}

// DrawPoint forwards to the sink while enabled.
func (g *Gate) DrawPoint(point model.Vector, size float64, c Color) {
	if !g.enabled {
		return
	}
	g.sink.DrawPoint(point, size, c)
}
