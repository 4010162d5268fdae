// Package clock provides the musical clock that drives spawner ticks.
package clock

import "github.com/udisondev/synesthesia/internal/notify"

// Event is a quantized clock tick.
type Event struct {
	Clock        string
	Quantization Quantization
	NumBars      int     // bars completed before this tick
	Beat         int     // 1-based beat within the bar
	BeatFraction float64 // position within the beat, [0,1)
}

// Handler receives clock events.
type Handler func(Event)

// Source delivers quantized events to subscribers.
type Source interface {
	Subscribe(q Quantization, fn Handler) notify.Handle
}
