// Package view draws the spawner debug overlay in a terminal.
package view

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
)

// ErrQuit is returned by Run when the key handler asks to stop.
var ErrQuit = errors.New("view closed by user")

// Glyphs.
const (
	glyphCircle   = '·'
	glyphPoint    = '+'
	glyphVisible  = '■'
	glyphHidden   = '□'
	glyphListener = '@'
)

// Marker is a hosted object as the view sees it.
type Marker struct {
	Position model.Vector
	Visible  bool
}

type shape struct {
	circle   bool
	center   model.Vector
	radius   float64
	segments int
	style    tcell.Style
}

// Terminal is a debug.Sink that keeps the most recent shapes and renders them
// top-down onto a tcell screen. World X grows right, Y grows up; a cell is
// twice as tall as it is wide.
// Draw calls and Render may come from different goroutines.
type Terminal struct {
	mu sync.Mutex

	screen       tcell.Screen
	unitsPerCell float64
	maxShapes    int

	shapes      []shape
	camera      model.Vector
	listener    model.Vector
	hasListener bool
	markers     []Marker
	status      string
}

// NewTerminal wraps an initialized screen. The caller owns Init and Fini.
func NewTerminal(screen tcell.Screen, unitsPerCell float64, maxShapes int) *Terminal {
	if unitsPerCell <= 0 {
		unitsPerCell = 1
	}
	if maxShapes <= 0 {
		maxShapes = 512
	}
	return &Terminal{
		screen:       screen,
		unitsPerCell: unitsPerCell,
		maxShapes:    maxShapes,
	}
}

// DrawCircle implements debug.Sink.
func (t *Terminal) DrawCircle(center model.Vector, radius float64, segments int, c debug.Color) {
	t.push(shape{circle: true, center: center, radius: radius, segments: segments, style: styleFor(c)})
}

// DrawPoint implements debug.Sink.
func (t *Terminal) DrawPoint(point model.Vector, _ float64, c debug.Color) {
	t.push(shape{center: point, style: styleFor(c)})
}

func (t *Terminal) push(s shape) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.shapes) >= t.maxShapes {
		n := copy(t.shapes, t.shapes[len(t.shapes)-t.maxShapes+1:])
		t.shapes = t.shapes[:n]
	}
	t.shapes = append(t.shapes, s)
}

// ShapeCount returns the number of retained shapes.
func (t *Terminal) ShapeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.shapes)
}

// ClearShapes drops every retained shape.
func (t *Terminal) ClearShapes() {
	t.mu.Lock()
	t.shapes = t.shapes[:0]
	t.mu.Unlock()
}

// SetCamera centers the view on p.
func (t *Terminal) SetCamera(p model.Vector) {
	t.mu.Lock()
	t.camera = p
	t.mu.Unlock()
}

// SetListener marks the listener position.
func (t *Terminal) SetListener(p model.Vector) {
	t.mu.Lock()
	t.listener = p
	t.hasListener = true
	t.mu.Unlock()
}

// SetObjects replaces the hosted object markers.
func (t *Terminal) SetObjects(markers []Marker) {
	t.mu.Lock()
	t.markers = append(t.markers[:0], markers...)
	t.mu.Unlock()
}

// SetStatus sets the text of the top line.
func (t *Terminal) SetStatus(s string) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Project maps a world position to a screen cell.
func (t *Terminal) Project(p model.Vector) (x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.project(p)
}

func (t *Terminal) project(p model.Vector) (int, int) {
	w, h := t.screen.Size()
	dx := (p.X - t.camera.X) / t.unitsPerCell
	dy := (p.Y - t.camera.Y) / (2 * t.unitsPerCell)
	return w/2 + int(math.Round(dx)), h/2 - int(math.Round(dy))
}

func (t *Terminal) set(x, y int, r rune, style tcell.Style) {
	w, h := t.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	t.screen.SetContent(x, y, r, nil, style)
}

// Render redraws the whole screen.
func (t *Terminal) Render() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()

	for _, s := range t.shapes {
		if !s.circle {
			continue
		}
		segments := max(s.segments, 3)
		for i := range segments {
			a := 2 * math.Pi * float64(i) / float64(segments)
			x, y := t.project(s.center.Add(model.Vector{X: s.radius * math.Cos(a), Y: s.radius * math.Sin(a)}))
			t.set(x, y, glyphCircle, s.style)
		}
	}
	for _, s := range t.shapes {
		if s.circle {
			continue
		}
		x, y := t.project(s.center)
		t.set(x, y, glyphPoint, s.style)
	}

	for _, m := range t.markers {
		x, y := t.project(m.Position)
		if m.Visible {
			t.set(x, y, glyphVisible, tcell.StyleDefault.Foreground(tcell.ColorWhite))
		} else {
			t.set(x, y, glyphHidden, tcell.StyleDefault.Foreground(tcell.ColorGray))
		}
	}

	if t.hasListener {
		x, y := t.project(t.listener)
		t.set(x, y, glyphListener, tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true))
	}

	status := t.status
	if status == "" {
		status = fmt.Sprintf("shapes:%d objects:%d", len(t.shapes), len(t.markers))
	}
	for i, r := range status {
		t.set(i, 0, r, tcell.StyleDefault.Reverse(true))
	}

	t.screen.Show()
}

// Run renders at fps and forwards key events to keys until ctx is done or
// keys returns false, in which case it returns ErrQuit. before runs ahead of
// every frame. Events keep arriving until the caller calls Fini.
func (t *Terminal) Run(ctx context.Context, fps int, before func(), keys func(*tcell.EventKey) bool) error {
	if fps <= 0 {
		fps = 20
	}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if keys != nil && !keys(ev) {
					return ErrQuit
				}
			case *tcell.EventResize:
				t.screen.Sync()
			}
		case <-ticker.C:
			if before != nil {
				before()
			}
			t.Render()
		}
	}
}

func styleFor(c debug.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
}

var _ debug.Sink = (*Terminal)(nil)
