package view

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/synesthesia/internal/debug"
	"github.com/udisondev/synesthesia/internal/model"
)

func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)
	return NewTerminal(screen, 10, 8), screen
}

func runeAt(screen tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func TestTerminal_Project(t *testing.T) {
	term, _ := newTestTerminal(t)

	x, y := term.Project(model.Vector{})
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)

	x, y = term.Project(model.Vector{X: 100, Y: 40, Z: 999})
	assert.Equal(t, 50, x)
	assert.Equal(t, 10, y, "Y grows up, cells are twice as tall")

	term.SetCamera(model.Vector{X: 100, Y: 40})
	x, y = term.Project(model.Vector{X: 100, Y: 40})
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)
}

func TestTerminal_RenderShapes(t *testing.T) {
	term, screen := newTestTerminal(t)

	term.DrawPoint(model.Vector{X: 50}, debug.PointSize, debug.Magenta)
	term.DrawCircle(model.Vector{}, 100, 4, debug.Blue)
	term.SetListener(model.Vector{X: -50})
	term.SetObjects([]Marker{
		{Position: model.Vector{X: 0, Y: 100}, Visible: true},
		{Position: model.Vector{X: 0, Y: -100}, Visible: false},
	})

	term.Render()

	assert.Equal(t, glyphPoint, runeAt(screen, 45, 12))
	assert.Equal(t, glyphCircle, runeAt(screen, 50, 12), "circle vertex at angle 0")
	assert.Equal(t, glyphCircle, runeAt(screen, 30, 12), "circle vertex at angle 180")
	assert.Equal(t, glyphListener, runeAt(screen, 35, 12))
	assert.Equal(t, glyphVisible, runeAt(screen, 40, 7))
	assert.Equal(t, glyphHidden, runeAt(screen, 40, 17))

	_, _, style, _ := screen.GetContent(45, 12)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 0, 255), fg)
}

func TestTerminal_StatusLine(t *testing.T) {
	term, screen := newTestTerminal(t)

	term.SetStatus("debug on")
	term.Render()

	assert.Equal(t, 'd', runeAt(screen, 0, 0))
	assert.Equal(t, 'n', runeAt(screen, 7, 0))
}

func TestTerminal_OffscreenIgnored(t *testing.T) {
	term, _ := newTestTerminal(t)

	term.DrawPoint(model.Vector{X: 1e6, Y: -1e6}, 1, debug.Yellow)
	assert.NotPanics(t, term.Render)
}

func TestTerminal_RetainsRecentShapes(t *testing.T) {
	term, _ := newTestTerminal(t)

	for i := range 20 {
		term.DrawPoint(model.Vector{X: float64(i)}, 1, debug.Blue)
	}
	assert.Equal(t, 8, term.ShapeCount())
	assert.Equal(t, 19.0, term.shapes[7].center.X)
	assert.Equal(t, 12.0, term.shapes[0].center.X)

	term.ClearShapes()
	assert.Equal(t, 0, term.ShapeCount())
}

func TestTerminal_Run(t *testing.T) {
	term, screen := newTestTerminal(t)

	var keys []rune
	done := make(chan error, 1)
	go func() {
		done <- term.Run(context.Background(), 100, nil, func(ev *tcell.EventKey) bool {
			keys = append(keys, ev.Rune())
			return ev.Rune() != 'q'
		})
	}()

	screen.InjectKey(tcell.KeyRune, 'd', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQuit)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on q")
	}
	assert.Equal(t, []rune{'d', 'q'}, keys)
}

func TestTerminal_Run_ContextCancel(t *testing.T) {
	term, _ := newTestTerminal(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, term.Run(ctx, 50, nil, nil))
}
