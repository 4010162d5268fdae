package clock

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/udisondev/synesthesia/internal/notify"
)

// Tempo limits.
const (
	MinBPM = 20
	MaxBPM = 400

	stepsPerBeat = 8 // grid resolution is the 32nd note
)

const (
	clickFrequency = 1760.0
	clickDuration  = 15 * time.Millisecond
	clickVolume    = 0.25
)

// Settings configures a Metronome.
type Settings struct {
	Name        string
	SampleRate  beep.SampleRate
	BPM         int
	BeatsPerBar int
	Click       bool // audible click on every beat
}

// Metronome is a sample-accurate beat clock.
//
// It implements beep.Streamer so an audio device can drive it; Advance drives
// it without audio. Events are published synchronously on the goroutine that
// streams. Subscribe must be called before streaming starts.
type Metronome struct {
	name        string
	sampleRate  beep.SampleRate
	beatsPerBar int
	click       bool

	bpm atomic.Int32

	position     int64   // samples streamed so far
	nextBoundary float64 // sample position of the next grid step
	step         int64   // index of the next grid step
	clickLeft    int     // click samples still to render

	handlers map[Quantization]*notify.Registry[Event]
	all      notify.Registry[Event]
}

// NewMetronome creates a metronome positioned at bar 0, beat 1.
func NewMetronome(s Settings) *Metronome {
	if s.SampleRate <= 0 {
		s.SampleRate = beep.SampleRate(48000)
	}
	if s.BeatsPerBar <= 0 {
		s.BeatsPerBar = 4
	}
	m := &Metronome{
		name:        s.Name,
		sampleRate:  s.SampleRate,
		beatsPerBar: s.BeatsPerBar,
		click:       s.Click,
		handlers:    make(map[Quantization]*notify.Registry[Event]),
	}
	m.SetBPM(s.BPM)
	return m
}

// Name returns the clock name carried by every event.
func (m *Metronome) Name() string {
	return m.name
}

// SampleRate returns the streaming sample rate.
func (m *Metronome) SampleRate() beep.SampleRate {
	return m.sampleRate
}

// BPM returns the current tempo.
func (m *Metronome) BPM() int {
	return int(m.bpm.Load())
}

// SetBPM updates tempo. The new tempo applies from the next grid step on.
func (m *Metronome) SetBPM(bpm int) {
	if bpm < MinBPM {
		bpm = MinBPM
	} else if bpm > MaxBPM {
		bpm = MaxBPM
	}
	m.bpm.Store(int32(bpm))
}

// Subscribe registers fn for one quantization class.
func (m *Metronome) Subscribe(q Quantization, fn Handler) notify.Handle {
	r, ok := m.handlers[q]
	if !ok {
		r = &notify.Registry[Event]{}
		m.handlers[q] = r
	}
	return r.Subscribe(fn)
}

// SubscribeAll registers fn for every event regardless of class.
func (m *Metronome) SubscribeAll(fn Handler) notify.Handle {
	return m.all.Subscribe(fn)
}

// Elapsed returns the streamed time.
func (m *Metronome) Elapsed() time.Duration {
	return m.sampleRate.D(int(m.position))
}

// Stream implements beep.Streamer. It writes silence (or a click on beats)
// and publishes events for every grid step crossed.
func (m *Metronome) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		m.advanceOne()
		v := m.clickSample()
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (m *Metronome) Err() error {
	return nil
}

// Advance moves the clock forward by n samples without producing audio.
func (m *Metronome) Advance(n int) {
	for range n {
		m.advanceOne()
	}
	m.clickLeft = 0
}

// AdvanceDuration moves the clock forward by d.
func (m *Metronome) AdvanceDuration(d time.Duration) {
	m.Advance(m.sampleRate.N(d))
}

func (m *Metronome) advanceOne() {
	for float64(m.position) >= m.nextBoundary {
		m.emit(m.step)
		m.step++
		m.nextBoundary += m.samplesPerStep()
	}
	m.position++
}

func (m *Metronome) samplesPerStep() float64 {
	return float64(m.sampleRate) * 60 / float64(m.bpm.Load()) / stepsPerBeat
}

func (m *Metronome) emit(step int64) {
	stepsPerBar := int64(m.beatsPerBar * stepsPerBeat)
	base := Event{
		Clock:        m.name,
		NumBars:      int(step / stepsPerBar),
		Beat:         int((step/stepsPerBeat)%int64(m.beatsPerBar)) + 1,
		BeatFraction: float64(step%stepsPerBeat) / stepsPerBeat,
	}

	if step%stepsPerBeat == 0 && m.click {
		m.clickLeft = m.sampleRate.N(clickDuration)
	}

	for _, q := range emitOrder {
		if step%int64(q.gridSteps(m.beatsPerBar)) != 0 {
			continue
		}
		ev := base
		ev.Quantization = q
		if r, ok := m.handlers[q]; ok {
			r.Publish(ev)
		}
		m.all.Publish(ev)
	}

	if step%stepsPerBar == 0 {
		slog.Debug("clock bar", "clock", m.name, "bar", base.NumBars, "bpm", m.BPM())
	}
}

func (m *Metronome) clickSample() float64 {
	if m.clickLeft <= 0 {
		return 0
	}
	total := m.sampleRate.N(clickDuration)
	elapsed := total - m.clickLeft
	m.clickLeft--
	env := float64(m.clickLeft) / float64(total)
	t := float64(elapsed) / float64(m.sampleRate)
	return clickVolume * env * math.Sin(2*math.Pi*clickFrequency*t)
}

var _ beep.Streamer = (*Metronome)(nil)
