package clock

import (
	"fmt"
	"strings"
)

// Quantization is a rhythmic boundary class attached to every clock event.
type Quantization int

const (
	QuantizationNone Quantization = iota
	ThirtySecondNote
	SixteenthNote
	EighthNote
	QuarterNote
	HalfNote
	WholeNote
	Beat
	Bar
)

var quantizationNames = map[Quantization]string{
	QuantizationNone: "none",
	ThirtySecondNote: "thirty_second_note",
	SixteenthNote:    "sixteenth_note",
	EighthNote:       "eighth_note",
	QuarterNote:      "quarter_note",
	HalfNote:         "half_note",
	WholeNote:        "whole_note",
	Beat:             "beat",
	Bar:              "bar",
}

// emitOrder lists classes coarsest first; a boundary fires them in this order.
var emitOrder = []Quantization{Bar, WholeNote, HalfNote, Beat, QuarterNote, EighthNote, SixteenthNote, ThirtySecondNote}

// String returns the config name of q.
func (q Quantization) String() string {
	if name, ok := quantizationNames[q]; ok {
		return name
	}
	return fmt.Sprintf("quantization(%d)", int(q))
}

// ParseQuantization parses a config name (case-insensitive, '-' accepted for '_').
func ParseQuantization(s string) (Quantization, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for q, name := range quantizationNames {
		if name == key {
			return q, nil
		}
	}
	return QuantizationNone, fmt.Errorf("unknown quantization %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (q Quantization) MarshalText() ([]byte, error) {
	if _, ok := quantizationNames[q]; !ok {
		return nil, fmt.Errorf("unknown quantization %d", int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quantization) UnmarshalText(text []byte) error {
	parsed, err := ParseQuantization(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// gridSteps returns how many 32nd-note grid steps separate boundaries of q.
func (q Quantization) gridSteps(beatsPerBar int) int {
	switch q {
	case ThirtySecondNote:
		return 1
	case SixteenthNote:
		return 2
	case EighthNote:
		return 4
	case QuarterNote, Beat:
		return stepsPerBeat
	case HalfNote:
		return 2 * stepsPerBeat
	case WholeNote:
		return 4 * stepsPerBeat
	case Bar:
		return beatsPerBar * stepsPerBeat
	default:
		return 0
	}
}
