package spawn

import "github.com/udisondev/synesthesia/internal/model"

// SlotState is the lifecycle state of a pooled emitter.
type SlotState int

const (
	SlotUninitialized SlotState = iota // no bound object
	SlotBound                          // bound, not yet positioned
	SlotVisible                        // positioned within spawn range
	SlotHidden                         // positioned out of range
)

func (s SlotState) String() string {
	switch s {
	case SlotUninitialized:
		return "uninitialized"
	case SlotBound:
		return "bound"
	case SlotVisible:
		return "visible"
	case SlotHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Slot is one pooled emitter. The host owns the object behind Handle.
type Slot struct {
	Handle        Handle
	Destination   model.Transform // where the hosted object should move to
	LocationIndex int             // location this slot orbits
	Used          bool            // visible to the listener
	State         SlotState
}

// Bound reports whether the slot refers to a hosted object.
func (s Slot) Bound() bool {
	return s.State != SlotUninitialized
}

func (s *Slot) unbind() {
	s.Handle = 0
	s.Used = false
	s.State = SlotUninitialized
}
