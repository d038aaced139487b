package overlay

import (
	"sync"

	"jordanella.com/aim-loop-go/internal/events"
)

// BusSink forwards overlay updates to the event bus. A hide is only
// published after something was shown.
type BusSink struct {
	bus events.EventBus

	mu      sync.Mutex
	visible bool
	last    State
}

// NewBusSink creates a sink publishing on bus
func NewBusSink(bus events.EventBus) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) Show(st State) {
	s.mu.Lock()
	s.visible = true
	s.last = st
	s.mu.Unlock()

	ev := events.NewTargetFoundEvent(st.ClassName, st.Confidence, st.Box.X, st.Box.Y, st.Box.Width, st.Box.Height, st.Label)
	if st.Tracer != nil {
		ev.Data["tracer_x"] = st.Tracer.X
		ev.Data["tracer_y"] = st.Tracer.Y
	}
	s.bus.Publish(ev)
}

func (s *BusSink) Hide() {
	s.mu.Lock()
	wasVisible := s.visible
	s.visible = false
	s.mu.Unlock()

	if wasVisible {
		s.bus.Publish(events.NewTargetLostEvent())
	}
}

// Current returns the last shown state and whether it is still visible
func (s *BusSink) Current() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.visible
}
