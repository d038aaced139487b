package display

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbinani/screenshot"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
)

// Display is one attached monitor
type Display struct {
	Index  int
	Bounds capture.Rect
}

// Enumerator lists the bounds of every active display
type Enumerator func() []capture.Rect

// ScreenshotEnumerator enumerates displays through kbinani/screenshot
func ScreenshotEnumerator() []capture.Rect {
	n := screenshot.NumActiveDisplays()
	out := make([]capture.Rect, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		out = append(out, capture.Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()})
	}
	return out
}

// Manager tracks the selected display and reports when its bounds change
type Manager struct {
	mu        sync.RWMutex
	enumerate Enumerator
	displays  []capture.Rect
	selected  int
	listeners []func(capture.Rect)

	bus    events.EventBus
	logger *logging.Logger
}

// NewManager enumerates displays and selects index, falling back to the primary display
func NewManager(enumerate Enumerator, selected int, bus events.EventBus) (*Manager, error) {
	m := &Manager{
		enumerate: enumerate,
		bus:       bus,
		logger:    logging.NewLogger("Display"),
	}

	m.displays = enumerate()
	if len(m.displays) == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	if selected < 0 || selected >= len(m.displays) {
		m.logger.WarnWithContext("Selected display not found, using primary", map[string]interface{}{
			"selected": selected,
			"count":    len(m.displays),
		})
		selected = 0
	}
	m.selected = selected

	return m, nil
}

// Displays returns every known display
func (m *Manager) Displays() []Display {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Display, len(m.displays))
	for i, b := range m.displays {
		out[i] = Display{Index: i, Bounds: b}
	}
	return out
}

// Current returns the bounds of the selected display
func (m *Manager) Current() capture.Rect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.displays[m.selected]
}

// SelectedIndex returns the selected display's index
func (m *Manager) SelectedIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// IsPointInCurrentDisplay reports whether an absolute screen point lies on the selected display
func (m *Manager) IsPointInCurrentDisplay(x, y int) bool {
	return m.Current().Contains(x, y)
}

// OnChange registers fn to receive the selected display's new bounds
func (m *Manager) OnChange(fn func(capture.Rect)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Select switches to the display at index
func (m *Manager) Select(index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.displays) {
		m.mu.Unlock()
		return fmt.Errorf("display %d out of range (have %d)", index, len(m.displays))
	}
	changed := index != m.selected
	m.selected = index
	m.mu.Unlock()

	if changed {
		m.notify()
	}
	return nil
}

// Refresh re-enumerates displays and notifies listeners if the selected display moved or resized
func (m *Manager) Refresh() bool {
	displays := m.enumerate()
	if len(displays) == 0 {
		return false
	}

	m.mu.Lock()
	before := m.displays[m.selected]
	m.displays = displays
	if m.selected >= len(displays) {
		m.selected = 0
	}
	changed := displays[m.selected] != before
	m.mu.Unlock()

	if changed {
		m.notify()
	}
	return changed
}

func (m *Manager) notify() {
	m.mu.RLock()
	index := m.selected
	bounds := m.displays[index]
	listeners := append([]func(capture.Rect){}, m.listeners...)
	m.mu.RUnlock()

	m.logger.InfoWithContext("Display changed", map[string]interface{}{
		"index":  index,
		"bounds": bounds,
	})
	if m.bus != nil {
		m.bus.Publish(events.NewDisplayChangedEvent(index, bounds.X, bounds.Y, bounds.Width, bounds.Height))
	}
	for _, fn := range listeners {
		fn(bounds)
	}
}

// Watch polls for display changes until ctx is cancelled
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}
