package actuator

import (
	"sync"
	"time"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/detect"
	"jordanella.com/aim-loop-go/internal/logging"
)

const (
	// MaxStep caps a single relative move on either axis
	MaxStep = 150

	clickHold = 20 * time.Millisecond
)

// MoveOptions describe where the crosshair sits and how far one move goes
type MoveOptions struct {
	// Display is the selected display; its centre is treated as the crosshair
	Display capture.Rect
	// Sensitivity in [0,1]; higher values take smaller steps towards the target
	Sensitivity float64
}

// TriggerState is the key and toggle state the trigger decision needs
type TriggerState struct {
	AimHeld     bool
	SecondHeld  bool
	SprayMode   bool
	CursorCheck bool
	// Delay is the minimum time between two single clicks
	Delay time.Duration
}

// Mouse turns target coordinates into pointer moves and clicks.
// Click timing and spray state are kept here, not in the caller.
type Mouse struct {
	pointer Pointer
	logger  *logging.Logger

	mu        sync.Mutex
	spraying  bool
	lastClick time.Time
	now       func() time.Time
	sleep     func(time.Duration)
}

// NewMouse wraps a pointer backend
func NewMouse(p Pointer) *Mouse {
	return &Mouse{
		pointer: p,
		logger:  logging.NewLogger("Actuator"),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// WithClock replaces the clock and the sleep used between button down and up
func (m *Mouse) WithClock(now func() time.Time, sleep func(time.Duration)) *Mouse {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	m.sleep = sleep
	return m
}

// CursorPosition returns the pointer position in absolute screen coordinates
func (m *Mouse) CursorPosition() (int, int) {
	return m.pointer.Location()
}

// MoveTowards moves the pointer part of the way from the display centre to
// (x, y) and returns the relative step that was sent.
func (m *Mouse) MoveTowards(x, y int, opts MoveOptions) (dx, dy int) {
	cx := opts.Display.X + opts.Display.Width/2
	cy := opts.Display.Y + opts.Display.Height/2

	t := 1 - opts.Sensitivity
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	dx = clampStep(int(float64(x-cx) * t))
	dy = clampStep(int(float64(y-cy) * t))
	if dx == 0 && dy == 0 {
		return 0, 0
	}
	m.pointer.MoveRelative(dx, dy)
	return dx, dy
}

// TriggerClick fires at the current target. box is the target in screen
// coordinates and may be nil when no cursor gate applies. In spray mode the
// button is held instead of clicked. It reports whether the button state changed.
func (m *Mouse) TriggerClick(box *detect.Box, st TriggerState) bool {
	if !st.AimHeld && !st.SecondHeld {
		return m.ResetSpray()
	}

	if st.SprayMode {
		if st.CursorCheck && box != nil {
			x, y := m.pointer.Location()
			if !box.Contains(float32(x), float32(y)) {
				return m.release()
			}
		}
		return m.hold()
	}

	m.mu.Lock()
	now, sleep := m.now(), m.sleep
	if !m.lastClick.IsZero() && now.Sub(m.lastClick) < st.Delay {
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()

	m.pointer.Down()
	sleep(clickHold)
	m.pointer.Up()

	m.mu.Lock()
	m.lastClick = m.now()
	m.mu.Unlock()
	return true
}

// ResetSpray releases the button if a spray is in progress
func (m *Mouse) ResetSpray() bool {
	return m.release()
}

// Spraying reports whether the button is currently held by spray mode
func (m *Mouse) Spraying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spraying
}

func (m *Mouse) hold() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spraying {
		return false
	}
	m.pointer.Down()
	m.spraying = true
	m.logger.Debug("Spray started")
	return true
}

func (m *Mouse) release() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.spraying {
		return false
	}
	m.pointer.Up()
	m.spraying = false
	m.logger.Debug("Spray released")
	return true
}

func clampStep(v int) int {
	if v > MaxStep {
		return MaxStep
	}
	if v < -MaxStep {
		return -MaxStep
	}
	return v
}
