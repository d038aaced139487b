package capture

import "errors"

// Capture errors reported by backends. The Manager absorbs all of them;
// they never reach the detection loop.
var (
	// ErrWaitTimeout means no new desktop frame arrived within the wait budget
	ErrWaitTimeout = errors.New("capture: no new frame")
	// ErrAccessLost means the duplication was invalidated (mode change, secure desktop)
	ErrAccessLost = errors.New("capture: duplication access lost")
	// ErrDeviceRemoved means the graphics device went away
	ErrDeviceRemoved = errors.New("capture: graphics device removed")
	// ErrUnsupported means desktop duplication is not available on this system
	ErrUnsupported = errors.New("capture: desktop duplication unsupported")
	// ErrNoDisplay means no display matched the requested bounds
	ErrNoDisplay = errors.New("capture: display not found")
)

// Rect is an axis-aligned rectangle in absolute screen coordinates
type Rect struct {
	X, Y          int
	Width, Height int
}

// Right returns the exclusive right edge
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether r covers no pixels
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether (x, y) lies inside r
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersect returns the overlap of r and o
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// CenteredSquare returns a size×size rect centred on (cx, cy)
func CenteredSquare(cx, cy, size int) Rect {
	return Rect{X: cx - size/2, Y: cy - size/2, Width: size, Height: size}
}

// Options are per-grab switches read from the settings snapshot
type Options struct {
	// ThirdPerson blacks out the bottom-left quadrant where the player model sits
	ThirdPerson bool
}

// State is the accelerated backend's lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateActive
	StatePendingReinit
	StateUnsupported
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePendingReinit:
		return "pending-reinit"
	case StateUnsupported:
		return "unsupported"
	default:
		return "uninitialized"
	}
}
