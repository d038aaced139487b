package predict

import (
	"fmt"
	"strings"
	"time"
)

// Kind is a prediction strategy
type Kind int

const (
	KindKalman Kind = iota
	KindDelta
	KindEMA
)

// String returns the name shown in settings
func (k Kind) String() string {
	switch k {
	case KindKalman:
		return "Kalman Filter"
	case KindDelta:
		return "Shall0e's Prediction"
	case KindEMA:
		return "wisethef0x's EMA Prediction"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the settings name or a short alias (kalman, delta, ema)
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kalman filter", "kalman":
		return KindKalman, nil
	case "shall0e's prediction", "delta", "shall0e":
		return KindDelta, nil
	case "wisethef0x's ema prediction", "ema", "wisethef0x":
		return KindEMA, nil
	}
	return KindKalman, fmt.Errorf("unknown prediction method %q", s)
}

// Point is a screen position
type Point struct {
	X, Y float64
}

// Options tunes the strategies
type Options struct {
	// EMAAlpha is the weight of the newest sample, in (0, 1]
	EMAAlpha float64
	// Lead is how far ahead the Kalman filter extrapolates
	Lead time.Duration
	// Window is the number of deltas the delta strategy keeps
	Window int
}

// DefaultOptions returns the tuning used when settings do not override it
func DefaultOptions() Options {
	return Options{
		EMAAlpha: 0.5,
		Lead:     100 * time.Millisecond,
		Window:   5,
	}
}

// Strategy filters a stream of raw target positions. Each strategy keeps its
// own history.
type Strategy interface {
	Update(raw Point, at time.Time) Point
	Reset()
}

func newStrategy(kind Kind, opts Options) Strategy {
	switch kind {
	case KindDelta:
		return NewDeltaWindow(opts.Window)
	case KindEMA:
		return NewEMA(opts.EMAAlpha)
	default:
		return NewKalman(opts.Lead)
	}
}

// Dispatcher owns the active strategy and forwards positions to it. Switching
// kind starts the new strategy with an empty history.
type Dispatcher struct {
	kind   Kind
	opts   Options
	active Strategy
}

// NewDispatcher creates a dispatcher with kind active
func NewDispatcher(kind Kind, opts Options) *Dispatcher {
	return &Dispatcher{kind: kind, opts: opts, active: newStrategy(kind, opts)}
}

// Filter returns the predicted position for raw using the strategy for kind
func (d *Dispatcher) Filter(kind Kind, raw Point, at time.Time) Point {
	if kind != d.kind {
		d.kind = kind
		d.active = newStrategy(kind, d.opts)
	}
	return d.active.Update(raw, at)
}

// SetEMAAlpha changes the smoothing of the EMA strategy without dropping its history
func (d *Dispatcher) SetEMAAlpha(alpha float64) {
	d.opts.EMAAlpha = alpha
	if ema, ok := d.active.(*EMA); ok {
		ema.SetAlpha(alpha)
	}
}

// Kind returns the active strategy kind
func (d *Dispatcher) Kind() Kind {
	return d.kind
}

// Reset clears the active strategy's history
func (d *Dispatcher) Reset() {
	d.active.Reset()
}
