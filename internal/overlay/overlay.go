package overlay

import (
	"math"
	"strconv"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/detect"
)

// Point is a screen position
type Point struct {
	X, Y float32
}

// State is everything the "target found" indicator draws
type State struct {
	// Box is the target in absolute screen coordinates
	Box        detect.Box
	ClassName  string
	Confidence float32
	// Label is empty when confidence display is off
	Label string
	// Tracer is the line endpoint on the box, nil when tracers are off
	Tracer *Point
}

// Options are the overlay toggles read from settings
type Options struct {
	ShowConfidence bool
	ShowTracers    bool
	TracerPosition config.TracerPosition
	Display        capture.Rect
}

// Sink receives overlay updates. Calls are side effects only.
type Sink interface {
	Show(State)
	Hide()
}

// NewState builds the indicator state for target
func NewState(target detect.Detection, opts Options) State {
	box := target.ScreenBox()
	st := State{
		Box:        box,
		ClassName:  target.ClassName,
		Confidence: target.Confidence,
	}
	if opts.ShowConfidence {
		st.Label = FormatLabel(target.ClassName, target.Confidence)
	}
	if opts.ShowTracers {
		end := TracerEnd(box, opts.TracerPosition, opts.Display)
		st.Tracer = &end
	}
	return st
}

// FormatLabel renders "<class>: <confidence>%" with at most two decimals
func FormatLabel(className string, confidence float32) string {
	pct := math.Round(float64(confidence)*100*100) / 100
	return className + ": " + strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

// TracerEnd returns where the tracer meets the box. Middle tracers attach to
// the side of the box facing the display centre.
func TracerEnd(box detect.Box, pos config.TracerPosition, display capture.Rect) Point {
	cx, cy := box.Center()

	switch pos {
	case config.TracerTop:
		return Point{X: cx, Y: box.Y}
	case config.TracerMiddle:
		mid := float32(display.X) + float32(display.Width)/2
		if cx < mid {
			return Point{X: box.Right(), Y: cy}
		}
		return Point{X: box.X, Y: cy}
	default:
		return Point{X: cx, Y: box.Bottom()}
	}
}
