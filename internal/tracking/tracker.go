package tracking

import "jordanella.com/aim-loop-go/internal/detect"

// MaxFramesWithoutTarget is how many empty frames a sticky target survives
const MaxFramesWithoutTarget = 3

// Phase is the state of the sticky-aim machine
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseAcquired
	PhaseCoasting
)

func (p Phase) String() string {
	switch p {
	case PhaseAcquired:
		return "acquired"
	case PhaseCoasting:
		return "coasting"
	default:
		return "empty"
	}
}

// Options is the per-frame tracker configuration
type Options struct {
	Sticky    bool
	Threshold float32
	// InputSize is the model input size; baseline selection is relative to its centre
	InputSize int
}

// Tracker picks one target per frame and keeps it across brief detection gaps.
// It is owned by the detection loop and is not safe for concurrent use.
type Tracker struct {
	current    detect.Detection
	hasCurrent bool
	framesLost int
	phase      Phase
}

// New creates an empty tracker
func New() *Tracker {
	return &Tracker{}
}

// Select chooses the target for this frame. ok is false when there is none.
func (t *Tracker) Select(candidates []detect.Detection, opts Options) (target detect.Detection, ok bool) {
	baseline, hasBaseline := Closest(candidates, opts.InputSize)

	if !opts.Sticky {
		t.framesLost = 0
		if !hasBaseline {
			t.clear()
			return detect.Detection{}, false
		}
		t.acquire(baseline)
		return baseline, true
	}

	if !hasBaseline {
		if !t.hasCurrent {
			return detect.Detection{}, false
		}
		t.framesLost++
		if t.framesLost > MaxFramesWithoutTarget {
			t.clear()
			return detect.Detection{}, false
		}
		t.phase = PhaseCoasting
		return t.current, true
	}

	t.framesLost = 0
	if t.hasCurrent {
		if match, found := nearest(candidates, t.current, opts.Threshold); found {
			t.acquire(match)
			return match, true
		}
	}

	t.acquire(baseline)
	return baseline, true
}

// Current returns the sticky target, if any
func (t *Tracker) Current() (detect.Detection, bool) {
	return t.current, t.hasCurrent
}

// Phase returns the current state
func (t *Tracker) Phase() Phase {
	return t.phase
}

// FramesLost returns the number of consecutive frames without candidates
func (t *Tracker) FramesLost() int {
	return t.framesLost
}

// Reset drops the sticky target
func (t *Tracker) Reset() {
	t.clear()
}

func (t *Tracker) acquire(d detect.Detection) {
	t.current = d
	t.hasCurrent = true
	t.phase = PhaseAcquired
}

func (t *Tracker) clear() {
	t.current = detect.Detection{}
	t.hasCurrent = false
	t.framesLost = 0
	t.phase = PhaseEmpty
}

// Closest returns the candidate nearest the centre of the input frame.
// Ties go to the earliest candidate.
func Closest(candidates []detect.Detection, inputSize int) (detect.Detection, bool) {
	size := float64(inputSize)
	centre := size / 2
	best := -1
	bestDist := 0.0
	for i, c := range candidates {
		dx := float64(c.CenterX)*size - centre
		dy := float64(c.CenterY)*size - centre
		d2 := dx*dx + dy*dy
		if best < 0 || d2 < bestDist {
			best, bestDist = i, d2
		}
	}
	if best < 0 {
		return detect.Detection{}, false
	}
	return candidates[best], true
}

// nearest returns the candidate closest to prior whose squared screen distance
// is within threshold squared
func nearest(candidates []detect.Detection, prior detect.Detection, threshold float32) (detect.Detection, bool) {
	limit := threshold * threshold
	best := -1
	var bestDist float32
	for i, c := range candidates {
		d2 := prior.DistanceSquared(c)
		if d2 > limit {
			continue
		}
		if best < 0 || d2 < bestDist {
			best, bestDist = i, d2
		}
	}
	if best < 0 {
		return detect.Detection{}, false
	}
	return candidates[best], true
}
