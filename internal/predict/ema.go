package predict

import "time"

// EMA smooths positions with an exponential moving average
type EMA struct {
	alpha  float64
	x, y   float64
	seeded bool
}

// NewEMA creates a filter where alpha is the weight of the newest sample
func NewEMA(alpha float64) *EMA {
	e := &EMA{}
	e.SetAlpha(alpha)
	return e
}

// SetAlpha changes the weight of the newest sample, clamped to (0, 1]
func (e *EMA) SetAlpha(alpha float64) {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	e.alpha = alpha
}

func (e *EMA) Update(raw Point, _ time.Time) Point {
	if !e.seeded {
		e.x, e.y = raw.X, raw.Y
		e.seeded = true
		return raw
	}
	e.x = e.alpha*raw.X + (1-e.alpha)*e.x
	e.y = e.alpha*raw.Y + (1-e.alpha)*e.y
	return Point{X: e.x, Y: e.y}
}

func (e *EMA) Reset() {
	e.seeded = false
	e.x, e.y = 0, 0
}
