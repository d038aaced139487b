package predict

import "time"

// DeltaWindow keeps the last few frame-to-frame deltas and adds their
// weighted mean to the newest position. Newer deltas weigh more.
type DeltaWindow struct {
	size   int
	dx, dy []float64
	prev   Point
	seeded bool
}

// NewDeltaWindow creates a window holding size deltas
func NewDeltaWindow(size int) *DeltaWindow {
	if size <= 0 {
		size = 5
	}
	return &DeltaWindow{
		size: size,
		dx:   make([]float64, 0, size),
		dy:   make([]float64, 0, size),
	}
}

func (w *DeltaWindow) Update(raw Point, _ time.Time) Point {
	if !w.seeded {
		w.prev = raw
		w.seeded = true
		return raw
	}

	if len(w.dx) == w.size {
		copy(w.dx, w.dx[1:])
		copy(w.dy, w.dy[1:])
		w.dx = w.dx[:w.size-1]
		w.dy = w.dy[:w.size-1]
	}
	w.dx = append(w.dx, raw.X-w.prev.X)
	w.dy = append(w.dy, raw.Y-w.prev.Y)
	w.prev = raw

	ox, oy := w.offset()
	return Point{X: raw.X + ox, Y: raw.Y + oy}
}

// offset returns the weighted mean delta; the i-th oldest delta has weight i+1
func (w *DeltaWindow) offset() (float64, float64) {
	var sx, sy, total float64
	for i := range w.dx {
		weight := float64(i + 1)
		sx += w.dx[i] * weight
		sy += w.dy[i] * weight
		total += weight
	}
	if total == 0 {
		return 0, 0
	}
	return sx / total, sy / total
}

// Len returns the number of deltas held
func (w *DeltaWindow) Len() int {
	return len(w.dx)
}

func (w *DeltaWindow) Reset() {
	w.dx = w.dx[:0]
	w.dy = w.dy[:0]
	w.seeded = false
}
