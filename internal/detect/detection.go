package detect

import "jordanella.com/aim-loop-go/internal/capture"

// Box is an axis-aligned box given by its top-left corner and size
type Box struct {
	X, Y          float32
	Width, Height float32
}

// Right returns the x coordinate of the right edge
func (b Box) Right() float32 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge
func (b Box) Bottom() float32 { return b.Y + b.Height }

// Center returns the centre point
func (b Box) Center() (float32, float32) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains reports whether (x, y) lies inside the box. The right and bottom
// edges are exclusive.
func (b Box) Contains(x, y float32) bool {
	return x >= b.X && x < b.Right() && y >= b.Y && y < b.Bottom()
}

// Translate returns the box moved by (dx, dy)
func (b Box) Translate(dx, dy float32) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// Detection is one decoded candidate. Box is in model-input pixels; the screen
// centre is always derived from the region the frame was captured from.
type Detection struct {
	Box        Box
	Confidence float32
	ClassID    int
	ClassName  string

	// CenterX and CenterY are the box centre divided by the input size
	CenterX, CenterY float32
	// ScreenX and ScreenY are the box centre in absolute screen coordinates
	ScreenX, ScreenY float32

	Region capture.Rect
}

// ScreenBox returns the box in absolute screen coordinates
func (d Detection) ScreenBox() Box {
	return d.Box.Translate(float32(d.Region.X), float32(d.Region.Y))
}

// DistanceSquared returns the squared distance between the screen centres of d and o
func (d Detection) DistanceSquared(o Detection) float32 {
	dx := d.ScreenX - o.ScreenX
	dy := d.ScreenY - o.ScreenY
	return dx*dx + dy*dy
}

// FOV is the sub-rectangle of the input frame detections must lie within
type FOV struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// NewFOV centres a square field of view of fovSize pixels in an input of size pixels
func NewFOV(size, fovSize int) FOV {
	lo := float32(size-fovSize) / 2
	hi := float32(size+fovSize) / 2
	return FOV{MinX: lo, MinY: lo, MaxX: hi, MaxY: hi}
}

// Encloses reports whether the box lies completely inside the field of view
func (f FOV) Encloses(b Box) bool {
	return b.X >= f.MinX && b.Right() <= f.MaxX && b.Y >= f.MinY && b.Bottom() <= f.MaxY
}
