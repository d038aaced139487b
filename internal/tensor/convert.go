// Package tensor converts captured BGRA frames into planar model input.
package tensor

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"jordanella.com/aim-loop-go/internal/capture"
)

// ErrSizeMismatch is returned when the destination or frame does not fit the input size
var ErrSizeMismatch = errors.New("tensor: size mismatch")

// byteToUnit maps a channel byte to [0,1]
var byteToUnit = func() (t [256]float32) {
	for i := range t {
		t[i] = float32(i) / 255
	}
	return t
}()

// Converter fills planar RGB float buffers from BGRA frames, fanning rows out to workers
type Converter struct {
	workers int
}

// NewConverter creates a converter with one worker per available CPU
func NewConverter() *Converter {
	return &Converter{workers: runtime.GOMAXPROCS(0)}
}

// Fill writes the top-left size×size pixels of frame into dst as three planes
// R, G, B at offsets 0, size², 2·size². dst must hold exactly 3·size² values.
// A negative frame stride means rows are stored bottom-up.
func (c *Converter) Fill(frame *capture.Frame, dst []float32, size int) error {
	plane := size * size
	if len(dst) != 3*plane {
		return fmt.Errorf("%w: destination has %d values, want %d", ErrSizeMismatch, len(dst), 3*plane)
	}
	if frame == nil || frame.Width < size || frame.Height < size {
		return fmt.Errorf("%w: frame smaller than %dx%d", ErrSizeMismatch, size, size)
	}

	stride := frame.Stride
	absStride := stride
	base := 0
	if stride < 0 {
		absStride = -stride
		base = (frame.Height - 1) * absStride
	}
	if len(frame.Pix) < (frame.Height-1)*absStride+size*4 {
		return fmt.Errorf("%w: pixel buffer too short", ErrSizeMismatch)
	}

	r, g, b := dst[:plane], dst[plane:2*plane], dst[2*plane:]

	convertRows := func(lo, hi int) {
		for y := lo; y < hi; y++ {
			start := base + y*stride
			row := frame.Pix[start : start+size*4]
			out := y * size

			x := 0
			for ; x+4 <= size; x += 4 {
				p := row[x*4 : x*4+16 : x*4+16]
				o := out + x
				r[o], g[o], b[o] = byteToUnit[p[2]], byteToUnit[p[1]], byteToUnit[p[0]]
				r[o+1], g[o+1], b[o+1] = byteToUnit[p[6]], byteToUnit[p[5]], byteToUnit[p[4]]
				r[o+2], g[o+2], b[o+2] = byteToUnit[p[10]], byteToUnit[p[9]], byteToUnit[p[8]]
				r[o+3], g[o+3], b[o+3] = byteToUnit[p[14]], byteToUnit[p[13]], byteToUnit[p[12]]
			}
			for ; x < size; x++ {
				p := row[x*4 : x*4+4 : x*4+4]
				o := out + x
				r[o], g[o], b[o] = byteToUnit[p[2]], byteToUnit[p[1]], byteToUnit[p[0]]
			}
		}
	}

	workers := max(1, min(c.workers, size))
	band := (size + workers - 1) / workers

	var eg errgroup.Group
	for lo := 0; lo < size; lo += band {
		lo, hi := lo, min(lo+band, size)
		eg.Go(func() error {
			convertRows(lo, hi)
			return nil
		})
	}
	return eg.Wait()
}

// Fill converts with a default Converter
func Fill(frame *capture.Frame, dst []float32, size int) error {
	return defaultConverter.Fill(frame, dst, size)
}

var defaultConverter = NewConverter()
