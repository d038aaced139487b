package capture

// Frame is a 32-bit BGRA pixel buffer. Stride may exceed Width*4.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// NewFrame allocates a tightly packed frame
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:    make([]byte, width*height*4),
		Width:  width,
		Height: height,
		Stride: width * 4,
	}
}

// Clone returns a deep copy of f
func (f *Frame) Clone() *Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Pix: pix, Width: f.Width, Height: f.Height, Stride: f.Stride}
}

// CopyInto copies f into dst, reallocating dst only when its size differs
func (f *Frame) CopyInto(dst *Frame) *Frame {
	if dst == nil || dst.Width != f.Width || dst.Height != f.Height || len(dst.Pix) != len(f.Pix) {
		return f.Clone()
	}
	copy(dst.Pix, f.Pix)
	dst.Stride = f.Stride
	return dst
}

// ensureFrame returns buf if it already has the requested size, otherwise a new frame
func ensureFrame(buf *Frame, width, height int) *Frame {
	if buf != nil && buf.Width == width && buf.Height == height {
		return buf
	}
	return NewFrame(width, height)
}

// copyRows copies height rows from src into dst, honouring both strides
func copyRows(dst []byte, dstStride int, src []byte, srcStride int, height int) {
	n := min(srcStride, dstStride)
	for y := 0; y < height; y++ {
		s := src[y*srcStride:]
		d := dst[y*dstStride:]
		copy(d[:min(n, len(d))], s[:min(n, len(s))])
	}
}

// applyThirdPersonMask paints the bottom-left quadrant opaque black
func applyThirdPersonMask(f *Frame) {
	w := f.Width / 2
	h := f.Height / 2
	for y := f.Height - h; y < f.Height; y++ {
		row := f.Pix[y*f.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			p[0], p[1], p[2], p[3] = 0, 0, 0, 255
		}
	}
}
