package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/capture"
)

func solidFrame(size int, b, g, r byte, stridePad int) *capture.Frame {
	stride := size*4 + stridePad
	f := &capture.Frame{Pix: make([]byte, stride*size), Width: size, Height: size, Stride: stride}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := f.Pix[y*stride+x*4:]
			p[0], p[1], p[2], p[3] = b, g, r, 255
		}
	}
	return f
}

func TestSolidColourFillsEachPlane(t *testing.T) {
	for _, size := range []int{7, 32, 33} {
		f := solidFrame(size, 30, 120, 240, 12)
		dst := make([]float32, 3*size*size)

		require.NoError(t, NewConverter().Fill(f, dst, size))

		plane := size * size
		for i := 0; i < plane; i++ {
			assert.InDelta(t, 240.0/255, dst[i], 1e-6)
			assert.InDelta(t, 120.0/255, dst[plane+i], 1e-6)
			assert.InDelta(t, 30.0/255, dst[2*plane+i], 1e-6)
		}
	}
}

func TestNegativeStrideReadsRowsTopDown(t *testing.T) {
	const size = 5
	stride := size * 4
	pix := make([]byte, stride*size)
	// Row y is stored at memory row size-1-y and carries red = y*10
	for y := 0; y < size; y++ {
		mem := (size - 1 - y) * stride
		for x := 0; x < size; x++ {
			pix[mem+x*4+2] = byte(y * 10)
		}
	}
	f := &capture.Frame{Pix: pix, Width: size, Height: size, Stride: -stride}
	dst := make([]float32, 3*size*size)

	require.NoError(t, Fill(f, dst, size))

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			assert.InDelta(t, float32(y*10)/255, dst[y*size+x], 1e-6, "row %d col %d", y, x)
		}
	}
}

func TestPlanesKeepPixelPositions(t *testing.T) {
	const size = 6
	f := capture.NewFrame(size, size)
	for i := 0; i < size*size; i++ {
		f.Pix[i*4+0] = byte(i)
		f.Pix[i*4+1] = byte(i + 100)
		f.Pix[i*4+2] = byte(i + 200)
	}
	dst := make([]float32, 3*size*size)
	require.NoError(t, Fill(f, dst, size))

	plane := size * size
	for i := 0; i < plane; i++ {
		assert.Equal(t, byteToUnit[byte(i+200)], dst[i])
		assert.Equal(t, byteToUnit[byte(i+100)], dst[plane+i])
		assert.Equal(t, byteToUnit[byte(i)], dst[2*plane+i])
	}
}

func TestDestinationLengthIsValidated(t *testing.T) {
	f := solidFrame(8, 0, 0, 0, 0)
	err := Fill(f, make([]float32, 3*8*8-1), 8)
	assert.True(t, errors.Is(err, ErrSizeMismatch))

	err = Fill(f, make([]float32, 3*16*16), 16)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}
