//go:build !windows

package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// screenshotBlitter captures through the platform screenshot API and swizzles RGBA to BGRA
type screenshotBlitter struct{}

// NewBlitter creates the software capturer for non-Windows hosts
func NewBlitter() Blitter {
	return screenshotBlitter{}
}

func (screenshotBlitter) Blit(region Rect, dst *Frame) error {
	img, err := screenshot.CaptureRect(image.Rect(region.X, region.Y, region.Right(), region.Bottom()))
	if err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}

	for y := 0; y < region.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+region.Width*4]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+region.Width*4]
		for x := 0; x < len(src); x += 4 {
			row[x], row[x+1], row[x+2], row[x+3] = src[x+2], src[x+1], src[x], src[x+3]
		}
	}
	return nil
}

func (screenshotBlitter) Close() error {
	return nil
}
