package aim

import (
	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/detect"
)

// CaptureRegion returns the size×size square the loop grabs. It is centred on
// the cursor when the area follows the mouse and the cursor is on the selected
// display, otherwise on the display centre.
func CaptureRegion(area config.DetectionArea, cursorX, cursorY int, display capture.Rect, size int) capture.Rect {
	cx := display.X + display.Width/2
	cy := display.Y + display.Height/2
	if area == config.AreaClosestToMouse && display.Contains(cursorX, cursorY) {
		cx, cy = cursorX, cursorY
	}
	return capture.CenteredSquare(cx, cy, size)
}

// AimPoint maps a target to the absolute screen point to aim at.
//
// X is the box centre plus XOffset, or the left edge plus XOffsetPercent of
// the width. Y is anchored by alignment, or measured up from the bottom edge
// by YOffsetPercent of the height; YOffset is added in both cases.
func AimPoint(target detect.Detection, s config.Settings) (int, int) {
	b := target.ScreenBox()
	left, top := float64(b.X), float64(b.Y)
	w, h := float64(b.Width), float64(b.Height)

	var x float64
	if s.XPercentAdjust {
		x = left + w*(s.XOffsetPercent/100)
	} else {
		x = left + w/2 + s.XOffset
	}

	var y float64
	if s.YPercentAdjust {
		y = top + h - h*(s.YOffsetPercent/100) + s.YOffset
	} else {
		switch s.Alignment {
		case config.AlignTop:
			y = top
		case config.AlignBottom:
			y = top + h
		default:
			y = top + h/2
		}
		y += s.YOffset
	}

	return int(x), int(y)
}
