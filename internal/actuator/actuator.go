package actuator

import (
	"github.com/go-vgo/robotgo"
)

// Pointer is the low-level mouse backend
type Pointer interface {
	// Location returns the cursor position in absolute screen coordinates
	Location() (x, y int)
	// MoveRelative moves the cursor by (dx, dy) pixels
	MoveRelative(dx, dy int)
	// Down presses the left button
	Down()
	// Up releases the left button
	Up()
}

// Robot drives the real mouse through robotgo
type Robot struct{}

// NewRobot creates a robotgo-backed pointer
func NewRobot() *Robot {
	return &Robot{}
}

func (Robot) Location() (int, int) {
	return robotgo.Location()
}

func (Robot) MoveRelative(dx, dy int) {
	robotgo.MoveRelative(dx, dy)
}

func (Robot) Down() {
	robotgo.Toggle("left")
}

func (Robot) Up() {
	robotgo.Toggle("left", "up")
}
