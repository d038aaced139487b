package actuator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/detect"
)

type fakePointer struct {
	x, y  int
	moves [][2]int
	log   []string
}

func (p *fakePointer) Location() (int, int) { return p.x, p.y }

func (p *fakePointer) MoveRelative(dx, dy int) {
	p.moves = append(p.moves, [2]int{dx, dy})
}

func (p *fakePointer) Down() { p.log = append(p.log, "down") }
func (p *fakePointer) Up()   { p.log = append(p.log, "up") }

type fakeClock struct {
	t     time.Time
	slept []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.t = c.t.Add(d)
}

func newTestMouse() (*Mouse, *fakePointer, *fakeClock) {
	p := &fakePointer{}
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewMouse(p).WithClock(clock.now, clock.sleep), p, clock
}

var fullHD = capture.Rect{Width: 1920, Height: 1080}

func TestMoveTowardsScalesBySensitivity(t *testing.T) {
	m, p, _ := newTestMouse()

	dx, dy := m.MoveTowards(1060, 640, MoveOptions{Display: fullHD, Sensitivity: 0.5})
	assert.Equal(t, 50, dx)
	assert.Equal(t, 50, dy)
	require.Len(t, p.moves, 1)
	assert.Equal(t, [2]int{50, 50}, p.moves[0])
}

func TestMoveTowardsClampsStep(t *testing.T) {
	m, p, _ := newTestMouse()

	dx, dy := m.MoveTowards(960+400, 540-1000, MoveOptions{Display: fullHD, Sensitivity: 0})
	assert.Equal(t, MaxStep, dx)
	assert.Equal(t, -MaxStep, dy)
	require.Len(t, p.moves, 1)
}

func TestMoveTowardsUsesDisplayOrigin(t *testing.T) {
	m, p, _ := newTestMouse()
	second := capture.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080}

	dx, dy := m.MoveTowards(1920+960+20, 540, MoveOptions{Display: second, Sensitivity: 0.5})
	assert.Equal(t, 10, dx)
	assert.Equal(t, 0, dy)
	require.Len(t, p.moves, 1)
}

func TestMoveTowardsSkipsZeroStep(t *testing.T) {
	m, p, _ := newTestMouse()

	m.MoveTowards(960, 540, MoveOptions{Display: fullHD, Sensitivity: 0.5})
	assert.Empty(t, p.moves)
}

func TestTriggerClickRespectsDelay(t *testing.T) {
	m, p, clock := newTestMouse()
	st := TriggerState{AimHeld: true, Delay: 250 * time.Millisecond}

	assert.True(t, m.TriggerClick(nil, st))
	assert.Equal(t, []string{"down", "up"}, p.log)
	assert.Equal(t, []time.Duration{clickHold}, clock.slept)

	clock.t = clock.t.Add(100 * time.Millisecond)
	assert.False(t, m.TriggerClick(nil, st))
	assert.Len(t, p.log, 2)

	clock.t = clock.t.Add(150 * time.Millisecond)
	assert.True(t, m.TriggerClick(nil, st))
	assert.Len(t, p.log, 4)
}

func TestTriggerClickWithoutKeysReleasesSpray(t *testing.T) {
	m, p, _ := newTestMouse()

	assert.False(t, m.TriggerClick(nil, TriggerState{}))
	assert.Empty(t, p.log)

	m.TriggerClick(nil, TriggerState{SecondHeld: true, SprayMode: true})
	require.True(t, m.Spraying())

	assert.True(t, m.TriggerClick(nil, TriggerState{SprayMode: true}))
	assert.False(t, m.Spraying())
	assert.Equal(t, []string{"down", "up"}, p.log)
}

func TestSprayHoldsUntilCursorLeavesBox(t *testing.T) {
	m, p, _ := newTestMouse()
	box := &detect.Box{X: 0, Y: 0, Width: 100, Height: 100}
	st := TriggerState{AimHeld: true, SprayMode: true, CursorCheck: true}

	p.x, p.y = 50, 50
	assert.True(t, m.TriggerClick(box, st))
	assert.False(t, m.TriggerClick(box, st), "hold is idempotent")
	assert.True(t, m.Spraying())

	p.x, p.y = 200, 200
	assert.True(t, m.TriggerClick(box, st))
	assert.False(t, m.Spraying())
	assert.Equal(t, []string{"down", "up"}, p.log)
}

func TestResetSprayIsIdempotent(t *testing.T) {
	m, p, _ := newTestMouse()

	assert.False(t, m.ResetSpray())
	m.TriggerClick(nil, TriggerState{AimHeld: true, SprayMode: true})
	assert.True(t, m.ResetSpray())
	assert.False(t, m.ResetSpray())
	assert.Equal(t, []string{"down", "up"}, p.log)
}
