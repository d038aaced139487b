package capture

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/aim-loop-go/internal/config"
)

type copyCall struct {
	src        Rect
	dstX, dstY int
}

type fakeDuplicator struct {
	acquireErrs []error
	timeouts    []time.Duration
	copies      []copyCall
	fill        byte
	pitchPad    int
	width       int
	height      int
	staging     []byte
	released    int
	closed      bool
}

func (d *fakeDuplicator) AcquireNextFrame(timeout time.Duration) error {
	d.timeouts = append(d.timeouts, timeout)
	if len(d.acquireErrs) > 0 {
		err := d.acquireErrs[0]
		d.acquireErrs = d.acquireErrs[1:]
		return err
	}
	return nil
}

func (d *fakeDuplicator) ReleaseFrame() error {
	d.released++
	return nil
}

func (d *fakeDuplicator) EnsureStaging(width, height int) error {
	d.width, d.height = width, height
	d.staging = make([]byte, (width*4+d.pitchPad)*height)
	return nil
}

func (d *fakeDuplicator) CopyToStaging(src Rect, dstX, dstY int) error {
	d.copies = append(d.copies, copyCall{src: src, dstX: dstX, dstY: dstY})
	pitch := d.width*4 + d.pitchPad
	for y := 0; y < d.height; y++ {
		row := d.staging[y*pitch : (y+1)*pitch]
		for x := 0; x < d.width*4; x++ {
			row[x] = d.fill
		}
		for x := d.width * 4; x < pitch; x++ {
			row[x] = 0xEE
		}
	}
	return nil
}

func (d *fakeDuplicator) MapStaging() ([]byte, int, error) {
	return d.staging, d.width*4 + d.pitchPad, nil
}

func (d *fakeDuplicator) UnmapStaging() {}

func (d *fakeDuplicator) Close() error {
	d.closed = true
	return nil
}

type fakeBlitter struct {
	calls int
	fill  byte
	err   error
}

func (b *fakeBlitter) Blit(region Rect, dst *Frame) error {
	b.calls++
	if b.err != nil {
		return b.err
	}
	for i := range dst.Pix {
		dst.Pix[i] = b.fill
	}
	return nil
}

func (b *fakeBlitter) Close() error { return nil }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var testDisplay = Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

func newTestManager(t *testing.T, dups ...*fakeDuplicator) (*Manager, *fakeBlitter, *int, *fakeClock) {
	t.Helper()
	opens := 0
	factory := func(display Rect) (Duplicator, error) {
		if opens >= len(dups) {
			opens++
			return nil, errors.New("no device")
		}
		d := dups[opens]
		opens++
		return d, nil
	}
	blitter := &fakeBlitter{fill: 0x22}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	m := NewManager(testDisplay, factory, blitter).WithClock(clock.now)
	m.logger.SetOutput(&bytes.Buffer{})
	return m, blitter, &opens, clock
}

func TestUnsupportedDowngradesPermanently(t *testing.T) {
	calls := 0
	factory := func(Rect) (Duplicator, error) {
		calls++
		return nil, ErrUnsupported
	}
	blitter := &fakeBlitter{fill: 0x33}
	m := NewManager(testDisplay, factory, blitter)
	m.logger.SetOutput(&bytes.Buffer{})

	var downgrades []error
	m.OnDowngrade(func(reason error) { downgrades = append(downgrades, reason) })

	region := CenteredSquare(960, 540, 64)
	for i := 0; i < 5; i++ {
		frame := m.Grab(region, config.CaptureDirectX, Options{})
		require.NotNil(t, frame)
		assert.Equal(t, byte(0x33), frame.Pix[0])
		m.HandlePendingDisplayChanges()
	}

	assert.Equal(t, 1, calls, "accelerated path must not be retried")
	assert.Equal(t, 5, blitter.calls)
	assert.Equal(t, StateUnsupported, m.State())
	assert.Equal(t, config.CaptureGDI, m.Method())
	require.Len(t, downgrades, 1)
	assert.ErrorIs(t, downgrades[0], ErrUnsupported)

	m.NotifyDisplayChanged(Rect{X: 0, Y: 0, Width: 2560, Height: 1440})
	m.Grab(region, config.CaptureDirectX, Options{})
	assert.Equal(t, 1, calls, "display change must not leave the unsupported state")
}

func TestOverlapCopyIsDisplayRelative(t *testing.T) {
	dup := &fakeDuplicator{fill: 0x10}
	m, _, _, _ := newTestManager(t, dup)
	m.NotifyDisplayChanged(Rect{X: 1920, Y: 0, Width: 1920, Height: 1080})

	frame := m.Grab(Rect{X: 1900, Y: -10, Width: 100, Height: 100}, config.CaptureDirectX, Options{})
	require.NotNil(t, frame)

	require.Len(t, dup.copies, 1)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 80, Height: 90}, dup.copies[0].src)
	assert.Equal(t, 20, dup.copies[0].dstX)
	assert.Equal(t, 10, dup.copies[0].dstY)
	assert.Equal(t, 1, dup.released)
}

func TestRowCopyHonoursSourcePitch(t *testing.T) {
	dup := &fakeDuplicator{fill: 0x7F, pitchPad: 64}
	m, _, _, _ := newTestManager(t, dup)

	frame := m.Grab(CenteredSquare(960, 540, 32), config.CaptureDirectX, Options{})
	require.NotNil(t, frame)

	assert.Equal(t, 32*4, frame.Stride)
	for i, b := range frame.Pix {
		if b != 0x7F {
			t.Fatalf("byte %d = %#x, padding leaked into frame", i, b)
		}
	}
}

func TestWaitTimeoutServesCacheUntilExpiry(t *testing.T) {
	dup := &fakeDuplicator{fill: 0x40}
	m, _, _, clock := newTestManager(t, dup)
	region := CenteredSquare(960, 540, 16)

	first := m.Grab(region, config.CaptureDirectX, Options{})
	require.NotNil(t, first)

	dup.acquireErrs = []error{ErrWaitTimeout, ErrWaitTimeout}
	clock.advance(10 * time.Millisecond)
	cached := m.Grab(region, config.CaptureDirectX, Options{})
	require.NotNil(t, cached)
	assert.Equal(t, first.Pix, cached.Pix)

	clock.advance(10 * time.Millisecond)
	assert.Nil(t, m.Grab(region, config.CaptureDirectX, Options{}), "expired cache must not be served")

	other := CenteredSquare(100, 100, 16)
	dup.acquireErrs = []error{ErrWaitTimeout}
	assert.Nil(t, m.Grab(other, config.CaptureDirectX, Options{}), "cache is keyed by region")
}

func TestBlitErrorServesCachedFrame(t *testing.T) {
	m, blitter, _, clock := newTestManager(t)
	region := CenteredSquare(960, 540, 16)

	first := m.Grab(region, config.CaptureGDI, Options{})
	require.NotNil(t, first)
	assert.Equal(t, byte(0x22), first.Pix[0])

	blitter.err = errors.New("blit failed")
	clock.advance(10 * time.Millisecond)
	cached := m.Grab(region, config.CaptureGDI, Options{})
	require.NotNil(t, cached)
	assert.Equal(t, first.Pix, cached.Pix)

	clock.advance(10 * time.Millisecond)
	assert.Nil(t, m.Grab(region, config.CaptureGDI, Options{}), "expired cache must not be served")
	assert.Equal(t, 3, blitter.calls)
}

func TestFailuresScheduleReinitialization(t *testing.T) {
	first := &fakeDuplicator{}
	second := &fakeDuplicator{fill: 0x55}
	m, _, opens, _ := newTestManager(t, first, second)
	region := CenteredSquare(960, 540, 16)

	first.acquireErrs = []error{ErrAccessLost, ErrAccessLost, ErrDeviceRemoved, ErrAccessLost, ErrAccessLost}
	for i := 0; i < maxConsecutiveFailures; i++ {
		m.Grab(region, config.CaptureDirectX, Options{})
	}

	assert.Equal(t, time.Millisecond, first.timeouts[0])
	assert.Equal(t, 5*time.Millisecond, first.timeouts[1], "timeout backs off after a failure")
	assert.Equal(t, StatePendingReinit, m.State())

	frame := m.Grab(region, config.CaptureDirectX, Options{})
	require.NotNil(t, frame)
	assert.Equal(t, 2, *opens)
	assert.True(t, first.closed)
	assert.Equal(t, byte(0x55), frame.Pix[0])
	assert.Equal(t, StateActive, m.State())
}

func TestDisplayChangeDropsHandlesAndReopens(t *testing.T) {
	first := &fakeDuplicator{}
	second := &fakeDuplicator{}
	m, _, opens, _ := newTestManager(t, first, second)

	m.Grab(CenteredSquare(960, 540, 16), config.CaptureDirectX, Options{})
	require.Equal(t, StateActive, m.State())

	m.NotifyDisplayChanged(Rect{X: 0, Y: 0, Width: 2560, Height: 1440})
	assert.True(t, first.closed)
	assert.Equal(t, StatePendingReinit, m.State())

	m.HandlePendingDisplayChanges()
	assert.Equal(t, 2, *opens)
	assert.Equal(t, StateActive, m.State())
}

func TestThirdPersonMask(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	frame := m.Grab(Rect{X: 0, Y: 0, Width: 4, Height: 4}, config.CaptureGDI, Options{ThirdPerson: true})
	require.NotNil(t, frame)

	px := func(x, y int) []byte { return frame.Pix[y*frame.Stride+x*4 : y*frame.Stride+x*4+4] }
	assert.Equal(t, []byte{0, 0, 0, 255}, px(0, 3))
	assert.Equal(t, []byte{0, 0, 0, 255}, px(1, 2))
	assert.Equal(t, []byte{0x22, 0x22, 0x22, 0x22}, px(2, 3))
	assert.Equal(t, []byte{0x22, 0x22, 0x22, 0x22}, px(0, 1))
}

func TestBlitFrameIsReused(t *testing.T) {
	m, blitter, _, _ := newTestManager(t)
	region := CenteredSquare(960, 540, 8)

	a := m.Grab(region, config.CaptureGDI, Options{})
	b := m.Grab(region, config.CaptureGDI, Options{})
	assert.Same(t, a, b)

	c := m.Grab(CenteredSquare(960, 540, 16), config.CaptureGDI, Options{})
	assert.NotSame(t, a, c)
	assert.Equal(t, 3, blitter.calls)

	blitter.err = errors.New("blit failed")
	assert.Nil(t, m.Grab(region, config.CaptureGDI, Options{}))
}

func TestRectIntersect(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.Equal(t, Rect{X: 5, Y: 5, Width: 5, Height: 5}, r.Intersect(Rect{X: 5, Y: 5, Width: 10, Height: 10}))
	assert.True(t, r.Intersect(Rect{X: 10, Y: 0, Width: 5, Height: 5}).Empty())
	assert.True(t, r.Contains(9, 9))
	assert.False(t, r.Contains(10, 9))
}
