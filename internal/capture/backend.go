package capture

import (
	"errors"
	"time"

	"jordanella.com/aim-loop-go/internal/logging"
)

// Duplicator is one desktop-duplication session bound to a single display.
// Implementations are not safe for concurrent use; the Manager serialises access.
type Duplicator interface {
	// AcquireNextFrame waits up to timeout for a new desktop image
	AcquireNextFrame(timeout time.Duration) error
	// ReleaseFrame hands the acquired image back to the compositor
	ReleaseFrame() error
	// EnsureStaging recreates the CPU-readable surface when its size changed
	EnsureStaging(width, height int) error
	// CopyToStaging copies src, given in display-relative pixels, to (dstX, dstY) of the staging surface
	CopyToStaging(src Rect, dstX, dstY int) error
	// MapStaging exposes the staging surface until UnmapStaging is called
	MapStaging() (pix []byte, rowPitch int, err error)
	UnmapStaging()
	Close() error
}

// DuplicatorFactory opens a duplication session for the display with the given bounds
type DuplicatorFactory func(display Rect) (Duplicator, error)

// Blitter copies a screen rectangle into a BGRA frame in software
type Blitter interface {
	Blit(region Rect, dst *Frame) error
	Close() error
}

const (
	maxConsecutiveFailures = 5
	acquireTimeout         = time.Millisecond
	acquireTimeoutBackoff  = 5 * time.Millisecond
)

// duplicationBackend is the accelerated capture path and its recovery state
type duplicationBackend struct {
	factory  DuplicatorFactory
	dup      Duplicator
	display  Rect
	state    State
	failures int
	buf      *Frame
	opens    int
	logger   *logging.Logger
}

// open replaces any existing session with a fresh one for display
func (b *duplicationBackend) open(display Rect) error {
	b.dispose()
	b.opens++

	dup, err := b.factory(display)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			b.state = StateUnsupported
		} else {
			b.state = StatePendingReinit
		}
		return err
	}

	b.dup = dup
	b.display = display
	b.state = StateActive
	b.failures = 0
	b.logger.InfoWithContext("Desktop duplication initialized", map[string]interface{}{
		"display": display,
	})
	return nil
}

// dispose drops all device handles. The state is left to the caller.
func (b *duplicationBackend) dispose() {
	if b.dup == nil {
		return
	}
	b.dup.ReleaseFrame()
	if err := b.dup.Close(); err != nil {
		b.logger.Error("Error disposing duplication resources", err)
	}
	b.dup = nil
}

func (b *duplicationBackend) markPending() {
	b.state = StatePendingReinit
}

// fail counts a failed acquisition and schedules a reinit once the threshold is reached
func (b *duplicationBackend) fail(err error) {
	b.failures++
	if b.failures >= maxConsecutiveFailures {
		b.logger.WarnWithContext("Too many capture failures, scheduling reinitialization", map[string]interface{}{
			"failures": b.failures,
			"error":    err,
		})
		b.markPending()
	}
}

func (b *duplicationBackend) timeout() time.Duration {
	if b.failures > 0 {
		return acquireTimeoutBackoff
	}
	return acquireTimeout
}

// grab reads region from the current session. ok is false when the caller should
// fall back to the cached frame.
func (b *duplicationBackend) grab(region Rect, opts Options) (frame *Frame, ok bool) {
	dup := b.dup

	err := dup.AcquireNextFrame(b.timeout())
	switch {
	case err == nil:
	case errors.Is(err, ErrWaitTimeout):
		b.failures = 0
		return nil, false
	default:
		b.fail(err)
		return nil, false
	}
	defer dup.ReleaseFrame()
	b.failures = 0

	visible := region.Intersect(b.display)
	if visible.Empty() {
		b.logger.Warn("No visible region to copy from desktop duplication")
		return nil, false
	}

	if err := dup.EnsureStaging(region.Width, region.Height); err != nil {
		b.fail(err)
		return nil, false
	}

	src := Rect{
		X:      visible.X - b.display.X,
		Y:      visible.Y - b.display.Y,
		Width:  visible.Width,
		Height: visible.Height,
	}
	if err := dup.CopyToStaging(src, visible.X-region.X, visible.Y-region.Y); err != nil {
		b.fail(err)
		return nil, false
	}

	pix, pitch, err := dup.MapStaging()
	if err != nil {
		b.fail(err)
		return nil, false
	}
	b.buf = ensureFrame(b.buf, region.Width, region.Height)
	copyRows(b.buf.Pix, b.buf.Stride, pix, pitch, region.Height)
	dup.UnmapStaging()

	if opts.ThirdPerson {
		applyThirdPersonMask(b.buf)
	}
	return b.buf, true
}

// blitBackend is the software fallback path
type blitBackend struct {
	blitter Blitter
	buf     *Frame
	calls   int
	logger  *logging.Logger
}

func (b *blitBackend) grab(region Rect, opts Options) (*Frame, error) {
	b.calls++
	b.buf = ensureFrame(b.buf, region.Width, region.Height)

	if err := b.blitter.Blit(region, b.buf); err != nil {
		return nil, err
	}
	if opts.ThirdPerson {
		applyThirdPersonMask(b.buf)
	}
	return b.buf, nil
}
