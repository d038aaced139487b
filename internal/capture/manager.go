package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/logging"
)

// Manager is the frame source used by the detection loop. It owns both capture
// backends, the short-lived frame cache and the pending display-change flag, all
// behind one lock. Grab never fails: every error degrades to a cached frame or nil.
type Manager struct {
	mu      sync.Mutex
	display Rect
	method  config.CaptureMethod
	accel   duplicationBackend
	blit    blitBackend
	cache   *frameCache

	downgraded   bool
	downgradeErr error
	onDowngrade  func(reason error)

	logger *logging.Logger
}

// NewManager creates a manager for the display with the given bounds
func NewManager(display Rect, factory DuplicatorFactory, blitter Blitter) *Manager {
	logger := logging.NewLogger("Capture")
	return &Manager{
		display: display,
		method:  config.CaptureDirectX,
		accel: duplicationBackend{
			factory: factory,
			logger:  logger,
		},
		blit: blitBackend{
			blitter: blitter,
			logger:  logger,
		},
		cache:  newFrameCache(DefaultCacheDuration, time.Now),
		logger: logger,
	}
}

// NewPlatformManager creates a manager backed by the platform's native capture APIs
func NewPlatformManager(display Rect) *Manager {
	return NewManager(display, NewDuplicator, NewBlitter())
}

// WithClock replaces the clock used for cache expiry
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.now = now
	return m
}

// OnDowngrade registers fn to be called once when the accelerated backend
// is found to be unsupported and capture switches to the fallback for good.
func (m *Manager) OnDowngrade(fn func(reason error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDowngrade = fn
}

// State returns the accelerated backend's state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accel.state
}

// Method returns the backend currently in use
func (m *Manager) Method() config.CaptureMethod {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.method
}

// Grab returns the pixels of region using the requested backend
func (m *Manager) Grab(region Rect, method config.CaptureMethod, opts Options) (frame *Frame) {
	if region.Empty() {
		return nil
	}

	m.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Capture panic recovered", fmt.Errorf("%v", r))
			m.accel.fail(fmt.Errorf("panic: %v", r))
			frame = m.cache.get(region)
		}
		notify, reason := m.takeDowngradeNotice()
		m.mu.Unlock()

		if notify != nil {
			notify(reason)
		}
	}()

	if m.downgraded && method == config.CaptureDirectX {
		method = config.CaptureGDI
	}
	if method != m.method {
		m.switchMethod(method)
	}

	if method == config.CaptureDirectX {
		return m.grabAccelerated(region, opts)
	}
	return m.grabBlit(region, opts)
}

func (m *Manager) grabAccelerated(region Rect, opts Options) *Frame {
	if m.accel.dup == nil || m.accel.state == StatePendingReinit {
		if err := m.accel.open(m.display); err != nil {
			if errors.Is(err, ErrUnsupported) {
				m.downgrade(err)
				return m.grabBlit(region, opts)
			}
			m.logger.Error("Failed to initialize desktop duplication", err)
			return m.cache.get(region)
		}
	}

	frame, ok := m.accel.grab(region, opts)
	if !ok {
		return m.cache.get(region)
	}

	out := frame.Clone()
	m.cache.put(frame, region)
	return out
}

func (m *Manager) grabBlit(region Rect, opts Options) *Frame {
	frame, err := m.blit.grab(region, opts)
	if err != nil {
		m.logger.Error("Software screen capture failed", err)
		return m.cache.get(region)
	}
	m.cache.put(frame, region)
	return frame
}

// switchMethod drops backend buffers when the user changes the capture method
func (m *Manager) switchMethod(method config.CaptureMethod) {
	m.logger.InfoWithContext("Switching capture method", map[string]interface{}{
		"from": m.method.String(),
		"to":   method.String(),
	})

	m.accel.buf = nil
	m.blit.buf = nil
	m.cache.reset()

	if method == config.CaptureGDI {
		m.accel.dispose()
		if m.accel.state != StateUnsupported {
			m.accel.state = StateUninitialized
		}
	} else {
		m.accel.markPending()
	}
	m.method = method
}

// downgrade records a permanent switch to the fallback backend
func (m *Manager) downgrade(reason error) {
	m.accel.dispose()
	m.accel.state = StateUnsupported
	m.accel.buf = nil
	m.method = config.CaptureGDI

	if !m.downgraded {
		m.downgraded = true
		m.downgradeErr = reason
		m.logger.Error("Desktop duplication not supported, switched to GDI+ capture", reason)
	}
}

func (m *Manager) takeDowngradeNotice() (func(error), error) {
	if m.downgradeErr == nil {
		return nil, nil
	}
	reason := m.downgradeErr
	m.downgradeErr = nil
	return m.onDowngrade, reason
}

// NotifyDisplayChanged records new display bounds and drops the duplication session.
// The next Grab or HandlePendingDisplayChanges call reopens it.
func (m *Manager) NotifyDisplayChanged(display Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.display = display
	m.accel.dispose()
	m.accel.failures = 0
	m.cache.reset()
	if m.accel.state != StateUnsupported {
		m.accel.markPending()
	}
	m.logger.InfoWithContext("Display change detected, desktop duplication will be reinitialized", map[string]interface{}{
		"display": display,
	})
}

// HandlePendingDisplayChanges reopens the duplication session if a reinit is pending
func (m *Manager) HandlePendingDisplayChanges() {
	m.mu.Lock()
	defer func() {
		notify, reason := m.takeDowngradeNotice()
		m.mu.Unlock()
		if notify != nil {
			notify(reason)
		}
	}()

	if m.method != config.CaptureDirectX || m.accel.state != StatePendingReinit {
		return
	}
	if err := m.accel.open(m.display); err != nil {
		if errors.Is(err, ErrUnsupported) {
			m.downgrade(err)
			return
		}
		m.logger.Debug(fmt.Sprintf("Pending reinitialization failed: %v", err))
	}
}

// Close releases every backend resource
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accel.dispose()
	if m.accel.state != StateUnsupported {
		m.accel.state = StateUninitialized
	}
	m.accel.buf = nil
	m.blit.buf = nil
	m.cache.reset()
	return m.blit.blitter.Close()
}
