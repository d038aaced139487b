package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jordanella.com/aim-loop-go/internal/logging"
)

// UnhealthyCallback is called when the loop stalls or a check fails
type UnhealthyCallback func(reason string, err error)

// Check is a named periodic health probe
type Check struct {
	Name string
	Run  func() error
}

// Watchdog watches the detection loop for stalls and runs periodic checks.
// The loop calls RecordActivity once per cycle.
type Watchdog struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *logging.Logger

	mu               sync.Mutex
	lastActivityTime time.Time
	stuckCount       int
	stuckThreshold   int
	stuckTimeout     time.Duration
	stuckInterval    time.Duration
	checkInterval    time.Duration
	checks           []Check
	onUnhealthy      UnhealthyCallback
	now              func() time.Time
}

// NewWatchdog creates a watchdog with a 2s stall timeout
func NewWatchdog() *Watchdog {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watchdog{
		ctx:              ctx,
		cancel:           cancel,
		logger:           logging.NewLogger("Monitor"),
		lastActivityTime: time.Now(),
		stuckThreshold:   3,
		stuckTimeout:     2 * time.Second,
		stuckInterval:    500 * time.Millisecond,
		checkInterval:    10 * time.Second,
		now:              time.Now,
	}
}

// WithUnhealthyCallback sets the callback for unhealthy events
func (w *Watchdog) WithUnhealthyCallback(callback UnhealthyCallback) *Watchdog {
	w.onUnhealthy = callback
	return w
}

// WithCheckInterval sets how often checks run
func (w *Watchdog) WithCheckInterval(interval time.Duration) *Watchdog {
	w.checkInterval = interval
	return w
}

// WithStallTimeout sets how long the loop may go quiet, and for how many
// consecutive probes, before it is reported as stalled
func (w *Watchdog) WithStallTimeout(timeout time.Duration, threshold int) *Watchdog {
	w.stuckTimeout = timeout
	w.stuckThreshold = threshold
	return w
}

// WithClock replaces the clock used for stall detection
func (w *Watchdog) WithClock(now func() time.Time) *Watchdog {
	w.now = now
	w.lastActivityTime = now()
	return w
}

// AddCheck registers a periodic check
func (w *Watchdog) AddCheck(name string, run func() error) *Watchdog {
	w.checks = append(w.checks, Check{Name: name, Run: run})
	return w
}

// Start begins monitoring
func (w *Watchdog) Start() {
	w.wg.Add(2)
	go w.monitorStuck()
	go w.monitorHealth()
}

// Stop stops monitoring
func (w *Watchdog) Stop() {
	w.cancel()
	w.wg.Wait()
}

// RecordActivity marks the loop as alive
func (w *Watchdog) RecordActivity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActivityTime = w.now()
	w.stuckCount = 0
}

func (w *Watchdog) monitorStuck() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.stuckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkIfStuck()
		}
	}
}

// checkIfStuck reports a stall after stuckThreshold consecutive quiet probes
func (w *Watchdog) checkIfStuck() bool {
	w.mu.Lock()
	quiet := w.now().Sub(w.lastActivityTime)
	if quiet <= w.stuckTimeout {
		w.stuckCount = 0
		w.mu.Unlock()
		return false
	}

	w.stuckCount++
	if w.stuckCount < w.stuckThreshold {
		w.mu.Unlock()
		return false
	}
	w.stuckCount = 0
	callback := w.onUnhealthy
	w.mu.Unlock()

	err := fmt.Errorf("no loop activity for %v", quiet.Round(time.Millisecond))
	w.logger.Error("Detection loop stalled", err)
	if callback != nil {
		callback("loop_stalled", err)
	}
	return true
}

func (w *Watchdog) monitorHealth() {
	defer w.wg.Done()

	if len(w.checks) == 0 {
		return
	}

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.runChecks()
		}
	}
}

// runChecks runs every check and reports the first failure
func (w *Watchdog) runChecks() error {
	for _, c := range w.checks {
		if err := c.Run(); err != nil {
			w.logger.ErrorWithContext("Health check failed", err, map[string]interface{}{"check": c.Name})
			if w.onUnhealthy != nil {
				w.onUnhealthy(c.Name, err)
			}
			return err
		}
	}
	return nil
}
