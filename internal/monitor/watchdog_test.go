package monitor

import (
	"errors"
	"testing"
	"time"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStallReportedAfterThreshold(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var reasons []string
	w := NewWatchdog().
		WithClock(c.now).
		WithStallTimeout(time.Second, 2).
		WithUnhealthyCallback(func(reason string, err error) { reasons = append(reasons, reason) })

	c.advance(500 * time.Millisecond)
	if w.checkIfStuck() {
		t.Fatal("loop reported stalled before the timeout")
	}

	c.advance(time.Second)
	if w.checkIfStuck() {
		t.Fatal("loop reported stalled on the first quiet probe")
	}
	if !w.checkIfStuck() {
		t.Fatal("expected a stall on the second quiet probe")
	}
	if len(reasons) != 1 || reasons[0] != "loop_stalled" {
		t.Fatalf("unexpected callbacks: %v", reasons)
	}
}

func TestActivityResetsStallCount(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	w := NewWatchdog().WithClock(c.now).WithStallTimeout(time.Second, 2)

	c.advance(2 * time.Second)
	w.checkIfStuck()
	w.RecordActivity()
	c.advance(2 * time.Second)

	if w.checkIfStuck() {
		t.Fatal("stall count was not reset by activity")
	}
}

func TestRunChecksReportsFirstFailure(t *testing.T) {
	var reasons []string
	w := NewWatchdog().
		WithUnhealthyCallback(func(reason string, err error) { reasons = append(reasons, reason) }).
		AddCheck("ok", func() error { return nil }).
		AddCheck("model", func() error { return errors.New("not ready") }).
		AddCheck("never", func() error { return errors.New("unreachable") })

	if err := w.runChecks(); err == nil {
		t.Fatal("expected an error")
	}
	if len(reasons) != 1 || reasons[0] != "model" {
		t.Fatalf("unexpected callbacks: %v", reasons)
	}
}

func TestStartStop(t *testing.T) {
	w := NewWatchdog().WithCheckInterval(time.Millisecond).AddCheck("ok", func() error { return nil })
	w.Start()
	w.RecordActivity()
	w.Stop()
}
