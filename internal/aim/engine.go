package aim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jordanella.com/aim-loop-go/internal/actuator"
	"jordanella.com/aim-loop-go/internal/bench"
	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/dataset"
	"jordanella.com/aim-loop-go/internal/detect"
	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
	"jordanella.com/aim-loop-go/internal/model"
	"jordanella.com/aim-loop-go/internal/overlay"
	"jordanella.com/aim-loop-go/internal/predict"
	"jordanella.com/aim-loop-go/internal/tensor"
	"jordanella.com/aim-loop-go/internal/tracking"
)

// ErrAlreadyRunning is returned by Start while a loop is active
var ErrAlreadyRunning = errors.New("aim: detection loop already running")

const (
	// stopTimeout bounds how long Stop and RequestSizeChange wait for the loop
	stopTimeout = time.Second
	idleSleep   = time.Millisecond
)

// FrameSource is the capture layer as seen by the loop
type FrameSource interface {
	Grab(region capture.Rect, method config.CaptureMethod, opts capture.Options) *capture.Frame
	HandlePendingDisplayChanges()
}

// Model is the model host as seen by the loop
type Model interface {
	Load(path string, imageSize int) (model.Descriptor, error)
	Infer(input []float32) ([]float32, error)
	Descriptor() model.Descriptor
	Classes() map[int]string
	RequestSizeChange(size int)
	SizeChangePending() bool
	ApplySizeChange() (model.Descriptor, error)
	Close() error
}

// Actuator moves and clicks the mouse
type Actuator interface {
	CursorPosition() (int, int)
	MoveTowards(x, y int, opts actuator.MoveOptions) (int, int)
	TriggerClick(box *detect.Box, st actuator.TriggerState) bool
	ResetSpray() bool
}

// Keys answers whether a named binding is held
type Keys interface {
	IsHolding(name string) bool
}

// Displays returns the selected display's bounds
type Displays interface {
	Current() capture.Rect
}

// FrameSaver stores frames for dataset collection
type FrameSaver interface {
	Save(frame *capture.Frame, target *detect.Detection, opts dataset.Options) (bool, error)
}

// Heartbeat is told about every completed loop cycle
type Heartbeat interface {
	RecordActivity()
}

// Deps are the collaborators of an Engine. Overlay, Saver, Bench, Bus,
// Notifier, Reporter and Heartbeat are optional.
type Deps struct {
	Settings *config.Store
	Frames   FrameSource
	Model    Model
	Displays Displays
	Actuator Actuator
	Keys     Keys

	Overlay   overlay.Sink
	Saver     FrameSaver
	Bench     *bench.Store
	Bus       events.EventBus
	Notifier  *logging.Notifier
	Reporter  *logging.ErrorReporter
	Heartbeat Heartbeat
}

// Engine runs the detection loop: one goroutine that captures, infers, picks
// a target and drives the actuator until stopped.
type Engine struct {
	deps   Deps
	bench  *bench.Store
	logger *logging.Logger

	// Loop-owned state, touched only by the loop goroutine while it runs
	converter *tensor.Converter
	decoder   *detect.Decoder
	tracker   *tracking.Tracker
	predictor *predict.Dispatcher
	input     []float32
	inputSize int

	mu        sync.Mutex
	running   bool
	disposed  bool
	modelPath string
	cancel    context.CancelFunc
	done      chan struct{}
	idle      chan struct{}

	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a stopped engine
func New(deps Deps) *Engine {
	b := deps.Bench
	if b == nil {
		b = bench.NewStore()
	}
	return &Engine{
		deps:      deps,
		bench:     b,
		logger:    logging.NewLogger("Aim"),
		converter: tensor.NewConverter(),
		decoder:   detect.NewDecoder(),
		tracker:   tracking.New(),
		predictor: predict.NewDispatcher(predict.KindKalman, predict.DefaultOptions()),
		idle:      make(chan struct{}, 1),
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Start loads the model at modelPath and starts the loop. A fixed-size model
// that needs a different input size updates the image size setting.
func (e *Engine) Start(modelPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return model.ErrNotLoaded
	}
	if e.running || e.loopAlive() {
		return ErrAlreadyRunning
	}

	s := e.deps.Settings.Snapshot()
	stop := e.bench.Time(bench.StageModelLoad)
	desc, err := e.deps.Model.Load(modelPath, s.ImageSize)
	stop()
	if err != nil {
		e.logger.Error("Model failed to load, detection loop not started", err)
		e.report(logging.ErrorCategoryModel, logging.ErrorSeverityHigh, "Model failed to load", err)
		if e.deps.Notifier != nil {
			e.deps.Notifier.Notify("Model", fmt.Sprintf("Failed to load %s: %v", modelPath, err))
		}
		return fmt.Errorf("failed to load model: %w", err)
	}

	if desc.ImageSize != s.ImageSize {
		e.deps.Settings.Update(func(s *config.Settings) { s.ImageSize = desc.ImageSize })
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.modelPath = modelPath
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true

	go e.run(ctx, e.done)

	e.logger.InfoWithContext("Detection loop started", map[string]interface{}{
		"model":      modelPath,
		"image_size": desc.ImageSize,
		"classes":    desc.NumClasses,
	})
	e.publish(events.NewLoopEvent(events.EventTypeLoopStarted, modelPath))
	return nil
}

// Stop ends the loop and waits briefly for it to exit. The model stays loaded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.cancel()

	select {
	case <-e.done:
	case <-time.After(stopTimeout):
		e.logger.Warn("Detection loop did not exit in time, restart is refused until it does")
	}
	e.running = false

	if e.deps.Actuator != nil {
		e.deps.Actuator.ResetSpray()
	}
	if e.deps.Overlay != nil {
		e.deps.Overlay.Hide()
	}
	e.publish(events.NewLoopEvent(events.EventTypeLoopStopped, e.modelPath))
	e.logger.Info("Detection loop stopped")
}

// loopAlive reports whether a previous loop goroutine has yet to exit
func (e *Engine) loopAlive() bool {
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// RequestSizeChange idles the loop, rebuilds the model for size and stores the
// new size in settings. It waits at most one second for the loop to idle.
func (e *Engine) RequestSizeChange(size int) (model.Descriptor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return model.Descriptor{}, model.ErrNotLoaded
	}

	select {
	case <-e.idle:
	default:
	}
	e.deps.Model.RequestSizeChange(size)

	if e.running {
		select {
		case <-e.idle:
		case <-e.done:
		case <-time.After(stopTimeout):
			e.logger.Warn("Detection loop did not idle in time, applying size change anyway")
		}
	}

	desc, err := e.deps.Model.ApplySizeChange()
	if err != nil {
		e.logger.Error("Failed to apply image size change", err)
		e.report(logging.ErrorCategoryModel, logging.ErrorSeverityHigh, "Image size change failed", err)
		return model.Descriptor{}, err
	}
	e.deps.Settings.Update(func(s *config.Settings) { s.ImageSize = desc.ImageSize })
	return desc, nil
}

// Dispose stops the loop, logs the benchmark report and releases the model.
// The engine cannot be restarted afterwards.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return nil
	}
	e.stopLocked()
	e.disposed = true

	e.logger.Info(e.bench.Report())
	return e.deps.Model.Close()
}

// Running reports whether the loop goroutine is active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Classes returns a copy of the loaded model's class map
func (e *Engine) Classes() map[int]string {
	return e.deps.Model.Classes()
}

// Benchmarks returns a snapshot of the per-stage timings
func (e *Engine) Benchmarks() []bench.Sample {
	return e.bench.Snapshot()
}

// BenchStore returns the store the loop records into
func (e *Engine) BenchStore() *bench.Store {
	return e.bench
}

func (e *Engine) publish(event events.Event) {
	if e.deps.Bus != nil {
		e.deps.Bus.Publish(event)
	}
}

func (e *Engine) report(category logging.ErrorCategory, severity logging.ErrorSeverity, message string, err error) {
	if e.deps.Reporter != nil {
		e.deps.Reporter.ReportError(category, severity, "Aim", message, err)
	}
}
