package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"jordanella.com/aim-loop-go/internal/actuator"
	"jordanella.com/aim-loop-go/internal/aim"
	"jordanella.com/aim-loop-go/internal/bench"
	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/database"
	"jordanella.com/aim-loop-go/internal/dataset"
	"jordanella.com/aim-loop-go/internal/display"
	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/input"
	"jordanella.com/aim-loop-go/internal/logging"
	"jordanella.com/aim-loop-go/internal/model"
	"jordanella.com/aim-loop-go/internal/monitor"
	"jordanella.com/aim-loop-go/internal/overlay"
)

const (
	displayPollInterval = time.Second
	watchdogInterval    = 5 * time.Second
	downgradeNoticeKey  = "capture-downgrade"
)

// Options locate the files a Runner reads and writes
type Options struct {
	SettingsPath string
	// OnnxLibrary is the onnxruntime shared library; empty uses the platform default
	OnnxLibrary string
	// LogDir receives the session event log; empty disables it
	LogDir string
	// DebugLog is written when debug mode is on
	DebugLog string
}

// Runner owns every service the detection loop depends on and wires them
// together. Both front ends build one Runner and drive its Engine.
type Runner struct {
	opts   Options
	logger *logging.Logger

	settings  *config.Store
	bus       *events.DefaultEventBus
	notifier  *logging.Notifier
	reporter  *logging.ErrorReporter
	eventLog  *logging.EventLogger
	debugFile *os.File

	displays *display.Manager
	frames   *capture.Manager
	runtime  *model.ONNXRuntime
	host     *model.Host
	db       *database.DB
	saver    *dataset.Saver
	bindings *input.Bindings
	sink     *overlay.BusSink
	bench    *bench.Store
	engine   *aim.Engine
	metrics  *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	watchdog *monitor.Watchdog
}

// New creates an uninitialized runner
func New(opts Options) *Runner {
	if opts.SettingsPath == "" {
		opts.SettingsPath = "Settings.ini"
	}
	if opts.DebugLog == "" {
		opts.DebugLog = "debug.txt"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize loads settings and builds every service
func (r *Runner) Initialize() error {
	s, loadErr := config.Load(r.opts.SettingsPath)
	if loadErr != nil {
		s = config.NewDefaultSettings()
	}
	r.configureLogging(s)
	r.logger = logging.NewLogger("Runner")
	if loadErr != nil {
		r.logger.WarnWithContext("Failed to load settings, using defaults", map[string]interface{}{
			"path":  r.opts.SettingsPath,
			"error": loadErr.Error(),
		})
	}

	r.settings = config.NewStore(s)
	r.bus = events.NewEventBus(256)
	r.notifier = logging.NewNotifier()
	r.reporter = logging.NewErrorReporter()
	r.bench = bench.NewStore()

	if r.opts.LogDir != "" {
		el, err := logging.NewEventLogger(r.bus, r.opts.LogDir)
		if err != nil {
			r.logger.Error("Event log disabled", err)
		} else {
			r.eventLog = el
		}
	}

	displays, err := display.NewManager(display.ScreenshotEnumerator, s.SelectedDisplay, r.bus)
	if err != nil {
		return fmt.Errorf("failed to enumerate displays: %w", err)
	}
	r.displays = displays

	r.frames = capture.NewPlatformManager(displays.Current())
	r.frames.OnDowngrade(r.handleDowngrade)
	displays.OnChange(r.frames.NotifyDisplayChanged)

	r.runtime = model.NewONNXRuntime(r.opts.OnnxLibrary)
	r.host = model.NewHost(r.runtime, r.bus, r.notifier)

	if err := r.openDataset(s); err != nil {
		// Collection stays off without a dataset, the loop still runs
		r.logger.Error("Dataset collection unavailable", err)
		r.reporter.ReportError(logging.ErrorCategoryDataset, logging.ErrorSeverityMedium, "Runner", "dataset unavailable", err)
	}

	r.bindings = input.NewPlatformBindings()
	if err := r.bindings.BindAim(s.AimKey, s.SecondAimKey); err != nil {
		r.logger.Error("Invalid aim key binding", err)
	}

	r.sink = overlay.NewBusSink(r.bus)

	deps := aim.Deps{
		Settings:  r.settings,
		Frames:    r.frames,
		Model:     r.host,
		Displays:  r.displays,
		Actuator:  actuator.NewMouse(actuator.NewRobot()),
		Keys:      r.bindings,
		Overlay:   r.sink,
		Bench:     r.bench,
		Bus:       r.bus,
		Notifier:  r.notifier,
		Reporter:  r.reporter,
		Heartbeat: r,
	}
	if r.saver != nil {
		deps.Saver = r.saver
	}
	r.engine = aim.New(deps)

	r.settings.OnChange(r.applySettings)

	go r.displays.Watch(r.ctx, displayPollInterval)

	if s.MetricsAddr != "" {
		r.serveMetrics(s.MetricsAddr)
	}

	r.logger.InfoWithContext("Runner initialized", map[string]interface{}{
		"settings": r.opts.SettingsPath,
		"displays": len(displays.Displays()),
		"model":    s.ModelPath,
	})
	return nil
}

func (r *Runner) configureLogging(s config.Settings) {
	level := logging.ParseLevel(s.LogLevel)
	outputs := []io.Writer{os.Stdout}
	if s.DebugMode {
		level = logging.LogLevelDebug
		if f, err := logging.OpenDebugFile(r.opts.DebugLog); err == nil {
			r.debugFile = f
			outputs = append(outputs, f)
		}
	}
	logging.Configure(level, outputs...)
}

func (r *Runner) openDataset(s config.Settings) error {
	db, err := database.Open(database.PathIn(s.DataDir))
	if err != nil {
		return err
	}

	saver, err := dataset.NewSaver(s.DataDir, db, r.bus)
	if err != nil {
		db.Close()
		return err
	}
	r.db = db
	r.saver = saver
	return nil
}

func (r *Runner) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", bench.Handler(bench.NewRegistry(r.bench)))
	r.metrics = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := r.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Metrics server stopped", err)
		}
	}()
	r.logger.InfoWithContext("Serving metrics", map[string]interface{}{"addr": addr})
}

// handleDowngrade persists the fallback capture method and tells the user once
func (r *Runner) handleDowngrade(reason error) {
	s := r.settings.Update(func(s *config.Settings) {
		s.CaptureMethod = config.CaptureGDI
	})
	if err := config.SaveToINI(s, r.opts.SettingsPath); err != nil {
		r.logger.Error("Failed to persist capture method", err)
	}

	if r.bus != nil {
		r.bus.Publish(events.NewCaptureDowngradedEvent(config.CaptureDirectX.String(), config.CaptureGDI.String(), reason.Error()))
	}
	r.notifier.NotifyOnce(downgradeNoticeKey, "Capture",
		fmt.Sprintf("Desktop duplication is not available (%v). Switched to GDI+ capture.", reason))
}

// applySettings follows display and key binding changes
func (r *Runner) applySettings(s config.Settings) {
	if s.SelectedDisplay != r.displays.SelectedIndex() {
		if err := r.displays.Select(s.SelectedDisplay); err != nil {
			r.logger.Error("Failed to select display", err)
		}
	}
	if err := r.bindings.BindAim(s.AimKey, s.SecondAimKey); err != nil {
		r.logger.Error("Invalid aim key binding", err)
	}
}

// RecordActivity forwards loop heartbeats to the current watchdog
func (r *Runner) RecordActivity() {
	r.mu.Lock()
	w := r.watchdog
	r.mu.Unlock()
	if w != nil {
		w.RecordActivity()
	}
}

// Start loads the configured model and starts the loop
func (r *Runner) Start() error {
	return r.StartModel(r.settings.Snapshot().ModelPath)
}

// StartModel starts the loop with the model at path, stopping a running loop first
func (r *Runner) StartModel(path string) error {
	if r.engine.Running() {
		r.Stop()
	}
	if err := r.engine.Start(path); err != nil {
		return err
	}
	if path != r.settings.Snapshot().ModelPath {
		r.settings.Update(func(s *config.Settings) { s.ModelPath = path })
	}

	w := monitor.NewWatchdog().
		WithCheckInterval(watchdogInterval).
		AddCheck("model", r.checkModel).
		WithUnhealthyCallback(func(reason string, err error) {
			r.reporter.ReportError(logging.ErrorCategorySystem, logging.ErrorSeverityHigh, "Monitor", reason, err)
		})
	w.Start()

	r.mu.Lock()
	r.watchdog = w
	r.mu.Unlock()
	return nil
}

func (r *Runner) checkModel() error {
	switch state := r.host.State(); state {
	case model.StateReady, model.StateSizeChanging:
		return nil
	default:
		return fmt.Errorf("model is %s", state)
	}
}

// Stop stops the loop and its watchdog
func (r *Runner) Stop() {
	r.mu.Lock()
	w := r.watchdog
	r.watchdog = nil
	r.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if r.engine != nil {
		r.engine.Stop()
	}
}

// SaveSettings writes the current settings back to the settings file
func (r *Runner) SaveSettings() error {
	return config.SaveToINI(r.settings.Snapshot(), r.opts.SettingsPath)
}

// Shutdown disposes the engine and releases every service
func (r *Runner) Shutdown() {
	r.Stop()
	r.cancel()

	if r.engine != nil {
		if err := r.engine.Dispose(); err != nil {
			r.logger.Error("Failed to dispose engine", err)
		}
	}
	if r.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		r.metrics.Shutdown(ctx)
		cancel()
	}
	if r.frames != nil {
		r.frames.Close()
	}
	if r.runtime != nil {
		r.runtime.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
	if r.eventLog != nil {
		r.eventLog.Close()
	}
	if r.bus != nil {
		r.bus.Stop()
	}
	if r.debugFile != nil {
		r.debugFile.Close()
	}
}

// Engine returns the detection loop
func (r *Runner) Engine() *aim.Engine {
	return r.engine
}

// Settings returns the settings store
func (r *Runner) Settings() *config.Store {
	return r.settings
}

// Bus returns the event bus
func (r *Runner) Bus() events.EventBus {
	return r.bus
}

// Notifier returns the user notice channel
func (r *Runner) Notifier() *logging.Notifier {
	return r.notifier
}

// Reporter returns the error reporter
func (r *Runner) Reporter() *logging.ErrorReporter {
	return r.reporter
}

// Displays returns the display manager
func (r *Runner) Displays() *display.Manager {
	return r.displays
}

// Model returns the model host
func (r *Runner) Model() *model.Host {
	return r.host
}

// Dataset returns the dataset index, or nil when collection is unavailable
func (r *Runner) Dataset() *database.DB {
	return r.db
}
