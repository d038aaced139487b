package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
	"jordanella.com/aim-loop-go/internal/runner"
)

// Controller owns the window and connects its tabs to the runner
type Controller struct {
	runner *runner.Runner
	app    fyne.App
	window fyne.Window

	// GUI components
	statusTab   *StatusTab
	settingsTab *SettingsTab
	benchTab    *BenchTab
	logTab      *LogTab

	// Content area reference for tab switching
	contentArea *fyne.Container
	currentTab  int
	mu          sync.RWMutex

	bridge *Bridge
}

// NewController creates a controller for an initialized runner
func NewController(r *runner.Runner, app fyne.App, window fyne.Window) *Controller {
	ctrl := &Controller{
		runner: r,
		app:    app,
		window: window,
		bridge: NewBridge(r.Bus()),
	}

	ctrl.statusTab = NewStatusTab(ctrl)
	ctrl.settingsTab = NewSettingsTab(ctrl)
	ctrl.benchTab = NewBenchTab(r.Engine().BenchStore())
	ctrl.logTab = NewLogTab()

	return ctrl
}

// BuildUI constructs the main UI with horizontal tabs
func (c *Controller) BuildUI() fyne.CanvasObject {
	tabButtons := container.NewHBox(
		widget.NewButton("Status", func() { c.switchTab(0) }),
		widget.NewButton("Settings", func() { c.switchTab(1) }),
		widget.NewButton("Benchmarks", func() { c.switchTab(2) }),
		widget.NewButton("Event Log", func() { c.switchTab(3) }),
	)

	c.contentArea = container.NewStack(
		c.statusTab.Build(),
		c.settingsTab.Build(),
		c.benchTab.Build(),
		c.logTab.Build(),
	)
	c.showTab(0)

	c.setupEventHandlers()

	return container.NewBorder(
		tabButtons,    // Top
		nil,           // Bottom
		nil,           // Left
		nil,           // Right
		c.contentArea, // Center
	)
}

// setupEventHandlers routes bus events, notices and error reports to the tabs
func (c *Controller) setupEventHandlers() {
	c.bridge.Handle(events.EventTypeTargetFound, c.statusTab.ShowTarget)
	c.bridge.Handle(events.EventTypeTargetLost, func(events.Event) { c.statusTab.HideTarget() })
	c.bridge.Handle(events.EventTypeLoopStarted, func(events.Event) { c.statusTab.SetRunning(true) })
	c.bridge.Handle(events.EventTypeLoopStopped, func(events.Event) { c.statusTab.SetRunning(false) })
	c.bridge.Handle(events.EventTypeModelLoaded, c.statusTab.SetModel)
	c.bridge.Handle(events.EventTypeModelFailed, c.statusTab.SetModelFailed)
	c.bridge.Handle(events.EventTypeModelClassesUpdated, c.statusTab.SetClasses)
	c.bridge.Handle(events.EventTypeModelClassesUpdated, c.settingsTab.SetClasses)
	c.bridge.Handle(events.EventTypeModelImageSizeUpdated, func(e events.Event) {
		if size, ok := e.Data["to"].(int); ok {
			c.statusTab.SetImageSize(size)
		}
	})

	for _, t := range []events.EventType{
		events.EventTypeModelLoaded,
		events.EventTypeModelFailed,
		events.EventTypeModelImageSizeUpdated,
		events.EventTypeCaptureDowngraded,
		events.EventTypeDisplayChanged,
		events.EventTypeLoopStarted,
		events.EventTypeLoopStopped,
		events.EventTypeFrameSaved,
	} {
		c.bridge.Handle(t, c.logTab.AddEvent)
	}

	c.runner.Notifier().Attach(func(n logging.Notice) {
		c.logTab.AddLog(logging.LogLevelWarn, n.Title, n.Message)
	})
	for _, severity := range []logging.ErrorSeverity{
		logging.ErrorSeverityMedium,
		logging.ErrorSeverityHigh,
		logging.ErrorSeverityCritical,
	} {
		c.runner.Reporter().OnError(severity, func(report *logging.ErrorReport) {
			message := report.Message
			if report.Error != nil {
				message = fmt.Sprintf("%s: %v", message, report.Error)
			}
			c.logTab.AddLog(logging.LogLevelError, report.Component, message)
		})
	}
}

// Start begins delivering events. Call it once the window is shown.
func (c *Controller) Start() {
	c.bridge.Start()
	c.logTab.AddLog(logging.LogLevelInfo, "GUI", "Status window ready")
}

// switchTab changes the active tab
func (c *Controller) switchTab(tabIndex int) {
	c.mu.Lock()
	c.currentTab = tabIndex
	c.mu.Unlock()

	c.showTab(tabIndex)
}

// showTab updates which tab content is visible
func (c *Controller) showTab(tabIndex int) {
	if c.contentArea == nil {
		return
	}
	for i, obj := range c.contentArea.Objects {
		if i == tabIndex {
			obj.Show()
		} else {
			obj.Hide()
		}
	}
	c.contentArea.Refresh()
}

// Shutdown stops the UI goroutines and the runner
func (c *Controller) Shutdown() {
	c.bridge.Stop()
	c.benchTab.Stop()
	c.runner.Shutdown()
}
