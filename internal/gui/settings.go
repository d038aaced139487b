package gui

import (
	"fmt"
	"sort"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/predict"
)

// SettingsTab edits the live settings. Every change is applied immediately;
// Save writes them back to the settings file.
type SettingsTab struct {
	controller *Controller
	store      *config.Store

	targetSelect *widget.Select
}

// NewSettingsTab creates the settings tab
func NewSettingsTab(ctrl *Controller) *SettingsTab {
	return &SettingsTab{
		controller: ctrl,
		store:      ctrl.runner.Settings(),
	}
}

// Build constructs the settings UI
func (c *SettingsTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	s := c.store.Snapshot()

	toggles := container.NewGridWithColumns(3,
		c.check("Aim Assist", s.AimAssist, func(st *config.Settings, v bool) { st.AimAssist = v }),
		c.check("Constant AI Tracking", s.ConstantTracking, func(st *config.Settings, v bool) { st.ConstantTracking = v }),
		c.check("Show Detected Player", s.ShowDetectedPlayer, func(st *config.Settings, v bool) { st.ShowDetectedPlayer = v }),
		c.check("Auto Trigger", s.AutoTrigger, func(st *config.Settings, v bool) { st.AutoTrigger = v }),
		c.check("Spray Mode", s.SprayMode, func(st *config.Settings, v bool) { st.SprayMode = v }),
		c.check("Cursor Check", s.CursorCheck, func(st *config.Settings, v bool) { st.CursorCheck = v }),
		c.check("Sticky Aim", s.StickyAim, func(st *config.Settings, v bool) { st.StickyAim = v }),
		c.check("Predictions", s.Predictions, func(st *config.Settings, v bool) { st.Predictions = v }),
		c.check("Third Person Support", s.ThirdPerson, func(st *config.Settings, v bool) { st.ThirdPerson = v }),
		c.check("Show Confidence", s.ShowConfidence, func(st *config.Settings, v bool) { st.ShowConfidence = v }),
		c.check("Show Tracers", s.ShowTracers, func(st *config.Settings, v bool) { st.ShowTracers = v }),
		c.check("Collect Data", s.CollectData, func(st *config.Settings, v bool) { st.CollectData = v }),
		c.check("Auto Label", s.AutoLabel, func(st *config.Settings, v bool) { st.AutoLabel = v }),
	)

	c.targetSelect = widget.NewSelect([]string{config.BestConfidence}, func(v string) {
		c.store.Update(func(st *config.Settings) { st.TargetClass = v })
	})
	c.targetSelect.SetSelected(s.TargetClass)

	form := widget.NewForm(
		widget.NewFormItem("Minimum Confidence", c.slider(1, 100, 1, float64(s.MinConfidence), "%.0f%%",
			func(st *config.Settings, v float64) { st.MinConfidence = int(v) })),
		widget.NewFormItem("Mouse Sensitivity", c.slider(0, 1, 0.01, s.MouseSensitivity, "%.2f",
			func(st *config.Settings, v float64) { st.MouseSensitivity = v })),
		widget.NewFormItem("FOV Size", c.slider(10, 640, 10, float64(s.FOVSize), "%.0f px",
			func(st *config.Settings, v float64) { st.FOVSize = int(v) })),
		widget.NewFormItem("Sticky Threshold", c.slider(0, 300, 5, s.StickyThreshold, "%.0f px",
			func(st *config.Settings, v float64) { st.StickyThreshold = v })),
		widget.NewFormItem("EMA Smoothing", c.slider(0, 1, 0.05, s.EMASmoothing, "%.2f",
			func(st *config.Settings, v float64) { st.EMASmoothing = v })),
		widget.NewFormItem("Target Class", c.targetSelect),
		widget.NewFormItem("Prediction Method", c.choice(predictionMethods(), s.PredictionMethod,
			func(st *config.Settings, v string) { st.PredictionMethod = v })),
		widget.NewFormItem("Detection Area", c.choice(
			[]string{config.AreaClosestToMouse.String(), config.AreaScreenCenter.String()}, s.DetectionArea.String(),
			func(st *config.Settings, v string) { st.DetectionArea.UnmarshalText([]byte(v)) })),
		widget.NewFormItem("Capture Method", c.choice(
			[]string{config.CaptureDirectX.String(), config.CaptureGDI.String()}, s.CaptureMethod.String(),
			func(st *config.Settings, v string) { st.CaptureMethod.UnmarshalText([]byte(v)) })),
		widget.NewFormItem("Alignment", c.choice(
			[]string{config.AlignTop.String(), config.AlignCenter.String(), config.AlignBottom.String()}, s.Alignment.String(),
			func(st *config.Settings, v string) { st.Alignment.UnmarshalText([]byte(v)) })),
		widget.NewFormItem("Tracer Position", c.choice(
			[]string{config.TracerTop.String(), config.TracerMiddle.String(), config.TracerBottom.String()}, s.TracerPosition.String(),
			func(st *config.Settings, v string) { st.TracerPosition.UnmarshalText([]byte(v)) })),
		widget.NewFormItem("X Offset", c.number(s.XOffset, func(st *config.Settings, v float64) { st.XOffset = v })),
		widget.NewFormItem("Y Offset", c.number(s.YOffset, func(st *config.Settings, v float64) { st.YOffset = v })),
		widget.NewFormItem("Trigger Delay (s)", c.number(s.TriggerDelay, func(st *config.Settings, v float64) { st.TriggerDelay = v })),
		widget.NewFormItem("Aim Key", c.text(s.AimKey, func(st *config.Settings, v string) { st.AimKey = v })),
		widget.NewFormItem("Second Aim Key", c.text(s.SecondAimKey, func(st *config.Settings, v string) { st.SecondAimKey = v })),
	)

	saveBtn := widget.NewButton("Save Settings", func() {
		if err := c.controller.runner.SaveSettings(); err != nil {
			dialog.ShowError(err, c.controller.window)
			return
		}
		dialog.ShowInformation("Settings", "Settings saved.", c.controller.window)
	})

	return container.NewBorder(
		header,
		saveBtn,
		nil,
		nil,
		container.NewVScroll(container.NewVBox(toggles, widget.NewSeparator(), form)),
	)
}

// SetClasses offers the model's class names as targets
func (c *SettingsTab) SetClasses(event events.Event) {
	classes, _ := event.Data["classes"].(map[int]string)
	c.targetSelect.Options = targetOptions(classes)
	c.targetSelect.Refresh()
}

func (c *SettingsTab) check(label string, value bool, set func(*config.Settings, bool)) *widget.Check {
	check := widget.NewCheck(label, nil)
	check.SetChecked(value)
	check.OnChanged = func(v bool) {
		c.store.Update(func(st *config.Settings) { set(st, v) })
	}
	return check
}

func (c *SettingsTab) slider(min, max, step, value float64, format string, set func(*config.Settings, float64)) fyne.CanvasObject {
	slider := widget.NewSlider(min, max)
	slider.Step = step
	slider.SetValue(value)
	valueLabel := widget.NewLabel(fmt.Sprintf(format, value))

	slider.OnChanged = func(v float64) {
		valueLabel.SetText(fmt.Sprintf(format, v))
	}
	slider.OnChangeEnded = func(v float64) {
		c.store.Update(func(st *config.Settings) { set(st, v) })
	}
	return container.NewBorder(nil, nil, nil, valueLabel, slider)
}

func (c *SettingsTab) choice(options []string, value string, set func(*config.Settings, string)) *widget.Select {
	sel := widget.NewSelect(options, nil)
	sel.SetSelected(value)
	sel.OnChanged = func(v string) {
		c.store.Update(func(st *config.Settings) { set(st, v) })
	}
	return sel
}

func (c *SettingsTab) number(value float64, set func(*config.Settings, float64)) *widget.Entry {
	entry := widget.NewEntry()
	entry.SetText(strconv.FormatFloat(value, 'f', -1, 64))
	entry.OnChanged = func(text string) {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return
		}
		c.store.Update(func(st *config.Settings) { set(st, v) })
	}
	return entry
}

func (c *SettingsTab) text(value string, set func(*config.Settings, string)) *widget.Entry {
	entry := widget.NewEntry()
	entry.SetText(value)
	entry.OnSubmitted = func(text string) {
		c.store.Update(func(st *config.Settings) { set(st, text) })
	}
	return entry
}

func predictionMethods() []string {
	return []string{predict.KindKalman.String(), predict.KindDelta.String(), predict.KindEMA.String()}
}

// targetOptions lists BestConfidence followed by class names in id order
func targetOptions(classes map[int]string) []string {
	ids := make([]int, 0, len(classes))
	for id := range classes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	options := []string{config.BestConfidence}
	for _, id := range ids {
		options = append(options, classes[id])
	}
	return options
}
