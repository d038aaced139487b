package gui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/model"
)

// StatusTab shows the loop, the loaded model and the current target
type StatusTab struct {
	controller *Controller

	// Widgets
	loopLabel     *widget.Label
	modelLabel    *widget.Label
	providerLabel *widget.Label
	targetLabel   *widget.Label
	indicator     *canvas.Rectangle
	classesLabel  *widget.Label
	sizeSelect    *widget.Select
	displaySelect *widget.Select
	startBtn      *widget.Button
	stopBtn       *widget.Button
}

// NewStatusTab creates the status tab
func NewStatusTab(ctrl *Controller) *StatusTab {
	return &StatusTab{controller: ctrl}
}

// Build constructs the status UI
func (s *StatusTab) Build() fyne.CanvasObject {
	settings := s.controller.runner.Settings().Snapshot()

	header := widget.NewLabelWithStyle("Detection Loop", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	s.loopLabel = widget.NewLabel("Stopped")
	s.modelLabel = widget.NewLabel(settings.ModelPath)
	s.providerLabel = widget.NewLabel("-")
	s.classesLabel = widget.NewLabel("-")
	s.classesLabel.Wrapping = fyne.TextWrapWord

	s.indicator = canvas.NewRectangle(ColorIdle)
	s.indicator.SetMinSize(fyne.NewSize(16, 16))
	s.targetLabel = widget.NewLabel("No target")

	s.startBtn = widget.NewButton("Start", func() { s.start("") })
	s.stopBtn = widget.NewButton("Stop", s.stop)
	s.stopBtn.Disable()
	loadBtn := widget.NewButton("Load Model...", s.browseForModel)

	sizes := make([]string, len(model.SupportedSizes))
	for i, size := range model.SupportedSizes {
		sizes[i] = strconv.Itoa(size)
	}
	s.sizeSelect = widget.NewSelect(sizes, s.changeSize)
	s.sizeSelect.SetSelected(strconv.Itoa(settings.ImageSize))

	s.displaySelect = widget.NewSelect(s.displayOptions(), s.changeDisplay)
	if settings.SelectedDisplay < len(s.displaySelect.Options) {
		s.displaySelect.SetSelectedIndex(settings.SelectedDisplay)
	}

	form := widget.NewForm(
		widget.NewFormItem("Loop", s.loopLabel),
		widget.NewFormItem("Model", s.modelLabel),
		widget.NewFormItem("Provider", s.providerLabel),
		widget.NewFormItem("Image Size", s.sizeSelect),
		widget.NewFormItem("Display", s.displaySelect),
		widget.NewFormItem("Classes", s.classesLabel),
	)

	target := container.NewHBox(s.indicator, s.targetLabel)

	return container.NewVScroll(container.NewVBox(
		header,
		container.NewGridWithColumns(3, s.startBtn, s.stopBtn, loadBtn),
		widget.NewSeparator(),
		form,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Target", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		target,
	))
}

func (s *StatusTab) displayOptions() []string {
	displays := s.controller.runner.Displays().Displays()
	options := make([]string, len(displays))
	for i, d := range displays {
		options[i] = fmt.Sprintf("%d: %dx%d at (%d, %d)", d.Index, d.Bounds.Width, d.Bounds.Height, d.Bounds.X, d.Bounds.Y)
	}
	return options
}

func (s *StatusTab) start(path string) {
	s.startBtn.Disable()
	go func() {
		var err error
		if path == "" {
			err = s.controller.runner.Start()
		} else {
			err = s.controller.runner.StartModel(path)
		}
		if err != nil {
			fyne.Do(func() {
				s.startBtn.Enable()
				dialog.ShowError(err, s.controller.window)
			})
		}
	}()
}

func (s *StatusTab) stop() {
	s.stopBtn.Disable()
	go s.controller.runner.Stop()
}

func (s *StatusTab) browseForModel() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		s.modelLabel.SetText(path)
		s.start(path)
	}, s.controller.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".onnx"}))
	fd.Show()
}

func (s *StatusTab) changeSize(value string) {
	size, err := strconv.Atoi(value)
	if err != nil || size == s.controller.runner.Settings().Snapshot().ImageSize {
		return
	}
	go func() {
		if _, err := s.controller.runner.Engine().RequestSizeChange(size); err != nil {
			fyne.Do(func() { dialog.ShowError(err, s.controller.window) })
		}
	}()
}

func (s *StatusTab) changeDisplay(string) {
	index := s.displaySelect.SelectedIndex()
	if index < 0 {
		return
	}
	s.controller.runner.Settings().Update(func(st *config.Settings) { st.SelectedDisplay = index })
}

// SetRunning updates the loop state and buttons
func (s *StatusTab) SetRunning(running bool) {
	if running {
		s.loopLabel.SetText("Running")
		s.loopLabel.Importance = widget.SuccessImportance
		s.startBtn.Disable()
		s.stopBtn.Enable()
	} else {
		s.loopLabel.SetText("Stopped")
		s.loopLabel.Importance = widget.MediumImportance
		s.startBtn.Enable()
		s.stopBtn.Disable()
		s.HideTarget()
	}
	s.loopLabel.Refresh()
}

// SetModel shows a loaded model
func (s *StatusTab) SetModel(event events.Event) {
	s.modelLabel.SetText(fmt.Sprint(event.Data["path"]))
	s.providerLabel.SetText(fmt.Sprint(event.Data["provider"]))
	if size, ok := event.Data["image_size"].(int); ok {
		s.SetImageSize(size)
	}
}

// SetModelFailed shows a failed load
func (s *StatusTab) SetModelFailed(event events.Event) {
	s.providerLabel.SetText("failed: " + fmt.Sprint(event.Data["error"]))
	s.startBtn.Enable()
}

// SetImageSize selects size without triggering a change request
func (s *StatusTab) SetImageSize(size int) {
	s.sizeSelect.Selected = strconv.Itoa(size)
	s.sizeSelect.Refresh()
}

// SetClasses shows the class map
func (s *StatusTab) SetClasses(event events.Event) {
	classes, _ := event.Data["classes"].(map[int]string)
	s.classesLabel.SetText(formatClasses(classes))
}

// ShowTarget lights the indicator for a found target
func (s *StatusTab) ShowTarget(event events.Event) {
	s.indicator.FillColor = ColorTarget
	s.indicator.Refresh()
	s.targetLabel.SetText(describeTarget(event))
}

// HideTarget resets the indicator
func (s *StatusTab) HideTarget() {
	s.indicator.FillColor = ColorIdle
	s.indicator.Refresh()
	s.targetLabel.SetText("No target")
}

func formatClasses(classes map[int]string) string {
	if len(classes) == 0 {
		return "-"
	}
	ids := make([]int, 0, len(classes))
	for id := range classes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d: %s", id, classes[id])
	}
	return strings.Join(parts, ", ")
}

func describeTarget(event events.Event) string {
	text, _ := event.Data["label"].(string)
	if text == "" {
		text, _ = event.Data["class"].(string)
	}
	x, _ := event.Data["x"].(float32)
	y, _ := event.Data["y"].(float32)
	w, _ := event.Data["width"].(float32)
	h, _ := event.Data["height"].(float32)
	return fmt.Sprintf("%s at (%.0f, %.0f) %.0fx%.0f", text, x, y, w, h)
}
