package aim

import (
	"context"
	"fmt"

	"jordanella.com/aim-loop-go/internal/actuator"
	"jordanella.com/aim-loop-go/internal/bench"
	"jordanella.com/aim-loop-go/internal/capture"
	"jordanella.com/aim-loop-go/internal/config"
	"jordanella.com/aim-loop-go/internal/dataset"
	"jordanella.com/aim-loop-go/internal/detect"
	"jordanella.com/aim-loop-go/internal/input"
	"jordanella.com/aim-loop-go/internal/logging"
	"jordanella.com/aim-loop-go/internal/overlay"
	"jordanella.com/aim-loop-go/internal/predict"
	"jordanella.com/aim-loop-go/internal/tracking"
)

// run is the loop goroutine. It exits when ctx is cancelled or a cycle panics.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			e.logger.Fatal("Detection loop crashed", err)
			e.report(logging.ErrorCategorySystem, logging.ErrorSeverityCritical, "Detection loop crashed", err)
		}
	}()

	for ctx.Err() == nil {
		if e.deps.Model.SizeChangePending() {
			select {
			case e.idle <- struct{}{}:
			default:
			}
			e.sleep(idleSleep)
			continue
		}
		e.cycle()
	}
}

// cycle runs one iteration against a single settings snapshot
func (e *Engine) cycle() {
	s := e.deps.Settings.Snapshot()
	e.deps.Frames.HandlePendingDisplayChanges()
	if e.deps.Heartbeat != nil {
		e.deps.Heartbeat.RecordActivity()
	}

	if !s.ShouldProcess() {
		e.sleep(idleSleep)
		return
	}

	aimHeld := e.deps.Keys.IsHolding(input.AimBinding)
	secondHeld := e.deps.Keys.IsHolding(input.SecondAimBinding)
	if !(s.ShowDetectedPlayer || s.ConstantTracking || aimHeld || secondHeld) {
		e.sleep(idleSleep)
		return
	}

	start := e.now()
	defer func() {
		d := e.now().Sub(start)
		e.bench.Record(bench.StageIteration, d)
		e.bench.RecordIteration(d)
	}()
	display := e.deps.Displays.Current()

	target, ok := e.findTarget(s, display)
	if !ok {
		if e.deps.Overlay != nil {
			e.deps.Overlay.Hide()
		}
		return
	}

	stop := e.bench.Time(bench.StageAutoTrigger)
	e.autoTrigger(s, target, display, aimHeld, secondHeld)
	stop()

	if s.ShowDetectedPlayer && e.deps.Overlay != nil {
		e.deps.Overlay.Show(overlay.NewState(target, overlay.Options{
			ShowConfidence: s.ShowConfidence,
			ShowTracers:    s.ShowTracers,
			TracerPosition: s.TracerPosition,
			Display:        display,
		}))
	}

	stop = e.bench.Time(bench.StageAim)
	e.aim(s, target, display, aimHeld, secondHeld)
	stop()
}

// findTarget captures, infers, decodes and selects. Every failure is "no target".
func (e *Engine) findTarget(s config.Settings, display capture.Rect) (detect.Detection, bool) {
	desc := e.deps.Model.Descriptor()
	size := desc.ImageSize
	if size <= 0 {
		return detect.Detection{}, false
	}
	if size != e.inputSize || len(e.input) != desc.InputLen() {
		e.input = make([]float32, desc.InputLen())
		e.inputSize = size
		e.tracker.Reset()
	}

	cx, cy := e.deps.Actuator.CursorPosition()
	region := CaptureRegion(s.DetectionArea, cx, cy, display, size)

	stop := e.bench.Time(bench.StageCapture)
	frame := e.deps.Frames.Grab(region, s.CaptureMethod, capture.Options{ThirdPerson: s.ThirdPerson})
	stop()
	if frame == nil {
		return detect.Detection{}, false
	}

	stop = e.bench.Time(bench.StageConvert)
	err := e.converter.Fill(frame, e.input, size)
	stop()
	if err != nil {
		e.logger.Debug(fmt.Sprintf("Frame conversion failed: %v", err))
		return detect.Detection{}, false
	}

	stop = e.bench.Time(bench.StageInference)
	out, err := e.deps.Model.Infer(e.input)
	stop()
	if err != nil {
		e.logger.Debug(fmt.Sprintf("Inference returned no result: %v", err))
		e.report(logging.ErrorCategoryInference, logging.ErrorSeverityLow, "Inference failed", err)
		e.saveFrame(s, frame, nil)
		return detect.Detection{}, false
	}

	stop = e.bench.Time(bench.StageDecode)
	candidates, err := e.decoder.Decode(out, desc, region, detect.Options{
		MinConfidence: s.ConfidenceThreshold(),
		ClassID:       detect.ResolveClass(desc, s.TargetClass),
		FOV:           detect.NewFOV(size, s.FOVSize),
	})
	stop()
	if err != nil {
		e.logger.Debug(fmt.Sprintf("Decode failed: %v", err))
		return detect.Detection{}, false
	}

	stop = e.bench.Time(bench.StageSelect)
	target, ok := e.tracker.Select(candidates, tracking.Options{
		Sticky:    s.StickyAim,
		Threshold: float32(s.StickyThreshold),
		InputSize: size,
	})
	stop()

	if !ok {
		e.saveFrame(s, frame, nil)
		return detect.Detection{}, false
	}
	e.saveFrame(s, frame, &target)
	return target, true
}

// autoTrigger clicks only while the primary aim key is held alone and
// constant tracking is off. Every other combination goes through
// checkSprayRelease instead.
func (e *Engine) autoTrigger(s config.Settings, target detect.Detection, display capture.Rect, aimHeld, secondHeld bool) {
	if !s.AutoTrigger || !(aimHeld && !secondHeld) || s.ConstantTracking {
		e.checkSprayRelease(s, aimHeld, secondHeld)
		return
	}

	box := target.ScreenBox()
	st := actuator.TriggerState{
		AimHeld:     aimHeld,
		SecondHeld:  secondHeld,
		SprayMode:   s.SprayMode,
		CursorCheck: s.CursorCheck,
		Delay:       s.TriggerDelayDuration(),
	}

	if s.SprayMode {
		e.deps.Actuator.TriggerClick(&box, st)
		return
	}

	if s.CursorCheck {
		x, y := e.deps.Actuator.CursorPosition()
		if !display.Contains(x, y) {
			return
		}
		if box.Contains(float32(x), float32(y)) {
			e.deps.Actuator.TriggerClick(&box, st)
		}
		return
	}
	e.deps.Actuator.TriggerClick(nil, st)
}

// checkSprayRelease keeps a spray going only while auto trigger is on and
// both aim keys are held.
func (e *Engine) checkSprayRelease(s config.Settings, aimHeld, secondHeld bool) {
	if !s.SprayMode {
		return
	}
	if !(s.AutoTrigger && aimHeld && secondHeld) {
		e.deps.Actuator.ResetSpray()
	}
}

// aim maps the target to a screen point, filters it and moves the pointer
func (e *Engine) aim(s config.Settings, target detect.Detection, display capture.Rect, aimHeld, secondHeld bool) {
	if !s.AimAssist || !(s.ConstantTracking || aimHeld || secondHeld) {
		return
	}

	x, y := AimPoint(target, s)

	if s.Predictions {
		kind, err := predict.ParseKind(s.PredictionMethod)
		if err != nil {
			kind = predict.KindKalman
		}
		e.predictor.SetEMAAlpha(s.EMASmoothing)
		p := e.predictor.Filter(kind, predict.Point{X: float64(x), Y: float64(y)}, e.now())
		x, y = int(p.X), int(p.Y)
	}

	e.deps.Actuator.MoveTowards(x, y, actuator.MoveOptions{
		Display:     display,
		Sensitivity: s.MouseSensitivity,
	})
	if !s.AutoTrigger {
		e.deps.Actuator.ResetSpray()
	}
}

func (e *Engine) saveFrame(s config.Settings, frame *capture.Frame, target *detect.Detection) {
	if e.deps.Saver == nil || !s.CollectData {
		return
	}
	_, err := e.deps.Saver.Save(frame, target, dataset.Options{
		Collect:          s.CollectData,
		AutoLabel:        s.AutoLabel,
		ConstantTracking: s.ConstantTracking,
		ModelPath:        e.modelPath,
	})
	if err != nil {
		e.logger.Error("Failed to save frame", err)
		e.report(logging.ErrorCategoryDataset, logging.ErrorSeverityLow, "Failed to save frame", err)
	}
}
