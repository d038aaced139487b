package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
)

// State is the lifecycle state of a Host
type State int

const (
	StateLoading State = iota
	StateReady
	StateSizeChanging
	StateDisposed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSizeChanging:
		return "size-changing"
	case StateDisposed:
		return "disposed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Host owns one loaded model: its descriptor, its inference session and the
// pending size-change flag. Infer is called only from the detection loop;
// RequestSizeChange may be called from any goroutine.
type Host struct {
	runtime  Runtime
	bus      events.EventBus
	notifier *logging.Notifier
	logger   *logging.Logger

	mu       sync.Mutex
	state    State
	path     string
	desc     Descriptor
	session  Session
	provider Provider

	sizeMu      sync.Mutex
	sizePending atomic.Bool
	pendingSize int
}

// NewHost creates an unloaded host. bus and notifier may be nil.
func NewHost(rt Runtime, bus events.EventBus, notifier *logging.Notifier) *Host {
	return &Host{
		runtime:  rt,
		bus:      bus,
		notifier: notifier,
		logger:   logging.NewLogger("Model"),
		state:    StateLoading,
	}
}

// Load inspects and validates the model at path, then opens a session on the
// accelerated provider, falling back to CPU. imageSize is the configured input
// size; fixed-size models may override it, which is reflected in the returned
// descriptor.
func (h *Host) Load(path string, imageSize int) (Descriptor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateDisposed {
		return Descriptor{}, ErrNotLoaded
	}
	h.closeSessionLocked()
	h.path = path

	desc, err := h.loadLocked(path, imageSize)
	if err != nil {
		h.state = StateFailed
		h.publish(events.NewModelFailedEvent(path, err))
		return Descriptor{}, err
	}
	return desc, nil
}

func (h *Host) loadLocked(path string, imageSize int) (Descriptor, error) {
	h.state = StateLoading

	meta, err := h.runtime.Inspect(path)
	if err != nil {
		h.logger.Error("Failed to read model", err)
		h.notify("Model", fmt.Sprintf("Error loading the model: %v", err))
		return Descriptor{}, err
	}
	h.logMetadata(meta)

	desc, err := h.describe(meta, imageSize)
	if err != nil {
		return Descriptor{}, err
	}

	input := TensorInfo{Name: meta.Inputs[0].Name, Shape: desc.InputShape()}
	output := TensorInfo{Name: meta.Outputs[0].Name, Shape: desc.OutputShape()}

	session, provider, err := h.openSession(path, input, output)
	if err != nil {
		return Descriptor{}, err
	}

	h.session = session
	h.provider = provider
	h.desc = desc
	h.state = StateReady

	h.logger.InfoWithContext("Model loaded", map[string]interface{}{
		"path":       path,
		"provider":   string(provider),
		"image_size": desc.ImageSize,
		"detections": desc.NumDetections,
		"classes":    desc.NumClasses,
		"dynamic":    desc.Dynamic,
	})
	h.publish(events.NewModelLoadedEvent(path, string(provider), desc.ImageSize, desc.NumClasses, desc.Dynamic))
	h.publish(events.NewClassesUpdatedEvent(desc.Classes))
	return desc, nil
}

// describe builds the descriptor from metadata. Fixed-size models override the
// configured size when theirs is supported; the output shape of fixed models
// must match the detection head exactly.
func (h *Host) describe(meta Metadata, imageSize int) (Descriptor, error) {
	if len(meta.Inputs) == 0 || len(meta.Outputs) == 0 {
		err := fmt.Errorf("%w: model has %d inputs and %d outputs", ErrValidation, len(meta.Inputs), len(meta.Outputs))
		h.notify("Model", err.Error())
		return Descriptor{}, err
	}

	dynamic := false
	fixedSize := 0
	for _, in := range meta.Inputs {
		if hasVariableDim(in.Shape) {
			dynamic = true
		} else if len(in.Shape) == 4 {
			fixedSize = int(in.Shape[2])
		}
	}

	classes := h.loadClasses(meta.Names)

	if dynamic {
		if imageSize <= 0 {
			return Descriptor{}, fmt.Errorf("%w: image size %d", ErrValidation, imageSize)
		}
		desc := newDescriptor(imageSize, true, classes)
		h.publish(events.NewImageSizeUpdatedEvent(imageSize, imageSize))
		h.notify("Model", fmt.Sprintf("Loaded dynamic model - using selected image size %dx%d with %d detections",
			imageSize, imageSize, desc.NumDetections))
		return desc, nil
	}

	if !IsSupportedSize(fixedSize) {
		err := fmt.Errorf("%w: model requires %dx%d, supported sizes are %s",
			ErrUnsupportedSize, fixedSize, fixedSize, joinSizes(SupportedSizes))
		h.logger.Error("Unsupported model size", err)
		h.notify("Model", err.Error())
		return Descriptor{}, err
	}
	if fixedSize != imageSize {
		h.logger.WarnWithContext("Fixed-size model overrides the configured image size", map[string]interface{}{
			"configured": imageSize,
			"model":      fixedSize,
		})
		h.notify("Model", fmt.Sprintf("Fixed-size model expects %dx%d. Automatically adjusting Image Size setting.",
			fixedSize, fixedSize))
		h.publish(events.NewImageSizeUpdatedEvent(imageSize, fixedSize))
	}

	desc := newDescriptor(fixedSize, false, classes)
	expected := desc.OutputShape()
	for _, out := range meta.Outputs {
		if !shapeEqual(out.Shape, expected) {
			err := fmt.Errorf("%w: output shape %s does not match the expected shape of %s",
				ErrValidation, FormatShape(out.Shape), FormatShape(expected))
			h.logger.Error("Model rejected", err)
			h.notify("Model", err.Error()+". Use a YOLOv8 model exported to ONNX.")
			return Descriptor{}, err
		}
	}
	return desc, nil
}

func (h *Host) loadClasses(raw string) map[int]string {
	if raw == "" {
		h.logger.Warn("Model metadata has no class names, using a single default class")
		return copyClasses(DefaultClasses)
	}
	classes, err := ParseClassNames(raw)
	if err != nil {
		h.logger.Error("Failed to parse class names", err)
		return copyClasses(DefaultClasses)
	}
	h.logger.InfoWithContext("Loaded classes from model metadata", map[string]interface{}{
		"count": len(classes),
		"names": raw,
	})
	return classes
}

// openSession tries the accelerated provider first and then the CPU provider
func (h *Host) openSession(path string, input, output TensorInfo) (Session, Provider, error) {
	var errs []error
	for _, provider := range []Provider{ProviderDirectML, ProviderCPU} {
		session, err := h.runtime.NewSession(path, provider, input, output)
		if err == nil {
			return session, provider, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", provider, err))
		if provider == ProviderDirectML {
			h.logger.Error("Failed to start the model via DirectML, falling back to CPU", err)
			h.notify("Model", fmt.Sprintf("Error starting the model via DirectML: %v. Falling back to CPU, performance may be poor.", err))
		} else {
			h.logger.Error("Failed to start the model via CPU", err)
			h.notify("Model", fmt.Sprintf("Error starting the model via CPU: %v, aim assist is unavailable.", err))
		}
	}
	return nil, "", errors.Join(errs...)
}

// Infer copies input into the session's reused input buffer and runs the model.
// The returned slice is owned by the session and valid until the next call.
func (h *Host) Infer(input []float32) ([]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateReady || h.session == nil {
		return nil, ErrNotLoaded
	}
	buf := h.session.Input()
	if len(input) != len(buf) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(buf))
	}
	copy(buf, input)

	out, err := h.session.Run()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(out) < h.desc.OutputLen() {
		return nil, fmt.Errorf("output has %d values, expected %d", len(out), h.desc.OutputLen())
	}
	return out, nil
}

// RequestSizeChange flags a pending input-size change. The detection loop idles
// while the flag is set; the owner then calls ApplySizeChange.
func (h *Host) RequestSizeChange(size int) {
	h.sizeMu.Lock()
	h.pendingSize = size
	h.sizePending.Store(true)
	h.sizeMu.Unlock()
}

// SizeChangePending reports whether a size change is waiting to be applied
func (h *Host) SizeChangePending() bool {
	return h.sizePending.Load()
}

// ApplySizeChange rebuilds the session for the pending size and clears the flag.
// Callers must make sure no Infer call is in flight.
func (h *Host) ApplySizeChange() (Descriptor, error) {
	h.sizeMu.Lock()
	defer h.sizeMu.Unlock()
	if !h.sizePending.Load() {
		return h.Descriptor(), nil
	}
	size := h.pendingSize
	defer h.sizePending.Store(false)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDisposed {
		return Descriptor{}, ErrNotLoaded
	}

	from := h.desc.ImageSize
	h.state = StateSizeChanging
	h.closeSessionLocked()
	h.logger.InfoWithContext("Applying image size change", map[string]interface{}{
		"from": from,
		"to":   size,
	})

	desc, err := h.loadLocked(h.path, size)
	if err != nil {
		h.state = StateFailed
		h.publish(events.NewModelFailedEvent(h.path, err))
		return Descriptor{}, err
	}
	return desc, nil
}

// Descriptor returns the current descriptor
func (h *Host) Descriptor() Descriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.desc
}

// Classes returns a copy of the current class map
func (h *Host) Classes() map[int]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.desc.CopyClasses()
}

// State returns the lifecycle state
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Provider returns the provider the current session runs on
func (h *Host) Provider() Provider {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.provider
}

// Close releases the session. The host cannot be reloaded afterwards.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.closeSessionLocked()
	h.state = StateDisposed
	return err
}

func (h *Host) closeSessionLocked() error {
	if h.session == nil {
		return nil
	}
	err := h.session.Close()
	h.session = nil
	return err
}

func (h *Host) logMetadata(meta Metadata) {
	for _, in := range meta.Inputs {
		h.logger.Info(fmt.Sprintf("Input %s: %s", in.Name, FormatShape(in.Shape)))
	}
	for _, out := range meta.Outputs {
		h.logger.Info(fmt.Sprintf("Output %s: %s", out.Name, FormatShape(out.Shape)))
	}
}

func (h *Host) publish(event events.Event) {
	if h.bus != nil {
		h.bus.Publish(event)
	}
}

func (h *Host) notify(title, message string) {
	if h.notifier != nil {
		h.notifier.Notify(title, message)
	}
}

func hasVariableDim(shape []int64) bool {
	for _, d := range shape {
		if d == -1 {
			return true
		}
	}
	return false
}

func joinSizes(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}

func copyClasses(classes map[int]string) map[int]string {
	out := make(map[int]string, len(classes))
	for id, name := range classes {
		out[id] = name
	}
	return out
}
