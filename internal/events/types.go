package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Model lifecycle
	EventTypeModelLoaded           EventType = "model.loaded"
	EventTypeModelFailed           EventType = "model.failed"
	EventTypeModelClassesUpdated   EventType = "model.classes_updated"
	EventTypeModelImageSizeUpdated EventType = "model.image_size_updated"

	// Capture and displays
	EventTypeCaptureDowngraded EventType = "capture.backend_downgraded"
	EventTypeDisplayChanged    EventType = "display.changed"

	// Detection loop
	EventTypeLoopStarted EventType = "loop.started"
	EventTypeLoopStopped EventType = "loop.stopped"
	EventTypeTargetFound EventType = "target.found"
	EventTypeTargetLost  EventType = "target.lost"

	// Dataset collection
	EventTypeFrameSaved EventType = "dataset.frame_saved"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted the event
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish queues an event without blocking; it reports false if the event was dropped
	Publish(event Event) bool

	// Stop stops the event bus and drains remaining events
	Stop()
}

// NewModelLoadedEvent creates a model loaded event
func NewModelLoadedEvent(path, provider string, imageSize, numClasses int, dynamic bool) Event {
	return Event{
		Type:      EventTypeModelLoaded,
		Source:    "model",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"path":        path,
			"provider":    provider,
			"image_size":  imageSize,
			"num_classes": numClasses,
			"dynamic":     dynamic,
		},
	}
}

// NewModelFailedEvent creates a model failure event
func NewModelFailedEvent(path string, err error) Event {
	return Event{
		Type:      EventTypeModelFailed,
		Source:    "model",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		},
	}
}

// NewClassesUpdatedEvent carries a copy of the model's class map
func NewClassesUpdatedEvent(classes map[int]string) Event {
	copied := make(map[int]string, len(classes))
	for id, name := range classes {
		copied[id] = name
	}
	return Event{
		Type:      EventTypeModelClassesUpdated,
		Source:    "model",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"classes": copied},
	}
}

// NewImageSizeUpdatedEvent reports an input size forced by a fixed-size model
func NewImageSizeUpdatedEvent(from, to int) Event {
	return Event{
		Type:      EventTypeModelImageSizeUpdated,
		Source:    "model",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"from": from, "to": to},
	}
}

// NewCaptureDowngradedEvent reports a permanent switch to the fallback capture backend
func NewCaptureDowngradedEvent(from, to, reason string) Event {
	return Event{
		Type:      EventTypeCaptureDowngraded,
		Source:    "capture",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"from": from, "to": to, "reason": reason},
	}
}

// NewDisplayChangedEvent reports new bounds for the selected display
func NewDisplayChangedEvent(index, x, y, width, height int) Event {
	return Event{
		Type:      EventTypeDisplayChanged,
		Source:    "display",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"index":  index,
			"x":      x,
			"y":      y,
			"width":  width,
			"height": height,
		},
	}
}

// NewLoopEvent creates a loop started/stopped event
func NewLoopEvent(eventType EventType, modelPath string) Event {
	return Event{
		Type:      eventType,
		Source:    "aim",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"model": modelPath},
	}
}

// NewFrameSavedEvent reports a frame written by the dataset collector
func NewFrameSavedEvent(id, imagePath string, labelled bool) Event {
	return Event{
		Type:      EventTypeFrameSaved,
		Source:    "dataset",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"id":       id,
			"image":    imagePath,
			"labelled": labelled,
		},
	}
}

// NewTargetFoundEvent reports the target the overlay should draw. Box and
// tracer coordinates are absolute screen pixels.
func NewTargetFoundEvent(className string, confidence float32, x, y, width, height float32, label string) Event {
	return Event{
		Type:      EventTypeTargetFound,
		Source:    "overlay",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"class":      className,
			"confidence": confidence,
			"x":          x,
			"y":          y,
			"width":      width,
			"height":     height,
			"label":      label,
		},
	}
}

// NewTargetLostEvent reports that the overlay indicator should be hidden
func NewTargetLostEvent() Event {
	return Event{
		Type:      EventTypeTargetLost,
		Source:    "overlay",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{},
	}
}
