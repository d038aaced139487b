package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/aim-loop-go/internal/events"
)

// EventLogger writes lifecycle events from the bus to a session log file.
// Per-frame target events are left out to keep the file readable.
type EventLogger struct {
	logger        *Logger
	eventBus      events.EventBus
	subscriptions []events.SubscriptionID
	logFile       *os.File
}

// NewEventLogger creates a new event logger writing under logDir
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	el := &EventLogger{
		logger:   NewLogger("EventLogger").SetOutput(logFile),
		eventBus: eventBus,
		logFile:  logFile,
	}

	for _, eventType := range []events.EventType{
		events.EventTypeModelLoaded,
		events.EventTypeModelFailed,
		events.EventTypeModelClassesUpdated,
		events.EventTypeModelImageSizeUpdated,
		events.EventTypeCaptureDowngraded,
		events.EventTypeDisplayChanged,
		events.EventTypeLoopStarted,
		events.EventTypeLoopStopped,
		events.EventTypeFrameSaved,
	} {
		el.subscriptions = append(el.subscriptions, eventBus.Subscribe(eventType, el.handleEvent))
	}

	return el, nil
}

func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"source": event.Source,
	}
	for k, v := range event.Data {
		context[k] = v
	}

	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close unsubscribes and closes the log file
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptions {
		el.eventBus.Unsubscribe(id)
	}
	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
