package logging

import (
	"fmt"
	"sync"
	"time"
)

// ErrorCategory represents the layer an error came from
type ErrorCategory string

const (
	ErrorCategoryCapture   ErrorCategory = "capture"
	ErrorCategoryModel     ErrorCategory = "model"
	ErrorCategoryInference ErrorCategory = "inference"
	ErrorCategoryDisplay   ErrorCategory = "display"
	ErrorCategoryDataset   ErrorCategory = "dataset"
	ErrorCategorySystem    ErrorCategory = "system"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// ErrorReport represents a detailed error report
type ErrorReport struct {
	Timestamp   time.Time              `json:"timestamp"`
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Component   string                 `json:"component"`
	Message     string                 `json:"message"`
	Error       error                  `json:"error"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// ErrorCallback is called when an error is reported
type ErrorCallback func(report *ErrorReport)

// ErrorReporter keeps a bounded history of reports and fans them out by severity
type ErrorReporter struct {
	logger *Logger

	historyMu  sync.RWMutex
	history    []*ErrorReport
	maxHistory int

	callbacksMu sync.RWMutex
	callbacks   map[ErrorSeverity][]ErrorCallback
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{
		logger:     NewLogger("ErrorReporter"),
		maxHistory: 256,
		callbacks:  make(map[ErrorSeverity][]ErrorCallback),
	}
}

// SetLogger sets the logger for the error reporter
func (er *ErrorReporter) SetLogger(logger *Logger) {
	er.logger = logger
}

// Report logs, records and dispatches a report
func (er *ErrorReporter) Report(report *ErrorReport) {
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	er.logReport(report)

	er.historyMu.Lock()
	er.history = append(er.history, report)
	if len(er.history) > er.maxHistory {
		er.history = er.history[len(er.history)-er.maxHistory:]
	}
	er.historyMu.Unlock()

	er.callbacksMu.RLock()
	callbacks := er.callbacks[report.Severity]
	er.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		callback(report)
	}
}

// ReportError reports a recoverable error
func (er *ErrorReporter) ReportError(category ErrorCategory, severity ErrorSeverity, component, message string, err error) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    severity,
		Component:   component,
		Message:     message,
		Error:       err,
		Recoverable: true,
	})
}

// ReportCriticalError reports a critical, non-recoverable error
func (er *ErrorReporter) ReportCriticalError(category ErrorCategory, component, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    ErrorSeverityCritical,
		Component:   component,
		Message:     message,
		Error:       err,
		Context:     context,
		Recoverable: false,
	})
}

func (er *ErrorReporter) logReport(report *ErrorReport) {
	context := map[string]interface{}{
		"category":    string(report.Category),
		"component":   report.Component,
		"recoverable": report.Recoverable,
	}
	for k, v := range report.Context {
		context[k] = v
	}

	switch report.Severity {
	case ErrorSeverityCritical:
		er.logger.FatalWithContext(report.Message, report.Error, context)
	case ErrorSeverityHigh:
		er.logger.ErrorWithContext(report.Message, report.Error, context)
	case ErrorSeverityMedium:
		er.logger.WarnWithContext(report.Message, context)
	default:
		er.logger.DebugWithContext(report.Message, context)
	}
}

// OnError registers a callback for a specific error severity
func (er *ErrorReporter) OnError(severity ErrorSeverity, callback ErrorCallback) {
	er.callbacksMu.Lock()
	defer er.callbacksMu.Unlock()

	er.callbacks[severity] = append(er.callbacks[severity], callback)
}

// GetRecentErrors returns the N most recent errors
func (er *ErrorReporter) GetRecentErrors(n int) []*ErrorReport {
	er.historyMu.RLock()
	defer er.historyMu.RUnlock()

	if n > len(er.history) {
		n = len(er.history)
	}
	result := make([]*ErrorReport, n)
	copy(result, er.history[len(er.history)-n:])
	return result
}

// GetErrorStats counts reports per severity and category
func (er *ErrorReporter) GetErrorStats() map[string]int {
	er.historyMu.RLock()
	defer er.historyMu.RUnlock()

	stats := map[string]int{"total": len(er.history)}
	for _, report := range er.history {
		stats[fmt.Sprintf("severity_%s", report.Severity)]++
		stats[fmt.Sprintf("category_%s", report.Category)]++
	}
	return stats
}
