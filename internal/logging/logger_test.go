package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Capture").SetOutput(&buf).SetMinLevel(LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("INFO line should have been filtered")
	}
	if !strings.Contains(out, "WARN [Capture] shown") {
		t.Errorf("Expected WARN line, got %q", out)
	}
}

func TestTextFormatterSortsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Model").SetOutput(&buf)

	logger.ErrorWithContext("load failed", errors.New("boom"), map[string]interface{}{
		"provider": "cpu",
		"attempt":  2,
	})

	out := buf.String()
	if !strings.Contains(out, "| error=boom | attempt=2 provider=cpu") {
		t.Errorf("Unexpected formatted line %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != LogLevelDebug {
		t.Error("Expected lower-case level to parse")
	}
	if ParseLevel("verbose") != LogLevelInfo {
		t.Error("Expected unknown level to fall back to INFO")
	}
}

func TestNotifyOnce(t *testing.T) {
	n := NewNotifier()
	n.logger.SetOutput(&bytes.Buffer{})

	var got []Notice
	n.Attach(func(notice Notice) { got = append(got, notice) })

	if !n.NotifyOnce("capture.downgrade", "Capture", "switched to GDI+") {
		t.Fatal("Expected first notice to be sent")
	}
	if n.NotifyOnce("capture.downgrade", "Capture", "switched to GDI+") {
		t.Fatal("Expected repeated notice to be dropped")
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 notice, got %d", len(got))
	}
}

func TestErrorReporterHistoryAndCallbacks(t *testing.T) {
	er := NewErrorReporter()
	er.SetLogger(NewLogger("ErrorReporter").SetOutput(&bytes.Buffer{}))

	var critical int
	er.OnError(ErrorSeverityCritical, func(*ErrorReport) { critical++ })

	er.ReportError(ErrorCategoryCapture, ErrorSeverityLow, "Capture", "frame wait timed out", nil)
	er.ReportCriticalError(ErrorCategoryModel, "Model", "both providers failed", errors.New("no session"), nil)

	if critical != 1 {
		t.Errorf("Expected 1 critical callback, got %d", critical)
	}
	stats := er.GetErrorStats()
	if stats["total"] != 2 || stats["category_model"] != 1 {
		t.Errorf("Unexpected stats %v", stats)
	}
	if recent := er.GetRecentErrors(1); recent[0].Category != ErrorCategoryModel {
		t.Errorf("Expected most recent report to be the model failure")
	}
}
