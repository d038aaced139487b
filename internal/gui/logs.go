package gui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
)

const filterAll = "All"

// LogEntry is one line of the event log
type LogEntry struct {
	Timestamp time.Time
	Level     logging.LogLevel
	Source    string
	Message   string
}

// LogTab shows notices, error reports and lifecycle events
type LogTab struct {
	logs    []LogEntry
	logsMu  sync.RWMutex
	maxLogs int

	// Widgets
	logList         *widget.List
	filterSelect    *widget.Select
	autoScrollCheck *widget.Check
}

// NewLogTab creates an empty log tab
func NewLogTab() *LogTab {
	return &LogTab{
		logs:    make([]LogEntry, 0, 1000),
		maxLogs: 1000,
	}
}

// Build constructs the log viewer UI
func (l *LogTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Event Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	l.filterSelect = widget.NewSelect(
		[]string{filterAll, string(logging.LogLevelDebug), string(logging.LogLevelInfo), string(logging.LogLevelWarn), string(logging.LogLevelError)},
		func(string) {
			if l.logList != nil {
				l.logList.Refresh()
			}
		},
	)
	l.filterSelect.PlaceHolder = filterAll

	l.autoScrollCheck = widget.NewCheck("Auto-scroll", nil)
	l.autoScrollCheck.SetChecked(true)

	clearBtn := widget.NewButton("Clear Logs", l.ClearLogs)

	controls := container.NewHBox(
		widget.NewLabel("Filter:"),
		l.filterSelect,
		l.autoScrollCheck,
		clearBtn,
	)

	l.logList = widget.NewList(
		func() int {
			return len(l.filtered())
		},
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("00:00:00"),
				widget.NewLabel("[LEVEL]"),
				widget.NewLabel("source"),
				widget.NewLabel("message"),
			)
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			entries := l.filtered()
			if id < 0 || id >= len(entries) {
				return
			}
			entry := entries[id]
			box := item.(*fyne.Container)

			box.Objects[0].(*widget.Label).SetText(entry.Timestamp.Format("15:04:05"))

			levelLabel := box.Objects[1].(*widget.Label)
			levelLabel.Importance = levelImportance(entry.Level)
			levelLabel.SetText(fmt.Sprintf("[%s]", entry.Level))

			box.Objects[2].(*widget.Label).SetText(entry.Source)
			box.Objects[3].(*widget.Label).SetText(entry.Message)
		},
	)

	return container.NewBorder(
		container.NewVBox(header, controls),
		nil,
		nil,
		nil,
		l.logList,
	)
}

func levelImportance(level logging.LogLevel) widget.Importance {
	switch level {
	case logging.LogLevelDebug:
		return widget.LowImportance
	case logging.LogLevelWarn:
		return widget.WarningImportance
	case logging.LogLevelError, logging.LogLevelFatal:
		return widget.DangerImportance
	default:
		return widget.MediumImportance
	}
}

// AddLog appends an entry. It may be called from any goroutine.
func (l *LogTab) AddLog(level logging.LogLevel, source, message string) {
	l.logsMu.Lock()
	l.logs = append(l.logs, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Source:    source,
		Message:   message,
	})
	if len(l.logs) > l.maxLogs {
		l.logs = l.logs[len(l.logs)-l.maxLogs:]
	}
	l.logsMu.Unlock()

	if l.logList != nil {
		fyne.Do(func() {
			l.logList.Refresh()
			if l.autoScrollCheck != nil && l.autoScrollCheck.Checked {
				l.logList.ScrollToBottom()
			}
		})
	}
}

// AddEvent logs a bus event
func (l *LogTab) AddEvent(event events.Event) {
	level := logging.LogLevelInfo
	if event.Type == events.EventTypeModelFailed || event.Type == events.EventTypeCaptureDowngraded {
		level = logging.LogLevelWarn
	}
	l.AddLog(level, event.Source, describeEvent(event))
}

// ClearLogs removes all entries
func (l *LogTab) ClearLogs() {
	l.logsMu.Lock()
	l.logs = make([]LogEntry, 0, 1000)
	l.logsMu.Unlock()

	if l.logList != nil {
		l.logList.Refresh()
	}
}

// GetLogs returns a copy of all entries
func (l *LogTab) GetLogs() []LogEntry {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	logs := make([]LogEntry, len(l.logs))
	copy(logs, l.logs)
	return logs
}

func (l *LogTab) filtered() []LogEntry {
	selected := filterAll
	if l.filterSelect != nil && l.filterSelect.Selected != "" {
		selected = l.filterSelect.Selected
	}

	l.logsMu.RLock()
	defer l.logsMu.RUnlock()
	return filterLogs(l.logs, selected)
}

func filterLogs(entries []LogEntry, level string) []LogEntry {
	if level == "" || level == filterAll {
		return entries
	}
	var out []LogEntry
	for _, e := range entries {
		if string(e.Level) == level {
			out = append(out, e)
		}
	}
	return out
}

// describeEvent renders an event as "type key=value ..." with sorted keys
func describeEvent(event events.Event) string {
	keys := make([]string, 0, len(event.Data))
	for k := range event.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(event.Type))
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, event.Data[k])
	}
	return sb.String()
}
