package logging

import (
	"sync"
	"time"
)

// Notice is a message meant for the user rather than the log file
type Notice struct {
	Timestamp time.Time
	Title     string
	Message   string
}

// Notifier delivers user-visible notices to whatever front end is attached.
// Notices are also written to the log so headless runs keep them.
type Notifier struct {
	logger *Logger

	mu       sync.Mutex
	handlers []func(Notice)
	sent     map[string]bool
}

// NewNotifier creates a notifier with no front end attached
func NewNotifier() *Notifier {
	return &Notifier{
		logger: NewLogger("Notice"),
		sent:   make(map[string]bool),
	}
}

// Attach registers a handler that receives every notice
func (n *Notifier) Attach(handler func(Notice)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, handler)
}

// Notify sends a notice to all handlers
func (n *Notifier) Notify(title, message string) {
	notice := Notice{Timestamp: time.Now(), Title: title, Message: message}
	n.logger.WarnWithContext(message, map[string]interface{}{"title": title})

	n.mu.Lock()
	handlers := append([]func(Notice){}, n.handlers...)
	n.mu.Unlock()

	for _, h := range handlers {
		h(notice)
	}
}

// NotifyOnce sends a notice the first time key is seen and drops it afterwards.
// It reports whether the notice was sent.
func (n *Notifier) NotifyOnce(key, title, message string) bool {
	n.mu.Lock()
	if n.sent[key] {
		n.mu.Unlock()
		return false
	}
	n.sent[key] = true
	n.mu.Unlock()

	n.Notify(title, message)
	return true
}
