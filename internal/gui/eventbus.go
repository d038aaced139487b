package gui

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"jordanella.com/aim-loop-go/internal/events"
	"jordanella.com/aim-loop-go/internal/logging"
)

const (
	bridgeQueueSize = 256
	bridgeTick      = 10 * time.Millisecond
)

// Bridge moves events from the engine's bus onto the fyne main thread.
// Bus handlers only enqueue; a ticker drains the queue and runs the UI
// handlers inside fyne.Do.
type Bridge struct {
	bus      events.EventBus
	queue    chan events.Event
	handlers map[events.EventType][]events.EventHandler
	subs     []events.SubscriptionID
	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *logging.Logger
}

// NewBridge creates a bridge reading from bus
func NewBridge(bus events.EventBus) *Bridge {
	return &Bridge{
		bus:      bus,
		queue:    make(chan events.Event, bridgeQueueSize),
		handlers: make(map[events.EventType][]events.EventHandler),
		stopCh:   make(chan struct{}),
		logger:   logging.NewLogger("GUI"),
	}
}

// Handle registers a UI handler for eventType. Handlers run on the main thread.
func (b *Bridge) Handle(eventType events.EventType, handler events.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[eventType]; !ok && b.bus != nil {
		b.subs = append(b.subs, b.bus.Subscribe(eventType, b.enqueue))
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *Bridge) enqueue(event events.Event) {
	select {
	case b.queue <- event:
	case <-b.stopCh:
	default:
		if event.Type != events.EventTypeTargetFound {
			b.logger.WarnWithContext("UI queue full, dropping event", map[string]interface{}{"type": string(event.Type)})
		}
	}
}

// Start begins draining the queue. It must be called after the window is shown.
func (b *Bridge) Start() {
	go func() {
		ticker := time.NewTicker(bridgeTick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.processEvents()
			case <-b.stopCh:
				return
			}
		}
	}()
}

// Stop unsubscribes from the bus and stops draining
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)

		b.mu.Lock()
		subs := b.subs
		b.subs = nil
		b.mu.Unlock()

		for _, id := range subs {
			b.bus.Unsubscribe(id)
		}
	})
}

func (b *Bridge) processEvents() {
	batch := b.drain()
	if len(batch) == 0 {
		return
	}
	batch = coalesceTargets(batch)

	fyne.Do(func() {
		for _, event := range batch {
			b.dispatch(event)
		}
	})
}

func (b *Bridge) drain() []events.Event {
	var batch []events.Event
	for {
		select {
		case event := <-b.queue:
			batch = append(batch, event)
		default:
			return batch
		}
	}
}

func (b *Bridge) dispatch(event events.Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// coalesceTargets keeps only the newest target event of a batch
func coalesceTargets(batch []events.Event) []events.Event {
	last := -1
	for i, e := range batch {
		if isTargetEvent(e.Type) {
			last = i
		}
	}
	if last < 0 {
		return batch
	}

	out := batch[:0:0]
	for i, e := range batch {
		if isTargetEvent(e.Type) && i != last {
			continue
		}
		out = append(out, e)
	}
	return out
}

func isTargetEvent(t events.EventType) bool {
	return t == events.EventTypeTargetFound || t == events.EventTypeTargetLost
}
