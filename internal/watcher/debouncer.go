package watcher

import (
	"sync"
	"time"
)

// BatchDebouncer collects events and emits them as one batch once no event
// has arrived for delay. Repeated events for a path collapse into the
// latest one, keeping the path's first position.
type BatchDebouncer struct {
	delay time.Duration
	emit  func([]Event)

	mu     sync.Mutex
	timer  *time.Timer
	order  []string
	latest map[string]Event
}

// NewBatchDebouncer creates a batch debouncer.
func NewBatchDebouncer(delay time.Duration, emit func([]Event)) *BatchDebouncer {
	return &BatchDebouncer{
		delay:  delay,
		emit:   emit,
		latest: make(map[string]Event),
	}
}

// Add records an event and restarts the quiet period.
func (b *BatchDebouncer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.latest[event.Path]; !seen {
		b.order = append(b.order, event.Path)
	}
	b.latest[event.Path] = event

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

func (b *BatchDebouncer) take() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	events := make([]Event, 0, len(b.order))
	for _, p := range b.order {
		events = append(events, b.latest[p])
	}
	b.order = nil
	b.latest = make(map[string]Event)
	return events
}

func (b *BatchDebouncer) flush() {
	if events := b.take(); len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

// Flush emits pending events now.
func (b *BatchDebouncer) Flush() {
	b.flush()
}

// Cancel drops pending events.
func (b *BatchDebouncer) Cancel() {
	b.take()
}

// Pending returns the number of distinct paths waiting to be emitted.
func (b *BatchDebouncer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
