package events

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(Event)
}

// Bus dispatches events to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses events and is expected to re-read a snapshot.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool

	sequence atomic.Uint64
	dropped  atomic.Uint64
	buffer   int
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{buffer: buffer}
}

// Subscribe returns a channel that will receive events until Unsubscribe or Close.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	if ch == nil {
		return
	}
	target := reflect.ValueOf(ch).Pointer()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if reflect.ValueOf(sub).Pointer() == target {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			break
		}
	}
}

// Publish assigns a sequence number and timestamp and dispatches the event.
// Safe to call from any goroutine, including after Close.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	event.ID = b.sequence.Add(1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close shuts down the bus and all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		SubscriberCount: len(b.subscribers),
		TotalPublished:  b.sequence.Load(),
		Dropped:         b.dropped.Load(),
	}
}

// Stats holds bus statistics.
type Stats struct {
	SubscriberCount int
	TotalPublished  uint64
	Dropped         uint64
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
