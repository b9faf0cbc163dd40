package events

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusPublish(t *testing.T) {
	bus := NewBus(4)
	ch := bus.Subscribe()
	defer bus.Close()

	bus.Publish(Event{Kind: KindOperationLog, Message: "hello"})

	select {
	case evt := <-ch:
		if evt.Message != "hello" {
			t.Fatalf("unexpected message: %s", evt.Message)
		}
		if evt.ID == 0 {
			t.Fatalf("expected sequence id")
		}
		if evt.Timestamp.IsZero() {
			t.Fatalf("expected timestamp")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected event to be delivered")
	}
}

func TestBusSequenceOrdering(t *testing.T) {
	bus := NewBus(8)
	ch := bus.Subscribe()
	defer bus.Close()

	for i := 0; i < 5; i++ {
		bus.Publish(Event{Kind: KindOperationProgress, Progress: i * 20})
	}
	var last uint64
	for i := 0; i < 5; i++ {
		evt := <-ch
		if evt.ID <= last {
			t.Fatalf("sequence not increasing: %d after %d", evt.ID, last)
		}
		last = evt.ID
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1)
	_ = bus.Subscribe()
	defer bus.Close()

	bus.Publish(Event{Kind: KindOperationLog})
	bus.Publish(Event{Kind: KindOperationLog})

	stats := bus.Stats()
	if stats.Dropped != 1 {
		t.Fatalf("expected 1 dropped event, got %d", stats.Dropped)
	}
	if stats.TotalPublished != 2 {
		t.Fatalf("expected 2 published, got %d", stats.TotalPublished)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(1)
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if bus.Stats().SubscriberCount != 0 {
		t.Fatalf("expected no subscribers")
	}
	bus.Close()
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(1)
	ch := bus.Subscribe()
	bus.Close()
	bus.Publish(Event{Kind: KindOperationLog})

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("expected subscribe after close to return a closed channel")
	}
}

func TestEventString(t *testing.T) {
	e := Event{Kind: KindOperationProgress, Operation: "prove:c1", Progress: 45}
	if got := e.String(); got != "[OPERATION_PROGRESS] prove:c1 45%" {
		t.Fatalf("unexpected string %q", got)
	}
}
