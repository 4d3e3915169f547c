package events

import (
	"testing"
	"time"
)

func TestBus_PublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(Event{
		Type:    TypePropertyChanged,
		Device:  "main-camera",
		Payload: PropertyChange{Name: "gain", Value: float64(1)},
	})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != TypePropertyChanged {
				t.Errorf("subscriber %d: Type = %q, want %q", i, ev.Type, TypePropertyChanged)
			}
			if ev.Device != "main-camera" {
				t.Errorf("subscriber %d: Device = %q", i, ev.Device)
			}
			if ev.ID == "" {
				t.Errorf("subscriber %d: ID not filled in", i)
			}
			if ev.Timestamp.IsZero() {
				t.Errorf("subscriber %d: Timestamp not filled in", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out waiting for event", i)
		}
	}
}

func TestBus_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	// Subscribe but never read; fill the buffer past capacity.
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*2; i++ {
			bus.Publish(Event{Type: TypePropertyChanged, Device: "d"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	cancel()

	// Channel must be closed after cancel.
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(Event{Type: TypeLifecycleChanged, Device: "d"})
}

func TestBus_CloseClosesSubscribers(t *testing.T) {
	bus := NewBus()
	ch, _ := bus.Subscribe()

	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after bus Close")
	}

	// Subsequent operations are no-ops, not panics.
	bus.Close()
	bus.Publish(Event{Type: TypePropertyChanged})

	ch2, cancel2 := bus.Subscribe()
	if _, ok := <-ch2; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
	cancel2()
}
