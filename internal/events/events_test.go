package events

import (
	"errors"
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventCommandCompleted)

	bus.PublishCommandCompleted("wuauserv", "start", "running", nil)

	select {
	case received := <-ch:
		done, ok := received.(*CommandCompletedEvent)
		if !ok {
			t.Fatal("Expected CommandCompletedEvent")
		}
		if done.Service != "wuauserv" || done.Action != "start" || done.Status != "running" {
			t.Errorf("unexpected event: %+v", done)
		}
		if done.Timestamp().IsZero() {
			t.Error("Timestamp not set")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventTransition)
	ch2 := bus.Subscribe(EventTransition)

	bus.PublishTransition("svcX", "started", false)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d did not receive the event", i)
		}
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	commandCh := bus.Subscribe(EventCommandCompleted)
	transitionCh := bus.Subscribe(EventTransition)

	bus.PublishCommandCompleted("svc", "stop", "stopped", errors.New("denied"))

	select {
	case <-commandCh:
	case <-time.After(100 * time.Millisecond):
		t.Error("Command subscriber didn't receive event")
	}

	select {
	case <-transitionCh:
		t.Error("Transition subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.PublishCommandCompleted("a", "start", "running", nil)
	bus.PublishConfigChanged("/tmp/svctray.conf")

	count := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
			count++
		case <-time.After(100 * time.Millisecond):
		}
	}

	if count != 2 {
		t.Errorf("Expected to receive 2 events, got %d", count)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(2)
	defer bus.Close()

	ch := bus.Subscribe(EventTransition)

	for i := 0; i < 10; i++ {
		bus.PublishTransition("svc", "stopped", false)
	}

	if got := bus.GetDroppedEventCount(); got != 8 {
		t.Errorf("GetDroppedEventCount() = %d, want 8", got)
	}
	if len(ch) != 2 {
		t.Errorf("buffered events = %d, want 2", len(ch))
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventCommandCompleted)
	bus.Unsubscribe(EventCommandCompleted, ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// Publishing with no subscribers must not panic or count drops.
	bus.PublishCommandCompleted("svc", "start", "running", nil)
	if bus.GetDroppedEventCount() != 0 {
		t.Error("events counted as dropped with no subscribers")
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.Subscribe(EventCommandCompleted)

	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("Channel should be closed after bus.Close()")
	}

	// Publishing and subscribing after close should not panic
	bus.PublishCommandCompleted("svc", "start", "running", nil)
	if _, ok := <-bus.Subscribe(EventTransition); ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
}

func TestNewEventBusBufferBounds(t *testing.T) {
	if got := NewEventBus(0).bufferSize; got <= 0 {
		t.Errorf("default buffer = %d, want positive", got)
	}
	if got := NewEventBus(1 << 20).bufferSize; got > 1024 {
		t.Errorf("buffer = %d, want capped", got)
	}
}
