// Package events carries results of background work to the tray's UI loop.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/svctray/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// EventCommandCompleted is published when a start/stop command finishes.
	EventCommandCompleted EventType = "command_completed"

	// EventTransition is published for each transition the watcher reports.
	EventTransition EventType = "transition"

	// EventConfigChanged is published after new options are installed.
	EventConfigChanged EventType = "config_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// CommandCompletedEvent reports the outcome of a start or stop.
type CommandCompletedEvent struct {
	BaseEvent
	Service string
	Action  string // "start", "stop" or "none"
	Status  string // status after the command
	Error   error
}

// TransitionEvent reports a service newly observed as running or stopped.
type TransitionEvent struct {
	BaseEvent
	Service    string
	Direction  string // "started" or "stopped"
	Suppressed bool   // consumed from the ignore set
}

// ConfigChangedEvent reports reloaded options.
type ConfigChangedEvent struct {
	BaseEvent
	Source string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking. Events for a
// full subscriber are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishCommandCompleted is a convenience method for command results.
func (eb *EventBus) PublishCommandCompleted(service, action, status string, err error) {
	eb.Publish(&CommandCompletedEvent{
		BaseEvent: BaseEvent{
			EventType: EventCommandCompleted,
			Time:      time.Now(),
		},
		Service: service,
		Action:  action,
		Status:  status,
		Error:   err,
	})
}

// PublishTransition is a convenience method for watcher transitions.
func (eb *EventBus) PublishTransition(service, direction string, suppressed bool) {
	eb.Publish(&TransitionEvent{
		BaseEvent: BaseEvent{
			EventType: EventTransition,
			Time:      time.Now(),
		},
		Service:    service,
		Direction:  direction,
		Suppressed: suppressed,
	})
}

// PublishConfigChanged is a convenience method for reloads.
func (eb *EventBus) PublishConfigChanged(source string) {
	eb.Publish(&ConfigChangedEvent{
		BaseEvent: BaseEvent{
			EventType: EventConfigChanged,
			Time:      time.Now(),
		},
		Source: source,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			close(subCh)
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
