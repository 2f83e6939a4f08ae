package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of an engine notification.
type EventType string

const (
	// EventEnqueued fires when an action event is added to the queue.
	EventEnqueued EventType = "ENQUEUED"
	// EventInputRequested fires right before the engine suspends for player input.
	EventInputRequested EventType = "INPUT_REQUESTED"
	// EventTicked fires after an action event ran and the cursor advanced.
	EventTicked EventType = "TICKED"
	// EventTickFailed fires when a tick stopped on an error.
	EventTickFailed EventType = "TICK_FAILED"
	// EventGameEnded fires when the terminal flow step runs.
	EventGameEnded EventType = "GAME_ENDED"
)

// Event is an engine notification for observers such as the presentation layer.
type Event struct {
	Type       EventType
	ActionType string // queue event type, e.g. "workingClass:proposeBill"
	Index      int    // queue index of the action event
	Role       string // acting role, empty before the first turn
	Round      int
	Turn       int
	Err        error
	Timestamp  time.Time
}

// NewEvent creates an event with common fields populated.
func NewEvent(eventType EventType, actionType string, index int) Event {
	return Event{
		Type:       eventType,
		ActionType: actionType,
		Index:      index,
		Timestamp:  time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners may subscribe or unsubscribe from inside the callback.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	callbacks := make([]func(Event), 0, len(bus.listeners)+len(bus.typedListeners[event.Type]))
	for _, listener := range bus.listeners {
		callbacks = append(callbacks, listener)
	}
	for _, typed := range bus.typedListeners[event.Type] {
		callbacks = append(callbacks, typed.Callback)
	}
	bus.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event)
	}
}
