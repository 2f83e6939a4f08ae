package rules

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ActionEvent is a queued invocation of an action, addressed as "target:key".
type ActionEvent struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	// DebugInput replaces the player-input request when set.
	DebugInput any `json:"debugPlayerInput,omitempty"`
}

// ActionQueue is the ordered event log driven by the scheduler.
//
// Events before the cursor are done, the one at the cursor is current and
// the rest are pending. Events are never removed; new ones are appended or
// spliced in after the cursor.
type ActionQueue struct {
	mu        sync.RWMutex
	events    []ActionEvent
	cursor    int
	nextIndex int
}

// NewActionQueue creates an empty queue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{
		events: make([]ActionEvent, 0, 64),
	}
}

// Append adds an event at the tail and returns it with its index assigned.
func (q *ActionQueue) Append(event ActionEvent) ActionEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	event.Index = q.nextIndex
	q.nextIndex++
	q.events = append(q.events, event)
	return event
}

// InsertAt splices an event at position pos. Only pending positions
// (after the cursor, up to the tail) are accepted.
func (q *ActionQueue) InsertAt(pos int, event ActionEvent) (ActionEvent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if pos <= q.cursor || pos > len(q.events) {
		return ActionEvent{}, fmt.Errorf("cannot insert at %d: cursor is %d, queue length %d", pos, q.cursor, len(q.events))
	}
	event.Index = q.nextIndex
	q.nextIndex++
	q.events = append(q.events, ActionEvent{})
	copy(q.events[pos+1:], q.events[pos:])
	q.events[pos] = event
	return event, nil
}

// Current returns the event at the cursor.
func (q *ActionQueue) Current() (ActionEvent, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.cursor >= len(q.events) {
		return ActionEvent{}, false
	}
	return q.events[q.cursor], true
}

// SetCurrentData records the input consumed by the current event.
func (q *ActionQueue) SetCurrentData(data any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cursor < len(q.events) {
		q.events[q.cursor].Data = data
	}
}

// Advance moves the cursor past the current event.
func (q *ActionQueue) Advance() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cursor < len(q.events) {
		q.cursor++
	}
}

// Cursor returns the index of the current event.
func (q *ActionQueue) Cursor() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.cursor
}

// Len returns the number of events ever queued.
func (q *ActionQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.events)
}

// NextIndex returns the index the next queued event will receive.
func (q *ActionQueue) NextIndex() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.nextIndex
}

// Drained reports whether there is no current event.
func (q *ActionQueue) Drained() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.cursor >= len(q.events)
}

// Events returns a copy of the whole queue.
func (q *ActionQueue) Events() []ActionEvent {
	q.mu.RLock()
	defer q.mu.RUnlock()
	cpy := make([]ActionEvent, len(q.events))
	copy(cpy, q.events)
	return cpy
}

// Pending returns the events after the cursor.
func (q *ActionQueue) Pending() []ActionEvent {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.cursor+1 >= len(q.events) {
		return nil
	}
	cpy := make([]ActionEvent, len(q.events)-q.cursor-1)
	copy(cpy, q.events[q.cursor+1:])
	return cpy
}

// Trace lists event types from the current event back to the first one,
// most recent first.
func (q *ActionQueue) Trace() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	last := q.cursor
	if last >= len(q.events) {
		last = len(q.events) - 1
	}
	trace := make([]string, 0, last+1)
	for i := last; i >= 0; i-- {
		trace = append(trace, q.events[i].Type)
	}
	return trace
}

// MarshalJSON renders the queue as the observable state fields.
func (q *ActionQueue) MarshalJSON() ([]byte, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return json.Marshal(struct {
		ActionQueue        []ActionEvent `json:"actionQueue"`
		CurrentActionIndex int           `json:"currentActionIndex"`
		NextActionIndex    int           `json:"nextActionIndex"`
	}{q.events, q.cursor, q.nextIndex})
}
