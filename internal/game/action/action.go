// Package action defines the registered units of game logic and their lookup.
package action

import (
	"fmt"
	"strings"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// Action is a named unit of game logic.
//
// Condition runs before any input is requested. InputSchema, when set, makes
// the engine obtain input before Run; ValidateInput then checks its meaning.
type Action struct {
	Condition     func() Checks
	InputSchema   *Schema
	ValidateInput func(in Input) Checks
	Run           func(rc *RunContext, in Input) error
}

// NeedsInput reports whether the action requires player input.
func (a *Action) NeedsInput() bool {
	return a.InputSchema != nil
}

// Eligible evaluates the condition, if any.
func (a *Action) Eligible() error {
	if a.Condition == nil {
		return nil
	}
	return a.Condition().Err(ErrConditionFailed)
}

// ParseEventType splits "target:key".
func ParseEventType(eventType string) (target, key string, err error) {
	parts := strings.Split(eventType, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedEvent, eventType)
	}
	return parts[0], parts[1], nil
}

// KindOf classifies an action key against the turn budget.
func KindOf(key string) rules.ActionKind {
	if strings.HasPrefix(key, rules.FreeActionPrefix) {
		return rules.ActionFree
	}
	return rules.ActionBasic
}

// NextOption customizes an enqueued event.
type NextOption func(*rules.ActionEvent)

// WithDebugInput attaches input that replaces the player-input request.
func WithDebugInput(v any) NextOption {
	return func(ev *rules.ActionEvent) {
		ev.DebugInput = v
	}
}

// NewEvent builds a queue event.
func NewEvent(eventType string, opts ...NextOption) rules.ActionEvent {
	ev := rules.ActionEvent{Type: eventType}
	for _, opt := range opts {
		opt(&ev)
	}
	return ev
}

// RunContext is handed to an action's Run for one tick.
//
// Events passed to Next are collected in call order. The engine splices them
// right after the current event once Run returns without error, so a failed
// run leaves the queue untouched.
type RunContext struct {
	Event  rules.ActionEvent
	Role   string
	queued []rules.ActionEvent
}

// NewRunContext creates the context for the event being executed.
func NewRunContext(event rules.ActionEvent, role string) *RunContext {
	return &RunContext{Event: event, Role: role}
}

// Next schedules an event to follow the current one.
func (rc *RunContext) Next(eventType string, opts ...NextOption) {
	rc.queued = append(rc.queued, NewEvent(eventType, opts...))
}

// Queued returns the events scheduled so far.
func (rc *RunContext) Queued() []rules.ActionEvent {
	return rc.queued
}
