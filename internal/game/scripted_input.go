package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// ErrScriptExhausted is returned when a script has no response left for an event.
var ErrScriptExhausted = errors.New("no scripted input left")

// ScriptStep is one scripted response.
type ScriptStep struct {
	Event string `yaml:"event"`
	Input any    `yaml:"input"`
}

// ScriptedInput answers input requests from per-event queues of responses.
type ScriptedInput struct {
	mu        sync.Mutex
	responses map[string][]any
	calls     []string
	// Fallback answers events the script has nothing left for.
	Fallback InputProvider
}

// NewScriptedInput creates an empty script.
func NewScriptedInput() *ScriptedInput {
	return &ScriptedInput{responses: make(map[string][]any)}
}

// Push queues responses for an event type.
func (s *ScriptedInput) Push(eventType string, inputs ...any) *ScriptedInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[eventType] = append(s.responses[eventType], inputs...)
	return s
}

// Request implements InputProvider.
func (s *ScriptedInput) Request(ctx context.Context, eventType string) (any, error) {
	s.mu.Lock()
	s.calls = append(s.calls, eventType)
	queue := s.responses[eventType]
	if len(queue) > 0 {
		s.responses[eventType] = queue[1:]
		s.mu.Unlock()
		return queue[0], nil
	}
	fallback := s.Fallback
	s.mu.Unlock()

	if fallback != nil {
		return fallback(ctx, eventType)
	}
	return nil, fmt.Errorf("%w for %s", ErrScriptExhausted, eventType)
}

// Calls returns the event types input was requested for, in order.
func (s *ScriptedInput) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Remaining counts the responses not consumed yet.
func (s *ScriptedInput) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, queue := range s.responses {
		n += len(queue)
	}
	return n
}

// LoadScript reads a YAML list of {event, input} steps.
func LoadScript(path string) (*ScriptedInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var steps []ScriptStep
	if err := yaml.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	s := NewScriptedInput()
	for i, step := range steps {
		if step.Event == "" {
			return nil, fmt.Errorf("script %s: step %d has no event", path, i)
		}
		s.Push(step.Event, step.Input)
	}
	return s, nil
}

// AutoInput returns a provider that plays for every role: on its turn a role
// picks uniformly among its eligible actions that need no input.
func (g *Game) AutoInput(r *rand.Rand) InputProvider {
	return func(_ context.Context, eventType string) (any, error) {
		if eventType != rules.FlowRoleTurn.Event() {
			return nil, fmt.Errorf("automatic input cannot answer %s", eventType)
		}
		var choices []string
		for _, candidate := range g.registry.Eligible(g.state.CurrentRoleName) {
			_, _, act, err := g.registry.ResolveEvent(candidate)
			if err == nil && !act.NeedsInput() {
				choices = append(choices, candidate)
			}
		}
		if len(choices) == 0 {
			return nil, fmt.Errorf("%s has no eligible action", g.state.CurrentRoleName)
		}
		return choices[r.IntN(len(choices))], nil
	}
}
