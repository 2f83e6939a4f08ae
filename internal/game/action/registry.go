package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// Set is the action namespace of one target.
type Set struct {
	Actions map[string]*Action
	Free    map[string]*Action
	Basic   map[string]*Action
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{
		Actions: make(map[string]*Action),
		Free:    make(map[string]*Action),
		Basic:   make(map[string]*Action),
	}
}

// Lookup finds an action by key: Actions, then Free, then Basic.
func (s *Set) Lookup(key string) (*Action, bool) {
	for _, m := range []map[string]*Action{s.Actions, s.Free, s.Basic} {
		if a, ok := m[key]; ok {
			return a, true
		}
	}
	return nil, false
}

// Keys returns every key in the set, sorted.
func (s *Set) Keys() []string {
	seen := make(map[string]struct{})
	for _, m := range []map[string]*Action{s.Actions, s.Free, s.Basic} {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry maps targets to their action sets.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]*Set
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*Set)}
}

// Register installs the set for a target, replacing any previous one.
func (r *Registry) Register(target string, set *Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[target] = set
}

// Targets lists registered targets, sorted.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	targets := make([]string, 0, len(r.sets))
	for t := range r.sets {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Set returns the set registered for target.
func (r *Registry) Set(target string) (*Set, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sets[target]
	return s, ok
}

// Resolve finds the action for a target and key. The game target only
// exposes its flow actions.
func (r *Registry) Resolve(target, key string) (*Action, error) {
	set, ok := r.Set(target)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
	if target == rules.GameTarget {
		if a, ok := set.Actions[key]; ok {
			return a, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, rules.EventName(target, key))
	}
	a, ok := set.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, rules.EventName(target, key))
	}
	return a, nil
}

// ResolveEvent parses an event type and resolves its action.
func (r *Registry) ResolveEvent(eventType string) (target, key string, a *Action, err error) {
	target, key, err = ParseEventType(eventType)
	if err != nil {
		return "", "", nil, err
	}
	a, err = r.Resolve(target, key)
	return target, key, a, err
}

// Eligible lists the event types of a target's free and basic actions whose
// condition currently holds, sorted.
func (r *Registry) Eligible(target string) []string {
	set, ok := r.Set(target)
	if !ok {
		return nil
	}
	var out []string
	for _, m := range []map[string]*Action{set.Free, set.Basic} {
		for key, a := range m {
			if a.Eligible() == nil {
				out = append(out, rules.EventName(target, key))
			}
		}
	}
	sort.Strings(out)
	return out
}
