package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfBounds is returned when a change would push a resource past its bounds
// and the resource is configured to throw.
var ErrOutOfBounds = errors.New("resource out of bounds")

// ErrNegativeAmount is returned when Add or Remove is given a negative amount.
var ErrNegativeAmount = errors.New("negative amount")

func checkAmount(name string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %s given %d", ErrNegativeAmount, name, amount)
	}
	return nil
}

// LimitBehavior decides what happens when a bound is violated.
type LimitBehavior int

const (
	// LimitThrow rejects the change with ErrOutOfBounds.
	LimitThrow LimitBehavior = iota
	// LimitClamp silently saturates the value to the violated bound.
	LimitClamp
)

func (b LimitBehavior) String() string {
	switch b {
	case LimitThrow:
		return "THROW"
	case LimitClamp:
		return "CLAMP"
	default:
		return fmt.Sprintf("LIMIT_%d", int(b))
	}
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithValue sets the initial value.
func WithValue(value int) Option {
	return func(m *Manager) { m.value = value }
}

// WithMin sets the lower bound (default 0).
func WithMin(min int) Option {
	return func(m *Manager) { m.min = min }
}

// WithMax sets an upper bound. Without it the resource is unbounded above.
func WithMax(max int) Option {
	return func(m *Manager) {
		m.max = max
		m.hasMax = true
	}
}

// WithClamp makes bound violations saturate instead of failing.
func WithClamp() Option {
	return func(m *Manager) { m.limit = LimitClamp }
}

// Manager is a bounded numeric counter for a single named resource.
type Manager struct {
	mu sync.RWMutex

	name   string
	value  int
	min    int
	max    int
	hasMax bool
	limit  LimitBehavior
}

// New creates a resource manager. The initial value is not bound-checked.
func New(name string, opts ...Option) *Manager {
	m := &Manager{name: name}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the resource name used in error messages.
func (m *Manager) Name() string {
	return m.name
}

// Value returns the current value.
func (m *Manager) Value() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// Min returns the configured lower bound.
func (m *Manager) Min() int {
	return m.min
}

// Max returns the upper bound and whether one is configured.
func (m *Manager) Max() (int, bool) {
	return m.max, m.hasMax
}

// Add increases the value by amount and returns the new value.
func (m *Manager) Add(amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkAmount(m.name, amount); err != nil {
		return m.value, err
	}
	return m.setLocked(m.value + amount)
}

// Remove decreases the value by amount and returns the new value.
func (m *Manager) Remove(amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkAmount(m.name, amount); err != nil {
		return m.value, err
	}
	return m.setLocked(m.value - amount)
}

// Set replaces the value, applying the same bound rules as Add and Remove.
func (m *Manager) Set(value int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(value)
}

// setLocked leaves the value untouched when the change is rejected.
func (m *Manager) setLocked(next int) (int, error) {
	bounded, err := m.bound(next)
	if err != nil {
		return m.value, err
	}
	m.value = bounded
	return m.value, nil
}

func (m *Manager) bound(next int) (int, error) {
	if next < m.min {
		if m.limit == LimitClamp {
			return m.min, nil
		}
		return 0, fmt.Errorf("%w: %s cannot go below %d (got %d)", ErrOutOfBounds, m.name, m.min, next)
	}
	if m.hasMax && next > m.max {
		if m.limit == LimitClamp {
			return m.max, nil
		}
		return 0, fmt.Errorf("%w: %s cannot go above %d (got %d)", ErrOutOfBounds, m.name, m.max, next)
	}
	return next, nil
}

// MarshalJSON renders the manager as its bare value.
func (m *Manager) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Value())
}
