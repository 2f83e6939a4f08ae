package action

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedEvent is returned when an event type is not "target:key".
	ErrMalformedEvent = errors.New("malformed action event name")
	// ErrUnknownTarget is returned when no role or game owns the target.
	ErrUnknownTarget = errors.New("unknown action target")
	// ErrUnknownAction is returned when the target has no action under the key.
	ErrUnknownAction = errors.New("unknown action")
	// ErrConditionFailed is returned when an action's preconditions do not hold.
	ErrConditionFailed = errors.New("condition failed")
	// ErrValidationFailed is returned when player input does not match the input schema.
	ErrValidationFailed = errors.New("validation failed")
	// ErrInputRejected is returned when input passed the schema but failed semantic checks.
	ErrInputRejected = errors.New("input rejected")
)

// Check is a named boolean test evaluated by conditions and input validators.
type Check struct {
	Label string
	OK    bool
}

// Require builds a check.
func Require(label string, ok bool) Check {
	return Check{Label: label, OK: ok}
}

// Checks is a list of checks that must all hold.
type Checks []Check

// Failed returns the labels of the failing checks in declaration order.
func (c Checks) Failed() []string {
	var failed []string
	for _, check := range c {
		if !check.OK {
			failed = append(failed, check.Label)
		}
	}
	return failed
}

// Err returns a *CheckError of the given kind when any check failed, nil otherwise.
func (c Checks) Err(kind error) error {
	failed := c.Failed()
	if len(failed) == 0 {
		return nil
	}
	return &CheckError{Kind: kind, Labels: failed}
}

// CheckError reports the labels of every failing check.
type CheckError struct {
	Kind   error
	Labels []string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Labels, ", "))
}

func (e *CheckError) Unwrap() error {
	return e.Kind
}

// Has reports whether label is among the failing checks.
func (e *CheckError) Has(label string) bool {
	for _, l := range e.Labels {
		if l == label {
			return true
		}
	}
	return false
}
