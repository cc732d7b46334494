package engine

import (
	"errors"
	"fmt"

	"mercator-hq/jobhook/pkg/gateway"
)

// Common sentinel errors
var (
	// ErrInvalidConfig indicates invalid evaluator configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNilSnapshot indicates Evaluate was called without a job snapshot.
	ErrNilSnapshot = errors.New("job snapshot cannot be nil")

	// ErrNilGateway indicates Evaluate was called without an action gateway.
	ErrNilGateway = errors.New("action gateway cannot be nil")

	// ErrIllegalTransition indicates a state change the state machine forbids.
	ErrIllegalTransition = errors.New("illegal state transition")
)

// ConfigError describes one invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ActionError indicates a gateway action or message rendering failure
// inside a rule.
type ActionError struct {
	Rule   string
	Action gateway.Operation
	Cause  error
}

// Error returns the error message.
func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s: action %s failed: %v", e.Rule, e.Action, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ActionError) Unwrap() error {
	return e.Cause
}

// TransitionError reports a rejected state change.
type TransitionError struct {
	From State
	To   State
}

// Error returns the error message.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

// Unwrap returns ErrIllegalTransition.
func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
