package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the recflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidState indicates an operation that is not valid in the current state
	ErrInvalidState = errors.New("invalid state")

	// ErrSchemaMismatch indicates a record whose shape disagrees with the bound schema
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnsupportedSink indicates a sink without context-aware write and flush primitives
	ErrUnsupportedSink = errors.New("unsupported sink")
)

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps the failure of a named operation.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for module.operation.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// StateError reports an operation attempted while a component is in a state
// that does not allow it.
type StateError struct {
	Module    string
	Operation string
	State     string
}

// NewStateError creates a StateError.
func NewStateError(module, operation, state string) *StateError {
	return &StateError{Module: module, Operation: operation, State: state}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: cannot %s in state %s", e.Module, e.Operation, e.State)
}

// Unwrap returns ErrInvalidState.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// SchemaMismatchError reports a record that does not conform to a schema.
// Index is -1 when the mismatch concerns the record as a whole (arity, type).
type SchemaMismatchError struct {
	Index int
	Field string
	Want  string
	Got   string
}

func (e *SchemaMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("schema mismatch: want %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("schema mismatch: field %d (%s): want %s, got %s", e.Index, e.Field, e.Want, e.Got)
}

// Unwrap returns ErrSchemaMismatch.
func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsInvalidState reports whether err signals an invalid state transition.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsSchemaMismatch reports whether err signals a record/schema disagreement.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsUnsupportedSink reports whether err signals a sink lacking context-aware primitives.
func IsUnsupportedSink(err error) bool {
	return errors.Is(err, ErrUnsupportedSink)
}
