package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrInvalidState", ErrInvalidState, "invalid state"},
		{"ErrSchemaMismatch", ErrSchemaMismatch, "schema mismatch"},
		{"ErrUnsupportedSink", ErrUnsupportedSink, "unsupported sink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "csvwriter",
				Field:  "buffer_size",
				Value:  -1,
				Reason: "must be positive",
			},
			want: "csvwriter: invalid buffer_size=-1 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "csvwriter",
				Field:  "delimiter",
				Value:  "",
				Reason: "cannot be empty",
				Hint:   "use \",\" or \";\"",
			},
			want: `csvwriter: invalid delimiter= (cannot be empty) - use "," or ";"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")

	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}

	result := verr.WithHint("hint")
	if result != verr {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("broken pipe")
	err := NewOperationError("sink", "WriteContext", cause)
	if got, want := err.Error(), "sink.WriteContext failed: broken pipe"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithContext("3 bytes pending")
	if got, want := err.Error(), "sink.WriteContext failed: broken pipe (3 bytes pending)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap the cause error")
	}
}

func TestStateError(t *testing.T) {
	err := NewStateError("csvwriter", "write header", "Writing")

	if got, want := err.Error(), "csvwriter: cannot write header in state Writing"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsInvalidState(err) {
		t.Error("StateError should wrap ErrInvalidState")
	}
	if !IsInvalidState(fmt.Errorf("outer: %w", err)) {
		t.Error("wrapped StateError should be detected")
	}
}

func TestSchemaMismatchError(t *testing.T) {
	tests := []struct {
		name string
		err  *SchemaMismatchError
		want string
	}{
		{
			name: "whole record",
			err:  &SchemaMismatchError{Index: -1, Want: "2 fields", Got: "3 fields"},
			want: "schema mismatch: want 2 fields, got 3 fields",
		},
		{
			name: "single field",
			err:  &SchemaMismatchError{Index: 1, Field: "Column2", Want: "string", Got: "int"},
			want: "schema mismatch: field 1 (Column2): want string, got int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !IsSchemaMismatch(tt.err) {
				t.Error("SchemaMismatchError should wrap ErrSchemaMismatch")
			}
		})
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		validation  bool
		state       bool
		unsupported bool
	}{
		{"validation error", NewValidationError("m", "f", 0, "r"), true, false, false},
		{"wrapped validation", &OperationError{Cause: NewValidationError("m", "f", 0, "r")}, true, false, false},
		{"state error", NewStateError("m", "op", "Closed"), false, true, false},
		{"unsupported sink", NewOperationError("sink", "Resolve", ErrUnsupportedSink), false, false, true},
		{"standard error", errors.New("test"), false, false, false},
		{"nil error", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
			if got := IsInvalidState(tt.err); got != tt.state {
				t.Errorf("IsInvalidState() = %v, want %v", got, tt.state)
			}
			if got := IsUnsupportedSink(tt.err); got != tt.unsupported {
				t.Errorf("IsUnsupportedSink() = %v, want %v", got, tt.unsupported)
			}
		})
	}
}
