// Package validation provides common validation utilities for the recflow library.
package validation

import (
	"strconv"
	"strings"
	"time"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return rferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegativeDuration validates that a duration is not negative.
func ValidateNonNegativeDuration(module, field string, value time.Duration) error {
	if value < 0 {
		return rferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 to disable or a positive duration")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return rferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return rferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateExcludes validates that value contains none of the characters in chars.
func ValidateExcludes(module, field, value, chars string) error {
	if strings.ContainsAny(value, chars) {
		return rferrors.NewValidationError(module, field, value, "contains a reserved character").
			WithHint("must not contain any of " + strconv.Quote(chars))
	}
	return nil
}

// ValidateDisjoint validates that value shares no character with other.
// otherField names the conflicting setting in the error message.
func ValidateDisjoint(module, field, value, otherField, other string) error {
	if other != "" && strings.ContainsAny(value, other) {
		return rferrors.NewValidationError(module, field, value, "overlaps with "+otherField).
			WithHint(field + " and " + otherField + " must use different characters")
	}
	return nil
}
