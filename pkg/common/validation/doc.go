// Package validation provides common validation utilities for configuration
// parameters across the recflow library.
//
// The helpers return *errors.ValidationError values so that constructors and
// configuration loaders report problems with consistent messages and hints.
package validation
