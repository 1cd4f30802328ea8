// Package validation provides common validation utilities for configuration
// parameters across the asyncrt library.
//
// Every function returns a *errors.ValidationError, which wraps
// errors.ErrInvalidConfiguration, so callers can match on the sentinel.
package validation
