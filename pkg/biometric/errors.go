// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-biometric.
//
// go-biometric is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package biometric

import (
	"errors"
	"fmt"
)

// Sentinel errors for biometric service operations.
var (
	// ErrNotConfigured is returned when the service is not properly configured.
	ErrNotConfigured = errors.New("biometric service not configured")

	// ErrNotAuthenticated is returned by operations that require an
	// active session when none exists.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoCredentials is returned when an assertion is requested for a
	// scope with no registered credentials.
	ErrNoCredentials = errors.New("no registered credentials")
)

// BiometricError wraps an error with the operation that produced it.
type BiometricError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *BiometricError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *BiometricError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *BiometricError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new BiometricError with the given operation and error.
func NewError(op string, err error) error {
	return &BiometricError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsNotAuthenticated returns true if the error indicates no active session.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

// IsNoCredentials returns true if the error indicates an empty credential scope.
func IsNoCredentials(err error) bool {
	return errors.Is(err, ErrNoCredentials)
}
