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

package ceremony

import "errors"

var (
	// ErrUserRequired indicates a registration ceremony was requested
	// without user information.
	ErrUserRequired = errors.New("ceremony: user is required for registration")

	// ErrUserCancelled indicates the user dismissed or declined the
	// platform prompt.
	ErrUserCancelled = errors.New("ceremony: cancelled by user")

	// ErrTimeout indicates the ceremony timed out waiting for the user.
	ErrTimeout = errors.New("ceremony: timed out")

	// ErrLockedOut indicates the platform has locked the biometric
	// sensor after repeated failed attempts.
	ErrLockedOut = errors.New("ceremony: authenticator locked out")

	// ErrNotAvailable indicates no usable authenticator is present or
	// enrolled on the device.
	ErrNotAvailable = errors.New("ceremony: authenticator not available")

	// ErrNotSupported indicates the platform lacks public key
	// credential support entirely.
	ErrNotSupported = errors.New("ceremony: not supported on this platform")

	// ErrInsecureContext indicates the ceremony was attempted from a
	// context the platform considers insecure.
	ErrInsecureContext = errors.New("ceremony: insecure context")

	// ErrInvalidState indicates the authenticator refused the ceremony
	// in its current state, such as re-registering an excluded
	// credential.
	ErrInvalidState = errors.New("ceremony: invalid authenticator state")

	// ErrFailed indicates a ceremony failure with no more specific
	// classification.
	ErrFailed = errors.New("ceremony: failed")
)

// Error codes carried across adapter boundaries. These are stable
// strings; callers match on them rather than on message text.
const (
	CodeUserCancelled        = "userCancelled"
	CodeTimeout              = "timeout"
	CodeLockedOut            = "lockedOut"
	CodeNotAvailable         = "biometryNotAvailable"
	CodeNotSupported         = "notSupported"
	CodeInsecureContext      = "insecureContext"
	CodeInvalidState         = "invalidState"
	CodeAuthenticationFailed = "authenticationFailed"
)

// codeToErr maps adapter error codes onto the ceremony taxonomy.
var codeToErr = map[string]error{
	CodeUserCancelled:        ErrUserCancelled,
	CodeTimeout:              ErrTimeout,
	CodeLockedOut:            ErrLockedOut,
	CodeNotAvailable:         ErrNotAvailable,
	CodeNotSupported:         ErrNotSupported,
	CodeInsecureContext:      ErrInsecureContext,
	CodeInvalidState:         ErrInvalidState,
	CodeAuthenticationFailed: ErrFailed,
}

// MapCode resolves an adapter error code to its taxonomy sentinel,
// falling back to ErrFailed for unknown codes.
func MapCode(code string) error {
	if err, ok := codeToErr[code]; ok {
		return err
	}
	return ErrFailed
}

// CodeFor returns the stable adapter code for a ceremony error. Errors
// outside the taxonomy report CodeAuthenticationFailed.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrUserCancelled):
		return CodeUserCancelled
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrLockedOut):
		return CodeLockedOut
	case errors.Is(err, ErrNotAvailable):
		return CodeNotAvailable
	case errors.Is(err, ErrNotSupported):
		return CodeNotSupported
	case errors.Is(err, ErrInsecureContext):
		return CodeInsecureContext
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	default:
		return CodeAuthenticationFailed
	}
}
