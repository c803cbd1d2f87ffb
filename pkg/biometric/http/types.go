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

package http

import (
	"encoding/json"
	"time"

	"github.com/jeremyhahn/go-biometric/pkg/biometric"
)

// AuthResponse is the response after a successful ceremony.
type AuthResponse struct {
	// Token is the post-auth token (JWT when configured, session token
	// otherwise).
	Token string `json:"token"`

	// CredentialID is the base64url credential identifier.
	CredentialID string `json:"credential_id"`

	// ExpiresAt is the session expiry timestamp.
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStatusResponse reports whether an unexpired session exists.
type SessionStatusResponse struct {
	// Authenticated indicates an unexpired session exists.
	Authenticated bool `json:"authenticated"`

	// ExpiresAt is the session expiry, present only when authenticated.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ExtendSessionRequest is the request body for extending a session.
type ExtendSessionRequest struct {
	// Seconds is the extension duration. Zero applies the service's
	// configured session duration.
	Seconds int `json:"seconds,omitempty"`
}

// ExtendSessionResponse reports the outcome of a session extension.
type ExtendSessionResponse struct {
	// Extended indicates whether an active session was extended.
	Extended bool `json:"extended"`

	// ExpiresAt is the new expiry, present only when extended.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CredentialsResponse lists the credential IDs indexed for a scope.
type CredentialsResponse struct {
	// CredentialIDs are base64url credential identifiers, oldest first.
	CredentialIDs []string `json:"credential_ids"`
}

// AvailableResponse reports platform authenticator availability.
type AvailableResponse struct {
	Available bool `json:"available"`
}

// CredentialDataRequest is the request body for storing credential data.
type CredentialDataRequest struct {
	// Payload is the data to store, any JSON value.
	Payload json.RawMessage `json:"payload"`

	// Encrypt selects envelope encryption (default true).
	Encrypt *bool `json:"encrypt,omitempty"`
}

// CredentialDataResponse carries stored credential data.
type CredentialDataResponse struct {
	Payload json.RawMessage `json:"payload"`
}

// FinishRequest is the request body for completing a ceremony that a
// bridged platform adapter ran out of process.
type FinishRequest struct {
	// Scope is the credential scope, defaulting to the site relying
	// party.
	Scope string `json:"scope,omitempty"`

	// Result is the adapter's ceremony outcome.
	Result *biometric.AdapterResult `json:"result"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	// Error is the error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.
const (
	ErrorCodeInvalidRequest   = "invalid_request"
	ErrorCodeNoCredentials    = "no_credentials"
	ErrorCodeNotAuthenticated = "not_authenticated"
	ErrorCodeCeremonyFailed   = "ceremony_failed"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeInternalError    = "internal_error"
)
