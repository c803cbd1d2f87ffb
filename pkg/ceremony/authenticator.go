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

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"
)

// Credential is the opaque result of a completed ceremony. Its contents
// are produced by the platform primitive and are passed through without
// interpretation; this layer never verifies attestations or assertion
// signatures.
type Credential struct {
	// ID is the base64url credential identifier.
	ID string `json:"id"`

	// RawID is the binary credential identifier.
	RawID []byte `json:"rawId"`

	// Type is the credential type, normally "public-key".
	Type string `json:"type"`

	// AuthenticatorAttachment reports which attachment satisfied the
	// ceremony, when the platform discloses it.
	AuthenticatorAttachment string `json:"authenticatorAttachment,omitempty"`

	// Transports lists the transports the authenticator reports.
	Transports []string `json:"transports,omitempty"`

	// Response carries the raw platform response payload, opaque to
	// this layer.
	Response []byte `json:"response,omitempty"`
}

// Authenticator is the platform credential primitive ceremonies are
// delegated to. Implementations bridge to whatever the host platform
// provides; failures are reported through the ceremony error taxonomy.
type Authenticator interface {
	// Create performs a registration ceremony with the given options.
	Create(ctx context.Context, options *protocol.PublicKeyCredentialCreationOptions) (*Credential, error)

	// Get performs an assertion ceremony with the given options.
	Get(ctx context.Context, options *protocol.PublicKeyCredentialRequestOptions) (*Credential, error)

	// Available reports whether a usable authenticator is present and
	// enrolled.
	Available(ctx context.Context) bool
}
