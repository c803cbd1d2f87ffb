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

// Caller-facing option shapes. These are deliberately lenient (string
// IDs, string enums) because they arrive from application code and
// bridged native layers; the builder normalizes them into the exact
// protocol structures the platform credential primitive requires.

// RelyingParty identifies the entity a ceremony is performed for.
type RelyingParty struct {
	// ID is the relying party domain.
	ID string `json:"id,omitempty"`

	// Name is the relying party display string.
	Name string `json:"name,omitempty"`
}

// UserInfo identifies the account a registration ceremony creates a
// credential for. ID may be any encoding ToBuffer accepts; its decoded
// form must be at most 64 bytes.
type UserInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
}

// Descriptor references a previously registered credential. ID may be
// any encoding ToBuffer accepts; the builder guarantees binary form at
// the point of invocation.
type Descriptor struct {
	ID         string   `json:"id"`
	Transports []string `json:"transports,omitempty"`
}

// AuthenticatorSelection carries caller authenticator-selection
// criteria. Empty fields defer to the site defaults.
type AuthenticatorSelection struct {
	AuthenticatorAttachment string `json:"authenticatorAttachment,omitempty"`
	ResidentKey             string `json:"residentKey,omitempty"`
	RequireResidentKey      *bool  `json:"requireResidentKey,omitempty"`
	UserVerification        string `json:"userVerification,omitempty"`
}

// CreateOptions are caller-supplied parameters for a registration
// ("create") ceremony. Every field is optional except User.
type CreateOptions struct {
	// Challenge is decoded via the buffer codec when present; a fresh
	// random challenge is generated when absent. Challenges are never
	// reused across calls.
	Challenge string `json:"challenge,omitempty"`

	RP   *RelyingParty `json:"rp,omitempty"`
	User *UserInfo     `json:"user,omitempty"`

	// Algorithms is an ordered list of acceptable COSE algorithm
	// identifiers.
	Algorithms []int64 `json:"pubKeyCredParams,omitempty"`

	// Timeout in milliseconds.
	Timeout int `json:"timeout,omitempty"`

	// Attestation preference: "none", "indirect" or "direct".
	Attestation string `json:"attestation,omitempty"`

	AuthenticatorSelection *AuthenticatorSelection `json:"authenticatorSelection,omitempty"`

	// ExcludeCredentials lists credentials the authenticator must not
	// re-register.
	ExcludeCredentials []Descriptor `json:"excludeCredentials,omitempty"`

	// Extensions are client extension inputs, unioned over the site
	// defaults with caller entries winning on key collision.
	Extensions map[string]any `json:"extensions,omitempty"`

	// Hints are UI hints in preference order.
	Hints []string `json:"hints,omitempty"`
}

// GetOptions are caller-supplied parameters for an assertion ("get")
// ceremony. All fields are optional.
type GetOptions struct {
	// Challenge is decoded via the buffer codec when present; a fresh
	// random challenge is generated when absent.
	Challenge string `json:"challenge,omitempty"`

	// RPID is the relying party domain.
	RPID string `json:"rpId,omitempty"`

	// Timeout in milliseconds.
	Timeout int `json:"timeout,omitempty"`

	// AllowCredentials scopes which credentials may satisfy the
	// assertion.
	AllowCredentials []Descriptor `json:"allowCredentials,omitempty"`

	// UserVerification: "required", "preferred" or "discouraged".
	UserVerification string `json:"userVerification,omitempty"`

	// Extensions are client extension inputs, unioned over the site
	// defaults with caller entries winning on key collision.
	Extensions map[string]any `json:"extensions,omitempty"`

	// Hints are UI hints in preference order.
	Hints []string `json:"hints,omitempty"`
}
