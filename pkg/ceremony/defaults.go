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
	"fmt"
	"net/url"
	"time"

	"github.com/go-webauthn/webauthn/protocol/webauthncose"
)

// Defaults are the site-level defaults merged beneath caller options.
// Field resolution precedence everywhere is: explicit caller value,
// explicit site default, built-in fallback.
type Defaults struct {
	// RPID is the Relying Party identifier, typically the domain name.
	// Falls back to the Origin's host when empty.
	RPID string `yaml:"id" json:"id"`

	// RPName is the human-readable name of the Relying Party.
	RPName string `yaml:"display_name" json:"display_name"`

	// Origin is the web origin ceremonies are performed from.
	// Example: "https://example.com"
	Origin string `yaml:"origin" json:"origin"`

	// Timeout is the ceremony timeout. Default: 60s.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Attestation is the attestation conveyance preference.
	// Options: "none", "indirect", "direct". Default: "none".
	Attestation string `yaml:"attestation" json:"attestation"`

	// UserVerification is the user verification requirement.
	// Options: "required", "preferred", "discouraged".
	// Default: "preferred".
	UserVerification string `yaml:"user_verification" json:"user_verification"`

	// AuthenticatorAttachment limits the type of authenticators allowed.
	// Options: "platform", "cross-platform", "" (any).
	AuthenticatorAttachment string `yaml:"authenticator_attachment" json:"authenticator_attachment"`

	// ResidentKey is the resident key (passkey) requirement.
	// Options: "required", "preferred", "discouraged", "" (unset).
	ResidentKey string `yaml:"resident_key" json:"resident_key"`

	// Algorithms is the ordered list of acceptable COSE signature
	// algorithm identifiers. Default: ES256, RS256.
	Algorithms []int64 `yaml:"algorithms" json:"algorithms"`

	// Extensions are site-default extension entries, unioned beneath
	// caller extensions.
	Extensions map[string]any `yaml:"extensions" json:"extensions"`

	// Hints are site-default UI hints ("security-key", "client-device",
	// "hybrid").
	Hints []string `yaml:"hints" json:"hints"`
}

// SetDefaults sets built-in fallbacks for unset fields.
func (d *Defaults) SetDefaults() {
	if d.Timeout == 0 {
		d.Timeout = 60 * time.Second
	}
	if d.Attestation == "" {
		d.Attestation = "none"
	}
	if d.UserVerification == "" {
		d.UserVerification = "preferred"
	}
	if len(d.Algorithms) == 0 {
		d.Algorithms = []int64{
			int64(webauthncose.AlgES256),
			int64(webauthncose.AlgRS256),
		}
	}
	if d.RPID == "" {
		d.RPID = hostFromOrigin(d.Origin)
	}
}

// Validate validates the defaults and returns an error if invalid.
func (d *Defaults) Validate() error {
	if d.RPID == "" {
		return fmt.Errorf("ceremony: relying party ID is required (set RPID or Origin)")
	}

	switch d.UserVerification {
	case "", "required", "preferred", "discouraged":
	default:
		return fmt.Errorf("ceremony: invalid user verification: %s", d.UserVerification)
	}

	switch d.Attestation {
	case "", "none", "indirect", "direct":
	default:
		return fmt.Errorf("ceremony: invalid attestation preference: %s", d.Attestation)
	}

	switch d.ResidentKey {
	case "", "required", "preferred", "discouraged":
	default:
		return fmt.Errorf("ceremony: invalid resident key requirement: %s", d.ResidentKey)
	}

	switch d.AuthenticatorAttachment {
	case "", "platform", "cross-platform":
	default:
		return fmt.Errorf("ceremony: invalid authenticator attachment: %s", d.AuthenticatorAttachment)
	}

	return nil
}

// hostFromOrigin extracts the domain from a web origin. Returns "" when
// the origin cannot be parsed.
func hostFromOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
