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

package envelope

import (
	"encoding/base64"
	"fmt"
)

// Plain is the degraded-mode cipher: reversible base64 encoding with no
// confidentiality and no tamper detection. It exists so session and blob
// persistence keep working when no AEAD primitive can be constructed.
// Callers must treat this as degraded security, not encryption.
type Plain struct{}

// NewPlain returns the plain reversible-encoding cipher.
func NewPlain() Plain {
	return Plain{}
}

// Seal encodes plaintext as base64.
func (Plain) Seal(plaintext []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(plaintext), nil
}

// Open decodes a base64 envelope.
func (Plain) Open(env string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}

// Confidential reports false.
func (Plain) Confidential() bool {
	return false
}
