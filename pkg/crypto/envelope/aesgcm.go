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
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/jeremyhahn/go-biometric/pkg/codec"
)

// AESGCM is the default AEAD envelope cipher: AES-256-GCM with a
// PBKDF2-derived key and a fresh 96-bit random nonce per Seal.
type AESGCM struct {
	aead cipher.AEAD
	rng  codec.RandomSource
}

// NewAESGCM creates an AES-256-GCM envelope cipher from the config.
// The key is derived once at construction; the derivation is
// deterministic, so this is observationally identical to deriving per
// operation without paying the PBKDF2 cost on every call.
func NewAESGCM(cfg *Config) (*AESGCM, error) {
	return newAESGCM(cfg, "")
}

// NewAESGCMKeyed creates an AES-256-GCM envelope cipher whose key is
// additionally bound to the given context string (e.g. a credential ID).
func NewAESGCMKeyed(cfg *Config, context string) (*AESGCM, error) {
	return newAESGCM(cfg, context)
}

func newAESGCM(cfg *Config, context string) (*AESGCM, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(cfg.deriveKey(context))
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create GCM: %w", err)
	}

	return &AESGCM{
		aead: aead,
		rng:  cfg.rng(),
	}, nil
}

// Seal encrypts plaintext into a base64 envelope string.
func (a *AESGCM) Seal(plaintext []byte) (string, error) {
	nonce, err := a.rng.Rand(NonceSize)
	if err != nil {
		return "", fmt.Errorf("envelope: failed to generate nonce: %w", err)
	}

	sealed := a.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decodes and decrypts a base64 envelope string.
func (a *AESGCM) Open(env string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) < NonceSize+a.aead.Overhead() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, wrapOpenErr(err)
	}
	return plaintext, nil
}

// Confidential reports true; AES-GCM provides real encryption.
func (a *AESGCM) Confidential() bool {
	return true
}
