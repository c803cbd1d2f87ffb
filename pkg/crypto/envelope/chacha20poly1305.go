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
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/jeremyhahn/go-biometric/pkg/codec"
	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20Poly1305 is an alternative AEAD envelope cipher for hosts
// without AES hardware acceleration. Same envelope layout as AESGCM:
// 96-bit nonce prepended to ciphertext+tag, base64-encoded.
type ChaCha20Poly1305 struct {
	aead cipher.AEAD
	rng  codec.RandomSource
}

// NewChaCha20Poly1305 creates a ChaCha20-Poly1305 envelope cipher from
// the config.
func NewChaCha20Poly1305(cfg *Config) (*ChaCha20Poly1305, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(cfg.deriveKey(""))
	if err != nil {
		return nil, fmt.Errorf("envelope: failed to create chacha20poly1305: %w", err)
	}

	return &ChaCha20Poly1305{
		aead: aead,
		rng:  cfg.rng(),
	}, nil
}

// Seal encrypts plaintext into a base64 envelope string.
func (c *ChaCha20Poly1305) Seal(plaintext []byte) (string, error) {
	nonce, err := c.rng.Rand(NonceSize)
	if err != nil {
		return "", fmt.Errorf("envelope: failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decodes and decrypts a base64 envelope string.
func (c *ChaCha20Poly1305) Open(env string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) < NonceSize+c.aead.Overhead() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := raw[:NonceSize], raw[NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, wrapOpenErr(err)
	}
	return plaintext, nil
}

// Confidential reports true; ChaCha20-Poly1305 provides real encryption.
func (c *ChaCha20Poly1305) Confidential() bool {
	return true
}
