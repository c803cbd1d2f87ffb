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

// Package envelope implements the authenticated-encryption envelope shared
// by the session manager and the credential blob manager.
//
// An envelope is [nonce || ciphertext+tag] base64-encoded into a single
// transportable string. Keys are derived from a caller-provisioned
// passphrase via PBKDF2 (SHA-256, 100k iterations minimum). The
// passphrase is a configuration point, never a source-embedded constant.
package envelope

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-biometric/pkg/codec"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// NonceSize is the AEAD nonce length in bytes (96 bits).
	NonceSize = 12

	// KeySize is the derived symmetric key length in bytes (256 bits).
	KeySize = 32

	// DefaultIterations is the PBKDF2 iteration count.
	DefaultIterations = 100000

	// MinSaltSize is the minimum salt length in bytes.
	MinSaltSize = 16
)

var (
	// ErrPassphraseRequired is returned when constructing an AEAD cipher
	// without key material.
	ErrPassphraseRequired = errors.New("envelope: passphrase is required")

	// ErrInvalidSalt is returned when the configured salt is too short.
	ErrInvalidSalt = errors.New("envelope: salt must be at least 16 bytes")

	// ErrMalformed is returned when an envelope cannot be parsed.
	ErrMalformed = errors.New("envelope: malformed envelope")

	// ErrDecryptFailed is returned when authentication or decryption of
	// an envelope fails. Callers treat this as "no valid value".
	ErrDecryptFailed = errors.New("envelope: decryption failed")
)

// Cipher seals plaintext into a transportable envelope string and opens
// it again. Implementations that cannot provide confidentiality (the
// degraded fallback) report it via Confidential.
type Cipher interface {
	// Seal encrypts plaintext into an envelope string. Every call uses a
	// fresh random nonce, so sealing the same plaintext twice yields
	// different envelopes.
	Seal(plaintext []byte) (string, error)

	// Open decodes and decrypts an envelope string. Malformed or
	// tampered envelopes return ErrMalformed or ErrDecryptFailed.
	Open(env string) ([]byte, error)

	// Confidential reports whether the cipher provides real encryption.
	Confidential() bool
}

// Config holds key-derivation parameters for AEAD ciphers.
type Config struct {
	// Passphrase is the application-provisioned key string (required).
	Passphrase string

	// Salt is the application-specific KDF salt, at least 16 bytes
	// (required).
	Salt []byte

	// Iterations is the PBKDF2 iteration count. Values below
	// DefaultIterations are raised to it.
	Iterations int

	// RNG overrides the nonce random source. Defaults to crypto/rand.
	RNG codec.RandomSource
}

func (c *Config) validate() error {
	if c == nil || c.Passphrase == "" {
		return ErrPassphraseRequired
	}
	if len(c.Salt) < MinSaltSize {
		return ErrInvalidSalt
	}
	return nil
}

func (c *Config) iterations() int {
	if c.Iterations < DefaultIterations {
		return DefaultIterations
	}
	return c.Iterations
}

func (c *Config) rng() codec.RandomSource {
	if c.RNG == nil {
		return codec.CryptoRand{}
	}
	return c.RNG
}

// deriveKey runs PBKDF2-SHA256 over the passphrase with an optional
// context string appended, producing a KeySize-byte key. The context
// string is how the blob manager keys per credential from one
// passphrase.
func (c *Config) deriveKey(context string) []byte {
	material := []byte(c.Passphrase)
	if context != "" {
		material = append(material, ':')
		material = append(material, context...)
	}
	return pbkdf2.Key(material, c.Salt, c.iterations(), KeySize, sha256.New)
}

// wrapOpenErr normalizes AEAD Open failures to ErrDecryptFailed.
func wrapOpenErr(err error) error {
	return fmt.Errorf("%w: %v", ErrDecryptFailed, err)
}
