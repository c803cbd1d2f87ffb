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
	"github.com/jeremyhahn/go-biometric/pkg/logging"
	"github.com/jeremyhahn/go-biometric/pkg/metrics"
)

// Algorithm selects the AEAD implementation for NewCipher.
type Algorithm string

const (
	// AlgorithmAESGCM selects AES-256-GCM (default).
	AlgorithmAESGCM Algorithm = "aes256-gcm"

	// AlgorithmChaCha20Poly1305 selects ChaCha20-Poly1305.
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// NewCipher constructs the requested AEAD cipher, falling back to the
// plain reversible encoder when no AEAD can be built (missing passphrase
// or construction failure). The fallback is logged loudly: persistence
// keeps working but without confidentiality.
func NewCipher(alg Algorithm, cfg *Config, logger *logging.Logger) Cipher {
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	cipher, err := newAEAD(alg, cfg)
	if err != nil {
		logger.Error("envelope encryption unavailable, falling back to reversible encoding without confidentiality",
			"algorithm", string(alg), "error", err)
		metrics.SetCryptoDegraded(true)
		return NewPlain()
	}
	metrics.SetCryptoDegraded(false)
	return cipher
}

func newAEAD(alg Algorithm, cfg *Config) (Cipher, error) {
	switch alg {
	case AlgorithmChaCha20Poly1305:
		return NewChaCha20Poly1305(cfg)
	default:
		return NewAESGCM(cfg)
	}
}

// CipherFactory produces a cipher bound to a credential ID. The blob
// manager uses it to key envelopes per credential rather than with a
// single fixed key.
type CipherFactory interface {
	CipherFor(credentialID string) (Cipher, error)
}

// KeyedFactory derives a distinct AES-GCM key per credential ID from one
// configured passphrase.
type KeyedFactory struct {
	cfg *Config
}

// NewKeyedFactory creates a per-credential cipher factory.
func NewKeyedFactory(cfg *Config) (*KeyedFactory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &KeyedFactory{cfg: cfg}, nil
}

// CipherFor returns an AES-GCM cipher keyed to the credential ID.
func (f *KeyedFactory) CipherFor(credentialID string) (Cipher, error) {
	return NewAESGCMKeyed(f.cfg, credentialID)
}

// StaticFactory returns the same cipher for every credential ID. Used
// for the degraded plain mode and in tests.
type StaticFactory struct {
	cipher Cipher
}

// NewStaticFactory wraps a single cipher as a CipherFactory.
func NewStaticFactory(c Cipher) *StaticFactory {
	return &StaticFactory{cipher: c}
}

// CipherFor returns the wrapped cipher regardless of credential ID.
func (f *StaticFactory) CipherFor(string) (Cipher, error) {
	return f.cipher, nil
}
