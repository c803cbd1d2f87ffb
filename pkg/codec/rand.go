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

package codec

import (
	"crypto/rand"
	"fmt"
)

// RandomSource supplies cryptographically secure random bytes. It exists
// as a seam so tests can substitute a deterministic source and alternate
// hosts can plug in hardware entropy.
type RandomSource interface {
	// Rand returns n cryptographically random bytes.
	Rand(n int) ([]byte, error)
}

// CryptoRand is the default RandomSource backed by crypto/rand.
type CryptoRand struct{}

// Rand returns n bytes from the operating system's secure random source.
func (CryptoRand) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("codec: failed to read random bytes: %w", err)
	}
	return buf, nil
}

// GenerateChallenge returns a fresh ChallengeSize-byte random challenge
// from the default random source. Challenges are single-use per ceremony
// and never persisted.
func GenerateChallenge() ([]byte, error) {
	return GenerateChallengeFrom(CryptoRand{})
}

// GenerateChallengeFrom returns a fresh challenge from the given source.
func GenerateChallengeFrom(rng RandomSource) ([]byte, error) {
	return rng.Rand(ChallengeSize)
}
