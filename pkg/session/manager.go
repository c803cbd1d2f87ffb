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

// Package session issues opaque authentication session tokens with
// absolute expiry, persists them confidentially as encrypted envelopes,
// and exposes validity-check and extension operations so a successful
// ceremony need not be repeated on every access.
//
// Invalid state never escalates: an expired, corrupt or tampered
// envelope is purged on the read that discovers it and presented to the
// caller as absence, indistinguishable from "never authenticated". Only
// storage failures surface as errors.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-biometric/pkg/codec"
	"github.com/jeremyhahn/go-biometric/pkg/crypto/envelope"
	"github.com/jeremyhahn/go-biometric/pkg/logging"
	"github.com/jeremyhahn/go-biometric/pkg/metrics"
	"github.com/jeremyhahn/go-biometric/pkg/storage"
)

const (
	// DefaultStorageKey is the fixed session-store key when the manager
	// is not configured with one.
	DefaultStorageKey = "current"

	// DefaultDuration is the session lifetime applied by IssueRecord
	// when the caller does not specify one.
	DefaultDuration = time.Hour

	// tokenEntropy is the number of random bytes appended to issued
	// tokens.
	tokenEntropy = 24
)

var (
	// ErrExpiresInPast is returned by Persist when the record's expiry
	// is not strictly in the future.
	ErrExpiresInPast = errors.New("session: expiry must be in the future")

	// ErrEmptyToken is returned by Persist when the record has no token.
	ErrEmptyToken = errors.New("session: token is required")
)

// Record is a persisted authentication session.
type Record struct {
	// Token is the opaque session token returned to the caller.
	Token string `json:"token"`

	// ExpiresAt is the absolute expiry timestamp.
	ExpiresAt time.Time `json:"expires_at"`

	// Metadata carries opaque caller key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Manager issues, persists, validates and extends sessions.
type Manager struct {
	backend storage.Backend
	cipher  envelope.Cipher
	rng     codec.RandomSource
	logger  *logging.Logger
	key     string
	now     func() time.Time
}

// ManagerParams contains dependencies for creating a session Manager.
type ManagerParams struct {
	// Backend is the session-scoped persistent store (required).
	Backend storage.Backend

	// Cipher seals and opens session envelopes (required). Use
	// envelope.NewCipher to get AEAD-or-degraded selection.
	Cipher envelope.Cipher

	// RNG overrides the token random source. Defaults to crypto/rand.
	RNG codec.RandomSource

	// Logger defaults to the package default logger.
	Logger *logging.Logger

	// StorageKey overrides the fixed session key. Defaults to
	// DefaultStorageKey.
	StorageKey string

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// NewManager creates a session manager with the provided dependencies.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("session: backend is required")
	}
	if params.Cipher == nil {
		return nil, fmt.Errorf("session: cipher is required")
	}

	rng := params.RNG
	if rng == nil {
		rng = codec.CryptoRand{}
	}
	logger := params.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	key := params.StorageKey
	if key == "" {
		key = DefaultStorageKey
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}

	if !params.Cipher.Confidential() {
		logger.Warn("session envelopes are not confidential, operating in degraded-security mode")
	}

	return &Manager{
		backend: params.Backend,
		cipher:  params.Cipher,
		rng:     rng,
		logger:  logger,
		key:     key,
		now:     now,
	}, nil
}

// IssueToken returns a fresh high-entropy opaque token. Tokens are
// unrelated to credential identifiers.
func (m *Manager) IssueToken() (string, error) {
	entropy, err := m.rng.Rand(tokenEntropy)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate token: %w", err)
	}
	return uuid.NewString() + "." + codec.FromBuffer(entropy, true), nil
}

// IssueRecord issues a token and returns an unpersisted record expiring
// after the given duration (DefaultDuration when zero).
func (m *Manager) IssueRecord(duration time.Duration, metadata map[string]string) (*Record, error) {
	token, err := m.IssueToken()
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Record{
		Token:     token,
		ExpiresAt: m.now().Add(duration),
		Metadata:  metadata,
	}, nil
}

// Persist serializes the record, encrypts it and writes it to the
// session store. The record's expiry must be strictly in the future.
func (m *Manager) Persist(rec *Record) error {
	if rec == nil || rec.Token == "" {
		return ErrEmptyToken
	}
	if !rec.ExpiresAt.After(m.now()) {
		return ErrExpiresInPast
	}

	plaintext, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: failed to encode record: %w", err)
	}

	env, err := m.cipher.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("session: failed to seal record: %w", err)
	}

	if err := m.backend.Put(storage.SessionPath(m.key), []byte(env), nil); err != nil {
		return fmt.Errorf("session: failed to persist record: %w", err)
	}
	return nil
}

// Current reads and decrypts the stored session. Absent, corrupt,
// tampered or expired sessions are purged and reported as (nil, nil);
// only storage failures return an error.
func (m *Manager) Current() (*Record, error) {
	data, err := m.backend.Get(storage.SessionPath(m.key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: failed to read store: %w", err)
	}

	plaintext, err := m.cipher.Open(string(data))
	if err != nil {
		m.logger.Debug("purging undecryptable session envelope", "error", err)
		m.purge()
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		m.logger.Debug("purging malformed session record", "error", err)
		m.purge()
		return nil, nil
	}

	if !rec.ExpiresAt.After(m.now()) {
		m.logger.Debug("purging expired session", "expired_at", rec.ExpiresAt)
		m.purge()
		return nil, nil
	}

	return &rec, nil
}

// IsValid reports whether a valid session currently exists.
func (m *Manager) IsValid() (bool, error) {
	rec, err := m.Current()
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Extend rewrites the current session's expiry to now + duration and
// re-persists it. Returns false without creating a record when no valid
// session exists.
func (m *Manager) Extend(duration time.Duration) (bool, error) {
	rec, err := m.Current()
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	rec.ExpiresAt = m.now().Add(duration)
	if err := m.Persist(rec); err != nil {
		return false, err
	}
	return true, nil
}

// Logout deletes the current session. Absence is not an error.
func (m *Manager) Logout() error {
	err := m.backend.Delete(storage.SessionPath(m.key))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("session: failed to delete record: %w", err)
	}
	return nil
}

// purge removes the stored envelope, best-effort.
func (m *Manager) purge() {
	err := m.backend.Delete(storage.SessionPath(m.key))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("failed to purge session entry", "error", err)
		return
	}
	metrics.RecordSessionPurged()
}
