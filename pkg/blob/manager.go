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

// Package blob provides generic encrypted at-rest storage for arbitrary
// serializable payloads, keyed by credential identifier. It shares the
// envelope primitive with the session manager but derives a distinct key
// per credential, and entries have no expiry: they persist until
// explicitly deleted.
package blob

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-biometric/pkg/crypto/envelope"
	"github.com/jeremyhahn/go-biometric/pkg/logging"
	"github.com/jeremyhahn/go-biometric/pkg/storage"
)

// ErrNotFound is returned by Get for absent entries. Decryption failures
// return the same error so a malformed stored value is indistinguishable
// from an absent one.
var ErrNotFound = errors.New("blob: not found")

// Manager stores encrypted credential blobs.
type Manager struct {
	backend storage.Backend
	ciphers envelope.CipherFactory
	logger  *logging.Logger
}

// ManagerParams contains dependencies for creating a blob Manager.
type ManagerParams struct {
	// Backend is the durable credential store (required).
	Backend storage.Backend

	// Ciphers produces the per-credential envelope cipher (required).
	// Use envelope.NewKeyedFactory for PBKDF2-per-credential keying.
	Ciphers envelope.CipherFactory

	// Logger defaults to the package default logger.
	Logger *logging.Logger
}

// NewManager creates a blob manager with the provided dependencies.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("blob: backend is required")
	}
	if params.Ciphers == nil {
		return nil, fmt.Errorf("blob: cipher factory is required")
	}
	logger := params.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Manager{
		backend: params.Backend,
		ciphers: params.Ciphers,
		logger:  logger,
	}, nil
}

// Store serializes payload and writes it under the credential ID. With
// encrypt set (the normal mode) the payload is sealed with the
// credential's derived key; otherwise it is stored as a plain reversible
// envelope.
func (m *Manager) Store(credentialID string, payload any, encrypt bool) error {
	if !storage.ValidComponent(credentialID) {
		return storage.ErrInvalidID
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("blob: failed to encode payload: %w", err)
	}

	cipher, err := m.cipherFor(credentialID, encrypt)
	if err != nil {
		return err
	}

	env, err := cipher.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("blob: failed to seal payload: %w", err)
	}

	if err := m.backend.Put(storage.BlobPath(credentialID), []byte(env), nil); err != nil {
		return fmt.Errorf("blob: failed to write entry: %w", err)
	}
	return nil
}

// Get reads the entry for the credential ID and unmarshals it into out.
// Returns ErrNotFound for absent entries and for entries that fail
// decryption, to avoid leaking which of the two occurred.
func (m *Manager) Get(credentialID string, out any, decrypt bool) error {
	if !storage.ValidComponent(credentialID) {
		return storage.ErrInvalidID
	}

	data, err := m.backend.Get(storage.BlobPath(credentialID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("blob: failed to read entry: %w", err)
	}

	cipher, err := m.cipherFor(credentialID, decrypt)
	if err != nil {
		return err
	}

	plaintext, err := cipher.Open(string(data))
	if err != nil {
		m.logger.Debug("blob entry failed to open", "credential_id", credentialID, "error", err)
		return ErrNotFound
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		m.logger.Debug("blob entry failed to decode", "credential_id", credentialID, "error", err)
		return ErrNotFound
	}
	return nil
}

// Delete removes the entry for the credential ID. Absence is not an
// error.
func (m *Manager) Delete(credentialID string) error {
	if !storage.ValidComponent(credentialID) {
		return storage.ErrInvalidID
	}
	err := m.backend.Delete(storage.BlobPath(credentialID))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("blob: failed to delete entry: %w", err)
	}
	return nil
}

// ListIDs returns the credential IDs of all stored blobs.
func (m *Manager) ListIDs() ([]string, error) {
	ids, err := storage.ListBlobIDs(m.backend)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to list entries: %w", err)
	}
	return ids, nil
}

// ClearAll removes every stored blob.
func (m *Manager) ClearAll() error {
	ids, err := m.ListIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := m.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) cipherFor(credentialID string, encrypted bool) (envelope.Cipher, error) {
	if !encrypted {
		return envelope.NewPlain(), nil
	}
	cipher, err := m.ciphers.CipherFor(credentialID)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to build cipher: %w", err)
	}
	return cipher, nil
}
