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

// Package credstore maintains a durable, per-scope, order-preserving,
// duplicate-free index of opaque credential identifiers. The index scopes
// which credentials may later appear in an assertion ceremony's
// allow-list.
//
// Identifiers are non-sensitive opaque handles, not secrets; no
// encryption is applied. Each scope is one namespaced key-value entry
// serialized as a JSON string array, so writes are plain
// read-modify-write cycles with last-writer-wins semantics (see the
// storage package).
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jeremyhahn/go-biometric/pkg/storage"
)

// DefaultScope is the bucket used when no user scope is given.
const DefaultScope = "default"

// Store is the credential reference store.
type Store struct {
	backend storage.Backend
}

// New creates a credential reference store over the given backend.
func New(backend storage.Backend) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("credstore: backend is required")
	}
	return &Store{backend: backend}, nil
}

// Store appends id to the scope's index unless already present. Adding
// an identifier that is already indexed is a no-op, not an error.
func (s *Store) Store(id, scope string) error {
	if !storage.ValidComponent(id) {
		return storage.ErrInvalidID
	}

	ids, err := s.List(scope)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}

	ids = append(ids, id)
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("credstore: failed to encode index: %w", err)
	}

	normalized, err := normalize(scope)
	if err != nil {
		return err
	}
	if err := s.backend.Put(storage.CredentialIndexPath(normalized), data, nil); err != nil {
		return fmt.Errorf("credstore: failed to write index: %w", err)
	}
	return nil
}

// List returns the scope's credential identifiers in insertion order.
// A missing index yields an empty slice.
func (s *Store) List(scope string) ([]string, error) {
	scope, err := normalize(scope)
	if err != nil {
		return nil, err
	}

	data, err := s.backend.Get(storage.CredentialIndexPath(scope))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("credstore: failed to read index: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("credstore: %w: %v", storage.ErrInvalidData, err)
	}
	return ids, nil
}

// Clear removes the index for the given scopes, or every scope when none
// is given. Clearing an absent scope is a no-op.
func (s *Store) Clear(scopes ...string) error {
	if len(scopes) == 0 {
		all, err := storage.ListIndexScopes(s.backend)
		if err != nil {
			return fmt.Errorf("credstore: failed to list scopes: %w", err)
		}
		scopes = all
	}

	for _, scope := range scopes {
		normalized, err := normalize(scope)
		if err != nil {
			return err
		}
		err = s.backend.Delete(storage.CredentialIndexPath(normalized))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("credstore: failed to clear scope %q: %w", scope, err)
		}
	}
	return nil
}

// normalize maps the empty scope to the default bucket and rejects
// scopes that could address another storage namespace.
func normalize(scope string) (string, error) {
	if scope == "" {
		return DefaultScope, nil
	}
	if !storage.ValidComponent(scope) {
		return "", storage.ErrInvalidID
	}
	return scope, nil
}
