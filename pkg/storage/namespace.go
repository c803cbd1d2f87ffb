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

package storage

import (
	"strings"
)

// Namespace prefixes. Credential indices and encrypted blobs are durable;
// session envelopes live under their own prefix so a session-scoped
// backend (or a session-window sweep) can drop them wholesale.
const (
	credentialPrefix = "credentials/"
	sessionPrefix    = "sessions/"
	blobPrefix       = "blobs/"
)

// ValidComponent reports whether a caller-supplied path component (a
// credential ID, scope, or session key) is safe to embed in a storage
// path. Separators and dot-dot sequences are rejected so a component
// can never address another namespace.
func ValidComponent(component string) bool {
	return component != "" &&
		!strings.ContainsAny(component, "/\\\x00") &&
		!strings.Contains(component, "..")
}

// CredentialIndexPath returns the storage path for a credential-ID index
// with the given scope. The path follows the convention:
// credentials/{scope}.index
func CredentialIndexPath(scope string) string {
	return credentialPrefix + scope + ".index"
}

// SessionPath returns the storage path for a session envelope with the
// given key. The path follows the convention: sessions/{key}.env
func SessionPath(key string) string {
	return sessionPrefix + key + ".env"
}

// BlobPath returns the storage path for an encrypted credential blob with
// the given ID. The path follows the convention: blobs/{id}.env
func BlobPath(id string) string {
	return blobPrefix + id + ".env"
}

// ListIndexScopes retrieves all credential-index scopes from the backend.
// Returns an empty slice if no indices exist.
func ListIndexScopes(backend Backend) ([]string, error) {
	keys, err := backend.List(credentialPrefix)
	if err != nil {
		return nil, err
	}

	scopes := make([]string, 0, len(keys))
	for _, k := range keys {
		scope := strings.TrimPrefix(k, credentialPrefix)
		scope = strings.TrimSuffix(scope, ".index")
		if scope != "" {
			scopes = append(scopes, scope)
		}
	}
	return scopes, nil
}

// ListBlobIDs retrieves all credential blob IDs from the backend.
// Returns an empty slice if no blobs exist.
func ListBlobIDs(backend Backend) ([]string, error) {
	keys, err := backend.List(blobPrefix)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, blobPrefix)
		id = strings.TrimSuffix(id, ".env")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
