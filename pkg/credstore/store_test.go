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

package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biometric/pkg/storage"
	"github.com/jeremyhahn/go-biometric/pkg/storage/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(memory.New())
	require.NoError(t, err)
	return store
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestStore(t *testing.T) {
	t.Run("PreservesInsertionOrder", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Store("cred-a", "example.com"))
		require.NoError(t, store.Store("cred-b", "example.com"))
		require.NoError(t, store.Store("cred-c", "example.com"))

		ids, err := store.List("example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"cred-a", "cred-b", "cred-c"}, ids)
	})

	t.Run("DuplicateIsNoOp", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Store("cred-a", "example.com"))
		require.NoError(t, store.Store("cred-b", "example.com"))
		require.NoError(t, store.Store("cred-a", "example.com"))

		ids, err := store.List("example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"cred-a", "cred-b"}, ids)
	})

	t.Run("EmptyIDRejected", func(t *testing.T) {
		store := newTestStore(t)
		assert.ErrorIs(t, store.Store("", "example.com"), storage.ErrInvalidID)
	})

	t.Run("TraversalIDRejected", func(t *testing.T) {
		store := newTestStore(t)
		assert.ErrorIs(t, store.Store("../sessions/current", "example.com"), storage.ErrInvalidID)
		assert.ErrorIs(t, store.Store("a/b", "example.com"), storage.ErrInvalidID)
	})

	t.Run("TraversalScopeRejected", func(t *testing.T) {
		store := newTestStore(t)
		assert.ErrorIs(t, store.Store("cred-a", "../sessions/current"), storage.ErrInvalidID)
		_, err := store.List("../sessions/current")
		assert.ErrorIs(t, err, storage.ErrInvalidID)
		assert.ErrorIs(t, store.Clear("../sessions/current"), storage.ErrInvalidID)
	})

	t.Run("ScopesAreIsolated", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Store("cred-a", "example.com"))
		require.NoError(t, store.Store("cred-b", "other.com"))

		ids, err := store.List("example.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"cred-a"}, ids)

		ids, err = store.List("other.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"cred-b"}, ids)
	})

	t.Run("EmptyScopeUsesDefault", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Store("cred-a", ""))

		ids, err := store.List(DefaultScope)
		require.NoError(t, err)
		assert.Equal(t, []string{"cred-a"}, ids)
	})
}

func TestList_MissingScope(t *testing.T) {
	store := newTestStore(t)
	ids, err := store.List("never-written")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestList_CorruptIndex(t *testing.T) {
	backend := memory.New()
	store, err := New(backend)
	require.NoError(t, err)

	require.NoError(t, backend.Put(storage.CredentialIndexPath("example.com"), []byte("{not json"), nil))

	_, err = store.List("example.com")
	assert.ErrorIs(t, err, storage.ErrInvalidData)
}

func TestClear(t *testing.T) {
	t.Run("SingleScope", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Store("cred-a", "example.com"))
		require.NoError(t, store.Store("cred-b", "other.com"))

		require.NoError(t, store.Clear("example.com"))

		ids, err := store.List("example.com")
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = store.List("other.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"cred-b"}, ids)
	})

	t.Run("AllScopes", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Store("cred-a", "example.com"))
		require.NoError(t, store.Store("cred-b", "other.com"))

		require.NoError(t, store.Clear())

		for _, scope := range []string{"example.com", "other.com"} {
			ids, err := store.List(scope)
			require.NoError(t, err)
			assert.Empty(t, ids)
		}
	})

	t.Run("AbsentScopeIsNoOp", func(t *testing.T) {
		store := newTestStore(t)
		assert.NoError(t, store.Clear("never-written"))
	})
}
