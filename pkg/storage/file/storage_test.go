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

package file

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biometric/pkg/storage"
)

func newTestStorage(t *testing.T) storage.Backend {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Run("RequiresRootDir", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})

	t.Run("CreatesRootDir", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "data")
		_, err := New(root)
		require.NoError(t, err)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
		}
	})
}

func TestPutGet(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.Put("sessions/current.env", []byte("envelope"), nil))

	value, err := s.Get("sessions/current.env")
	require.NoError(t, err)
	assert.Equal(t, []byte("envelope"), value)
}

func TestPut_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not enforced on windows")
	}
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)

	require.NoError(t, s.Put("blobs/cred-a.env", []byte("sealed"), nil))

	info, err := os.Stat(filepath.Join(root, "blobs", "cred-a.env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Put("key", []byte("value"), nil))
	require.NoError(t, s.Delete("key"))

	_, err := s.Get("key")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Delete("key"), storage.ErrNotFound)
}

func TestList(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Put("credentials/a.index", []byte("1"), nil))
	require.NoError(t, s.Put("credentials/b.index", []byte("2"), nil))
	require.NoError(t, s.Put("blobs/cred-a.env", []byte("3"), nil))

	keys, err := s.List("credentials/")
	require.NoError(t, err)
	assert.Equal(t, []string{"credentials/a.index", "credentials/b.index"}, keys)

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExists(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Put("key", []byte("value"), nil))

	exists, err := s.Exists("key")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists("missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInvalidKeysRejected(t *testing.T) {
	s := newTestStorage(t)

	tests := []struct {
		name string
		key  string
	}{
		{"Empty", ""},
		{"EscapesRoot", "../escape.txt"},
		{"CrossNamespace", "blobs/../sessions/current.env"},
		{"DotDotSuffix", "blobs/.."},
		{"DotSegment", "./sessions/current.env"},
		{"EmptySegment", "sessions//current.env"},
		{"Absolute", "/etc/passwd"},
		{"Backslash", `blobs\..\sessions\current.env`},
		{"NullByte", "sessions/\x00.env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Put(tt.key, []byte("x"), nil), storage.ErrInvalidID)
			_, err := s.Get(tt.key)
			assert.ErrorIs(t, err, storage.ErrInvalidID)
			assert.ErrorIs(t, s.Delete(tt.key), storage.ErrInvalidID)
			_, err = s.Exists(tt.key)
			assert.ErrorIs(t, err, storage.ErrInvalidID)
		})
	}
}

func TestPathTraversalBlocked(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)

	t.Run("OutsideRoot", func(t *testing.T) {
		outside := filepath.Join(filepath.Dir(root), "escape.txt")
		defer os.Remove(outside)

		assert.ErrorIs(t, s.Put("../escape.txt", []byte("x"), nil), storage.ErrInvalidID)
		_, err := os.Stat(outside)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("AcrossNamespaces", func(t *testing.T) {
		// A blob key must never reach the session namespace, even when
		// its cleaned path stays inside the root.
		require.NoError(t, s.Put(storage.SessionPath("current"), []byte("session-envelope"), nil))

		hostile := storage.BlobPath("../sessions/current")
		assert.ErrorIs(t, s.Put(hostile, []byte("attacker-data"), nil), storage.ErrInvalidID)
		assert.ErrorIs(t, s.Delete(hostile), storage.ErrInvalidID)

		value, err := s.Get(storage.SessionPath("current"))
		require.NoError(t, err)
		assert.Equal(t, []byte("session-envelope"), value)
	})
}

func TestPersistsAcrossInstances(t *testing.T) {
	root := t.TempDir()
	first, err := New(root)
	require.NoError(t, err)
	require.NoError(t, first.Put("sessions/current.env", []byte("envelope"), nil))
	require.NoError(t, first.Close())

	second, err := New(root)
	require.NoError(t, err)
	value, err := second.Get("sessions/current.env")
	require.NoError(t, err)
	assert.Equal(t, []byte("envelope"), value)
}
