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

package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biometric/pkg/storage"
)

func TestPutGet(t *testing.T) {
	s := New()

	require.NoError(t, s.Put("sessions/current.env", []byte("envelope"), nil))

	value, err := s.Get("sessions/current.env")
	require.NoError(t, err)
	assert.Equal(t, []byte("envelope"), value)
}

func TestGet_NotFound(t *testing.T) {
	s := New()
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGet_DefensiveCopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Put("key", []byte("original"), nil))

	value, err := s.Get("key")
	require.NoError(t, err)
	value[0] = 'X'

	again, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestPut_Overwrite(t *testing.T) {
	s := New()
	require.NoError(t, s.Put("key", []byte("first"), nil))
	require.NoError(t, s.Put("key", []byte("second"), nil))

	value, err := s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
}

func TestDelete(t *testing.T) {
	s := New()
	require.NoError(t, s.Put("key", []byte("value"), nil))
	require.NoError(t, s.Delete("key"))

	_, err := s.Get("key")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Delete("key"), storage.ErrNotFound)
}

func TestList(t *testing.T) {
	s := New()
	require.NoError(t, s.Put("credentials/a.index", []byte("1"), nil))
	require.NoError(t, s.Put("credentials/b.index", []byte("2"), nil))
	require.NoError(t, s.Put("sessions/current.env", []byte("3"), nil))

	keys, err := s.List("credentials/")
	require.NoError(t, err)
	assert.Equal(t, []string{"credentials/a.index", "credentials/b.index"}, keys)

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExists(t *testing.T) {
	s := New()
	require.NoError(t, s.Put("key", []byte("value"), nil))

	exists, err := s.Exists("key")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists("missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClose(t *testing.T) {
	s := New()
	require.NoError(t, s.Put("key", []byte("value"), nil))
	require.NoError(t, s.Close())

	_, err := s.Get("key")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Put("key", nil, nil), storage.ErrClosed)
	assert.ErrorIs(t, s.Delete("key"), storage.ErrClosed)

	// Close is idempotent.
	assert.NoError(t, s.Close())
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Put("shared", []byte("value"), nil)
				_, _ = s.Get("shared")
				_, _ = s.List("")
			}
		}()
	}
	wg.Wait()
}
