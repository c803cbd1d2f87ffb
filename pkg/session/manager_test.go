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

package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biometric/pkg/crypto/envelope"
	"github.com/jeremyhahn/go-biometric/pkg/storage"
	"github.com/jeremyhahn/go-biometric/pkg/storage/memory"
)

func testCipher(t *testing.T) envelope.Cipher {
	t.Helper()
	cipher, err := envelope.NewAESGCM(&envelope.Config{
		Passphrase: "test-passphrase",
		Salt:       []byte("0123456789abcdef"),
	})
	require.NoError(t, err)
	return cipher
}

type fixture struct {
	manager *Manager
	backend storage.Backend
	now     time.Time
}

// newFixture builds a manager with a controllable clock.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: memory.New(),
		now:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	manager, err := NewManager(ManagerParams{
		Backend: f.backend,
		Cipher:  testCipher(t),
		Clock:   func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.manager = manager
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) issue(t *testing.T, duration time.Duration) *Record {
	t.Helper()
	rec, err := f.manager.IssueRecord(duration, map[string]string{"credentialId": "cred-a"})
	require.NoError(t, err)
	require.NoError(t, f.manager.Persist(rec))
	return rec
}

func TestNewManager(t *testing.T) {
	t.Run("RequiresBackend", func(t *testing.T) {
		_, err := NewManager(ManagerParams{Cipher: testCipher(t)})
		assert.Error(t, err)
	})
	t.Run("RequiresCipher", func(t *testing.T) {
		_, err := NewManager(ManagerParams{Backend: memory.New()})
		assert.Error(t, err)
	})
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	a, err := f.manager.IssueToken()
	require.NoError(t, err)
	b, err := f.manager.IssueToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, ".")
}

func TestIssueRecord(t *testing.T) {
	f := newFixture(t)

	rec, err := f.manager.IssueRecord(30*time.Minute, map[string]string{"scope": "example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Token)
	assert.Equal(t, f.now.Add(30*time.Minute), rec.ExpiresAt)
	assert.Equal(t, "example.com", rec.Metadata["scope"])

	// Zero duration falls back to the default lifetime.
	rec, err = f.manager.IssueRecord(0, nil)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(DefaultDuration), rec.ExpiresAt)
}

func TestPersist(t *testing.T) {
	f := newFixture(t)

	t.Run("RejectsEmptyToken", func(t *testing.T) {
		err := f.manager.Persist(&Record{ExpiresAt: f.now.Add(time.Hour)})
		assert.ErrorIs(t, err, ErrEmptyToken)
	})

	t.Run("RejectsPastExpiry", func(t *testing.T) {
		err := f.manager.Persist(&Record{Token: "tok", ExpiresAt: f.now})
		assert.ErrorIs(t, err, ErrExpiresInPast)
	})

	t.Run("StoredEnvelopeIsOpaque", func(t *testing.T) {
		f.issue(t, time.Hour)
		data, err := f.backend.Get(storage.SessionPath(DefaultStorageKey))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "cred-a")
	})
}

func TestCurrent(t *testing.T) {
	t.Run("AbsentIsNilNil", func(t *testing.T) {
		f := newFixture(t)
		rec, err := f.manager.Current()
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		f := newFixture(t)
		issued := f.issue(t, time.Hour)

		rec, err := f.manager.Current()
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, issued.Token, rec.Token)
		assert.Equal(t, "cred-a", rec.Metadata["credentialId"])
	})

	t.Run("ExpiredIsPurged", func(t *testing.T) {
		f := newFixture(t)
		f.issue(t, time.Hour)
		f.advance(time.Hour + time.Second)

		rec, err := f.manager.Current()
		require.NoError(t, err)
		assert.Nil(t, rec)

		// The envelope is gone, not just filtered.
		_, err = f.backend.Get(storage.SessionPath(DefaultStorageKey))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ExpiryBoundaryIsInvalid", func(t *testing.T) {
		f := newFixture(t)
		f.issue(t, time.Hour)
		f.advance(time.Hour)

		rec, err := f.manager.Current()
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("TamperedEnvelopeIsPurged", func(t *testing.T) {
		f := newFixture(t)
		f.issue(t, time.Hour)

		key := storage.SessionPath(DefaultStorageKey)
		data, err := f.backend.Get(key)
		require.NoError(t, err)
		tampered := []byte(strings.Repeat("A", len(data)))
		if tampered[0] == data[0] {
			tampered[0] = 'B'
		}
		require.NoError(t, f.backend.Put(key, tampered, nil))

		rec, err := f.manager.Current()
		require.NoError(t, err)
		assert.Nil(t, rec)

		_, err = f.backend.Get(key)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestIsValid(t *testing.T) {
	f := newFixture(t)

	valid, err := f.manager.IsValid()
	require.NoError(t, err)
	assert.False(t, valid)

	f.issue(t, time.Hour)
	valid, err = f.manager.IsValid()
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestExtend(t *testing.T) {
	t.Run("NoSession", func(t *testing.T) {
		f := newFixture(t)
		extended, err := f.manager.Extend(time.Hour)
		require.NoError(t, err)
		assert.False(t, extended)
	})

	t.Run("PushesExpiryForward", func(t *testing.T) {
		f := newFixture(t)
		f.issue(t, 10*time.Minute)
		f.advance(5 * time.Minute)

		extended, err := f.manager.Extend(time.Hour)
		require.NoError(t, err)
		assert.True(t, extended)

		rec, err := f.manager.Current()
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, f.now.Add(time.Hour), rec.ExpiresAt)
	})

	t.Run("ExpiredSessionNotRevived", func(t *testing.T) {
		f := newFixture(t)
		f.issue(t, 10*time.Minute)
		f.advance(11 * time.Minute)

		extended, err := f.manager.Extend(time.Hour)
		require.NoError(t, err)
		assert.False(t, extended)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.issue(t, time.Hour)

	require.NoError(t, f.manager.Logout())
	rec, err := f.manager.Current()
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Idempotent.
	assert.NoError(t, f.manager.Logout())
}

func TestCustomStorageKey(t *testing.T) {
	backend := memory.New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	manager, err := NewManager(ManagerParams{
		Backend:    backend,
		Cipher:     testCipher(t),
		StorageKey: "alt",
		Clock:      func() time.Time { return now },
	})
	require.NoError(t, err)

	rec, err := manager.IssueRecord(time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, manager.Persist(rec))

	exists, err := backend.Exists(storage.SessionPath("alt"))
	require.NoError(t, err)
	assert.True(t, exists)
}
