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

package biometric

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biometric/pkg/blob"
	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
	"github.com/jeremyhahn/go-biometric/pkg/credstore"
	"github.com/jeremyhahn/go-biometric/pkg/crypto/envelope"
	"github.com/jeremyhahn/go-biometric/pkg/session"
	"github.com/jeremyhahn/go-biometric/pkg/storage/memory"
)

func testEnvelopeConfig() *envelope.Config {
	return &envelope.Config{
		Passphrase: "test-passphrase",
		Salt:       []byte("0123456789abcdef"),
	}
}

func newTestService(t *testing.T, authenticator ceremony.Authenticator) *Service {
	t.Helper()

	backend := memory.New()
	t.Cleanup(func() { _ = backend.Close() })

	cipher, err := envelope.NewAESGCM(testEnvelopeConfig())
	require.NoError(t, err)

	sessions, err := session.NewManager(session.ManagerParams{
		Backend: backend,
		Cipher:  cipher,
	})
	require.NoError(t, err)

	creds, err := credstore.New(backend)
	require.NoError(t, err)

	factory, err := envelope.NewKeyedFactory(testEnvelopeConfig())
	require.NoError(t, err)
	blobs, err := blob.NewManager(blob.ManagerParams{
		Backend: backend,
		Ciphers: factory,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Defaults: ceremony.Defaults{
			RPID:   "example.com",
			RPName: "Example",
			Origin: "https://example.com",
		},
		Authenticator: authenticator,
		Credentials:   creds,
		Sessions:      sessions,
		Blobs:         blobs,
	})
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Authenticator: NewMockAuthenticator()})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	mock := NewMockAuthenticator()
	svc := newTestService(t, mock)

	result, err := svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Credential)
	assert.NotEmpty(t, result.Credential.ID)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, result.Session.Token, result.Token)

	// Credential indexed under the relying party scope.
	ids, err := svc.Credentials("example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{result.Credential.ID}, ids)

	// A session exists immediately after registration.
	authenticated, err := svc.IsAuthenticated()
	require.NoError(t, err)
	assert.True(t, authenticated)
}

func TestService_Register_ExcludesIndexedCredentials(t *testing.T) {
	ctx := context.Background()
	mock := NewMockAuthenticator()
	svc := newTestService(t, mock)

	_, err := svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)

	// The indexed credential rides the exclude list, so the platform
	// refuses a second registration.
	_, err = svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	assert.ErrorIs(t, err, ceremony.ErrInvalidState)
	assert.Equal(t, 1, mock.Registered())
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	mock := NewMockAuthenticator()
	svc := newTestService(t, mock)

	t.Run("NoCredentials", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, nil)
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	registered, err := svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Logout())

	t.Run("AllowListFromIndex", func(t *testing.T) {
		result, err := svc.Authenticate(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, registered.Credential.ID, result.Credential.ID)

		authenticated, err := svc.IsAuthenticated()
		require.NoError(t, err)
		assert.True(t, authenticated)
	})

	t.Run("FailureMapsTaxonomy", func(t *testing.T) {
		cancelled := newTestService(t, NewMockAuthenticator(WithFailure(ceremony.ErrUserCancelled)))

		// Seed the index so the ceremony is attempted.
		_, err := cancelled.Register(ctx, &ceremony.CreateOptions{
			User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
		})
		require.Error(t, err)

		_, err = cancelled.Authenticate(ctx, &ceremony.GetOptions{
			AllowCredentials: []ceremony.Descriptor{{ID: "Y3JlZA"}},
		})
		assert.ErrorIs(t, err, ceremony.ErrUserCancelled)
	})
}

func TestService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMockAuthenticator())

	// No session yet.
	authenticated, err := svc.IsAuthenticated()
	require.NoError(t, err)
	assert.False(t, authenticated)

	extended, err := svc.ExtendSession(time.Hour)
	require.NoError(t, err)
	assert.False(t, extended)

	_, err = svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)

	rec, err := svc.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "example.com", rec.Metadata["scope"])

	extended, err = svc.ExtendSession(2 * time.Hour)
	require.NoError(t, err)
	assert.True(t, extended)

	longer, err := svc.CurrentSession()
	require.NoError(t, err)
	require.NotNil(t, longer)
	assert.True(t, longer.ExpiresAt.After(rec.ExpiresAt))

	require.NoError(t, svc.Logout())
	authenticated, err = svc.IsAuthenticated()
	require.NoError(t, err)
	assert.False(t, authenticated)

	// Logout is idempotent.
	require.NoError(t, svc.Logout())
}

func TestService_CredentialData(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMockAuthenticator())

	result, err := svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)

	payload := map[string]string{"refreshToken": "secret-value"}
	require.NoError(t, svc.StoreCredentialData(result.Credential.ID, payload, true))

	var loaded map[string]string
	require.NoError(t, svc.GetCredentialData(result.Credential.ID, &loaded, true))
	assert.Equal(t, payload, loaded)

	require.NoError(t, svc.DeleteCredentialData(result.Credential.ID))
	err = svc.GetCredentialData(result.Credential.ID, &loaded, true)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestService_RemoveCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMockAuthenticator())

	_, err := svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCredentials("example.com"))
	ids, err := svc.Credentials("example.com")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestService_Available(t *testing.T) {
	assert.True(t, newTestService(t, NewMockAuthenticator()).Available(context.Background()))
	assert.False(t, newTestService(t, NewMockAuthenticator(WithAvailability(false))).Available(context.Background()))
}

func TestAdapterResult_Resolve(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		result := &AdapterResult{
			Success:    true,
			Credential: &ceremony.Credential{ID: "Y3JlZA", RawID: []byte("cred")},
		}
		cred, err := result.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "Y3JlZA", cred.ID)
	})

	t.Run("MappedFailure", func(t *testing.T) {
		result := &AdapterResult{
			Success: false,
			Error:   &AdapterError{Code: ceremony.CodeLockedOut, Message: "too many attempts"},
		}
		_, err := result.Resolve()
		assert.ErrorIs(t, err, ceremony.ErrLockedOut)
		assert.Contains(t, err.Error(), "too many attempts")
	})

	t.Run("UnknownCode", func(t *testing.T) {
		result := &AdapterResult{Success: false, Error: &AdapterError{Code: "mystery"}}
		_, err := result.Resolve()
		assert.ErrorIs(t, err, ceremony.ErrFailed)
	})

	t.Run("SuccessWithoutCredential", func(t *testing.T) {
		result := &AdapterResult{Success: true}
		_, err := result.Resolve()
		assert.ErrorIs(t, err, ceremony.ErrFailed)
	})

	t.Run("Nil", func(t *testing.T) {
		var result *AdapterResult
		_, err := result.Resolve()
		assert.ErrorIs(t, err, ceremony.ErrFailed)
	})
}

func TestService_BridgedCeremony(t *testing.T) {
	svc := newTestService(t, NewMockAuthenticator())

	t.Run("BeginRegistration", func(t *testing.T) {
		built, err := svc.BeginRegistration(&ceremony.CreateOptions{
			User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
		})
		require.NoError(t, err)
		assert.Equal(t, "example.com", built.RelyingParty.ID)
		assert.Len(t, []byte(built.Challenge), 32)
	})

	t.Run("CompleteRegistration", func(t *testing.T) {
		result, err := svc.CompleteRegistration(&AdapterResult{
			Success:    true,
			Credential: &ceremony.Credential{ID: "YnJpZGdlZA", RawID: []byte("bridged")},
		}, "")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)

		ids, err := svc.Credentials("example.com")
		require.NoError(t, err)
		assert.Contains(t, ids, "YnJpZGdlZA")
	})

	t.Run("BeginAuthentication", func(t *testing.T) {
		built, err := svc.BeginAuthentication(nil)
		require.NoError(t, err)
		require.NotEmpty(t, built.AllowedCredentials)
	})

	t.Run("CompleteAuthentication", func(t *testing.T) {
		result, err := svc.CompleteAuthentication(&AdapterResult{
			Success:    true,
			Credential: &ceremony.Credential{ID: "YnJpZGdlZA", RawID: []byte("bridged")},
		}, "example.com")
		require.NoError(t, err)
		assert.Equal(t, "YnJpZGdlZA", result.Credential.ID)
	})

	t.Run("CompleteAuthentication_UnindexedCredential", func(t *testing.T) {
		_, err := svc.CompleteAuthentication(&AdapterResult{
			Success:    true,
			Credential: &ceremony.Credential{ID: "c3RyYW5nZXI", RawID: []byte("stranger")},
		}, "example.com")
		assert.ErrorIs(t, err, ceremony.ErrFailed)
	})

	t.Run("CompleteRegistration_AdapterFailure", func(t *testing.T) {
		_, err := svc.CompleteRegistration(&AdapterResult{
			Success: false,
			Error:   &AdapterError{Code: ceremony.CodeUserCancelled},
		}, "")
		assert.ErrorIs(t, err, ceremony.ErrUserCancelled)
	})
}

func TestService_JWTTokens(t *testing.T) {
	ctx := context.Background()
	mock := NewMockAuthenticator()

	backend := memory.New()
	t.Cleanup(func() { _ = backend.Close() })

	cipher, err := envelope.NewAESGCM(testEnvelopeConfig())
	require.NoError(t, err)
	sessions, err := session.NewManager(session.ManagerParams{Backend: backend, Cipher: cipher})
	require.NoError(t, err)
	creds, err := credstore.New(backend)
	require.NoError(t, err)

	generator, err := NewDefaultJWTGenerator(&JWTGeneratorConfig{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "go-biometric-test",
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Defaults: ceremony.Defaults{
			RPID:   "example.com",
			Origin: "https://example.com",
		},
		Authenticator: mock,
		Credentials:   creds,
		Sessions:      sessions,
		Tokens:        generator,
	})
	require.NoError(t, err)

	result, err := svc.Register(ctx, &ceremony.CreateOptions{
		User: &ceremony.UserInfo{ID: "dXNlcg", Name: "alice"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, result.Session.Token, result.Token)

	claims, err := generator.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Credential.ID, claims["sub"])
	assert.Equal(t, "go-biometric-test", claims["iss"])
}
