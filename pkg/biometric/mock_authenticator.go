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
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
)

// MockAuthenticator simulates the platform credential primitive for
// testing. It honors exclude and allow lists the way a real platform
// does and reports failures through the ceremony error taxonomy.
type MockAuthenticator struct {
	mu sync.Mutex

	// registered maps credential ID to raw ID bytes.
	registered map[string][]byte

	// available controls the Available report.
	available bool

	// failWith, when set, fails every ceremony with this error.
	failWith error

	// nextID, when set, is used as the next created credential's raw ID.
	nextID []byte
}

// MockAuthenticatorOption is a functional option for configuring a MockAuthenticator.
type MockAuthenticatorOption func(*MockAuthenticator)

// WithAvailability sets whether the authenticator reports as available.
func WithAvailability(available bool) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.available = available
	}
}

// WithFailure forces every ceremony to fail with the given error.
func WithFailure(err error) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.failWith = err
	}
}

// WithNextCredentialID sets the raw ID for the next created credential.
func WithNextCredentialID(id []byte) MockAuthenticatorOption {
	return func(m *MockAuthenticator) {
		m.nextID = id
	}
}

// NewMockAuthenticator creates a mock authenticator for testing.
func NewMockAuthenticator(opts ...MockAuthenticatorOption) *MockAuthenticator {
	m := &MockAuthenticator{
		registered: make(map[string][]byte),
		available:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create simulates a registration ceremony.
func (m *MockAuthenticator) Create(ctx context.Context, options *protocol.PublicKeyCredentialCreationOptions) (*ceremony.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	if !m.available {
		return nil, ceremony.ErrNotAvailable
	}

	rawID := m.nextID
	m.nextID = nil
	if rawID == nil {
		rawID = make([]byte, 32)
		if _, err := rand.Read(rawID); err != nil {
			return nil, err
		}
	}

	// A platform refuses to re-register an excluded credential.
	for _, desc := range options.CredentialExcludeList {
		for _, existing := range m.registered {
			if bytes.Equal([]byte(desc.CredentialID), existing) {
				return nil, ceremony.ErrInvalidState
			}
		}
	}

	id := base64.RawURLEncoding.EncodeToString(rawID)
	m.registered[id] = rawID

	return &ceremony.Credential{
		ID:                      id,
		RawID:                   rawID,
		Type:                    string(protocol.PublicKeyCredentialType),
		AuthenticatorAttachment: "platform",
		Transports:              []string{"internal"},
	}, nil
}

// Get simulates an assertion ceremony.
func (m *MockAuthenticator) Get(ctx context.Context, options *protocol.PublicKeyCredentialRequestOptions) (*ceremony.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}
	if !m.available {
		return nil, ceremony.ErrNotAvailable
	}

	// Scoped assertion: the first allowed credential that exists wins.
	if len(options.AllowedCredentials) > 0 {
		for _, desc := range options.AllowedCredentials {
			id := base64.RawURLEncoding.EncodeToString([]byte(desc.CredentialID))
			if rawID, ok := m.registered[id]; ok {
				return m.credential(id, rawID), nil
			}
		}
		return nil, ceremony.ErrNotAvailable
	}

	// Discoverable assertion: any registered credential satisfies it.
	for id, rawID := range m.registered {
		return m.credential(id, rawID), nil
	}
	return nil, ceremony.ErrNotAvailable
}

// Available reports the configured availability.
func (m *MockAuthenticator) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Registered returns the number of credentials held by the mock.
func (m *MockAuthenticator) Registered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.registered)
}

func (m *MockAuthenticator) credential(id string, rawID []byte) *ceremony.Credential {
	return &ceremony.Credential{
		ID:                      id,
		RawID:                   rawID,
		Type:                    string(protocol.PublicKeyCredentialType),
		AuthenticatorAttachment: "platform",
		Transports:              []string{"internal"},
	}
}
