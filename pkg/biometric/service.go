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
	"slices"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-biometric/pkg/blob"
	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
	"github.com/jeremyhahn/go-biometric/pkg/credstore"
	"github.com/jeremyhahn/go-biometric/pkg/logging"
	"github.com/jeremyhahn/go-biometric/pkg/metrics"
	"github.com/jeremyhahn/go-biometric/pkg/session"
)

// Service orchestrates biometric ceremonies and the session and
// credential state around them.
type Service struct {
	builder         *ceremony.Builder
	authenticator   ceremony.Authenticator
	creds           *credstore.Store
	sessions        *session.Manager
	blobs           *blob.Manager
	tokens          TokenGenerator // optional
	logger          *logging.Logger
	sessionDuration time.Duration
	configured      bool
}

// ServiceParams contains dependencies for creating a biometric service.
type ServiceParams struct {
	// Defaults are the site-level ceremony defaults (required).
	Defaults ceremony.Defaults

	// Authenticator is the platform credential primitive (required).
	Authenticator ceremony.Authenticator

	// Credentials is the credential reference index (required).
	Credentials *credstore.Store

	// Sessions is the session manager (required).
	Sessions *session.Manager

	// Blobs is the per-credential data manager (optional).
	Blobs *blob.Manager

	// Tokens is an optional token generator for post-auth tokens.
	// If nil, the service returns the session token after auth.
	Tokens TokenGenerator

	// SessionDuration is the lifetime of issued sessions.
	// Defaults to one hour.
	SessionDuration time.Duration

	// Logger defaults to the package default logger.
	Logger *logging.Logger
}

// NewService creates a new biometric service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Authenticator == nil {
		return nil, WrapError("new service", ceremony.ErrNotAvailable)
	}
	if params.Credentials == nil {
		return nil, NewError("new service", ErrNotConfigured)
	}
	if params.Sessions == nil {
		return nil, NewError("new service", ErrNotConfigured)
	}

	builder, err := ceremony.NewBuilder(params.Defaults)
	if err != nil {
		return nil, WrapError("new service", err)
	}

	duration := params.SessionDuration
	if duration == 0 {
		duration = session.DefaultDuration
	}

	logger := params.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Service{
		builder:         builder,
		authenticator:   params.Authenticator,
		creds:           params.Credentials,
		sessions:        params.Sessions,
		blobs:           params.Blobs,
		tokens:          params.Tokens,
		logger:          logger.Named("biometric"),
		sessionDuration: duration,
		configured:      true,
	}, nil
}

// AuthResult is the outcome of a successful ceremony.
type AuthResult struct {
	// Credential identifies the credential that satisfied the ceremony.
	Credential *ceremony.Credential `json:"credential"`

	// Session is the issued session record.
	Session *session.Record `json:"session"`

	// Token is the post-auth token: a generated token when a token
	// generator is configured, otherwise the session token.
	Token string `json:"token"`
}

// Available reports whether a usable platform authenticator is present.
func (s *Service) Available(ctx context.Context) bool {
	return s.configured && s.authenticator.Available(ctx)
}

// Register performs a registration ceremony and records the resulting
// credential. Credentials already indexed for the scope are excluded
// from re-registration.
func (s *Service) Register(ctx context.Context, opts *ceremony.CreateOptions) (*AuthResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if opts == nil {
		opts = &ceremony.CreateOptions{}
	}

	scope := s.scopeFor(opts)
	merged := *opts
	merged.ExcludeCredentials = s.withIndexed(opts.ExcludeCredentials, scope)

	built, err := s.builder.BuildCreateOptions(&merged)
	if err != nil {
		return nil, WrapError("build create options", err)
	}

	start := time.Now()
	credential, err := s.authenticator.Create(ctx, built)
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyRegister, metrics.StatusError, duration)
		metrics.RecordCeremonyError(metrics.CeremonyRegister, ceremony.CodeFor(err))
		return nil, WrapError("create credential", err)
	}
	metrics.RecordCeremony(metrics.CeremonyRegister, metrics.StatusSuccess, duration)

	if err := s.creds.Store(credential.ID, scope); err != nil {
		return nil, WrapError("index credential", err)
	}

	s.logger.Info("credential registered", "scope", scope, "credentialId", credential.ID)
	return s.establishSession(credential, scope)
}

// Authenticate performs an assertion ceremony and issues a session.
// When the caller does not scope the assertion, every credential
// indexed for the scope is allowed.
func (s *Service) Authenticate(ctx context.Context, opts *ceremony.GetOptions) (*AuthResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if opts == nil {
		opts = &ceremony.GetOptions{}
	}

	scope := s.assertionScope(opts)
	merged := *opts
	if len(merged.AllowCredentials) == 0 {
		indexed, err := s.creds.List(scope)
		if err != nil {
			return nil, WrapError("list credentials", err)
		}
		if len(indexed) == 0 {
			return nil, NewError("authenticate", ErrNoCredentials)
		}
		merged.AllowCredentials = toDescriptors(indexed)
	}

	built, err := s.builder.BuildGetOptions(&merged)
	if err != nil {
		return nil, WrapError("build get options", err)
	}

	start := time.Now()
	credential, err := s.authenticator.Get(ctx, built)
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordCeremony(metrics.CeremonyAuthenticate, metrics.StatusError, duration)
		metrics.RecordCeremonyError(metrics.CeremonyAuthenticate, ceremony.CodeFor(err))
		return nil, WrapError("get credential", err)
	}
	metrics.RecordCeremony(metrics.CeremonyAuthenticate, metrics.StatusSuccess, duration)

	s.logger.Info("authentication succeeded", "scope", scope, "credentialId", credential.ID)
	return s.establishSession(credential, scope)
}

// BeginRegistration builds the creation options for a registration
// ceremony run out of process by a bridged platform adapter. Indexed
// credentials are excluded, as in Register.
func (s *Service) BeginRegistration(opts *ceremony.CreateOptions) (*protocol.PublicKeyCredentialCreationOptions, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if opts == nil {
		opts = &ceremony.CreateOptions{}
	}
	merged := *opts
	merged.ExcludeCredentials = s.withIndexed(opts.ExcludeCredentials, s.scopeFor(opts))
	built, err := s.builder.BuildCreateOptions(&merged)
	return built, WrapError("build create options", err)
}

// CompleteRegistration finishes a registration ceremony run by a
// bridged platform adapter: the adapter outcome is resolved, the
// credential indexed, and a session established.
func (s *Service) CompleteRegistration(result *AdapterResult, scope string) (*AuthResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if scope == "" {
		scope = s.scopeFor(&ceremony.CreateOptions{})
	}
	credential, err := result.Resolve()
	if err != nil {
		metrics.RecordCeremonyError(metrics.CeremonyRegister, ceremony.CodeFor(err))
		return nil, WrapError("complete registration", err)
	}
	if err := s.creds.Store(credential.ID, scope); err != nil {
		return nil, WrapError("index credential", err)
	}
	s.logger.Info("credential registered", "scope", scope, "credentialId", credential.ID)
	return s.establishSession(credential, scope)
}

// BeginAuthentication builds the request options for an assertion
// ceremony run out of process by a bridged platform adapter. The
// allow-list is populated from the index as in Authenticate.
func (s *Service) BeginAuthentication(opts *ceremony.GetOptions) (*protocol.PublicKeyCredentialRequestOptions, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if opts == nil {
		opts = &ceremony.GetOptions{}
	}
	merged := *opts
	if len(merged.AllowCredentials) == 0 {
		indexed, err := s.creds.List(s.assertionScope(opts))
		if err != nil {
			return nil, WrapError("list credentials", err)
		}
		if len(indexed) == 0 {
			return nil, NewError("begin authentication", ErrNoCredentials)
		}
		merged.AllowCredentials = toDescriptors(indexed)
	}
	built, err := s.builder.BuildGetOptions(&merged)
	return built, WrapError("build get options", err)
}

// CompleteAuthentication finishes an assertion ceremony run by a
// bridged platform adapter. The asserted credential must be indexed
// for the scope.
func (s *Service) CompleteAuthentication(result *AdapterResult, scope string) (*AuthResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if scope == "" {
		scope = s.assertionScope(&ceremony.GetOptions{})
	}
	credential, err := result.Resolve()
	if err != nil {
		metrics.RecordCeremonyError(metrics.CeremonyAuthenticate, ceremony.CodeFor(err))
		return nil, WrapError("complete authentication", err)
	}
	indexed, err := s.creds.List(scope)
	if err != nil {
		return nil, WrapError("list credentials", err)
	}
	if !slices.Contains(indexed, credential.ID) {
		metrics.RecordCeremonyError(metrics.CeremonyAuthenticate, ceremony.CodeFor(ceremony.ErrFailed))
		return nil, WrapError("complete authentication", ceremony.ErrFailed)
	}
	s.logger.Info("authentication succeeded", "scope", scope, "credentialId", credential.ID)
	return s.establishSession(credential, scope)
}

// IsAuthenticated reports whether an unexpired session exists.
func (s *Service) IsAuthenticated() (bool, error) {
	if !s.configured {
		return false, ErrNotConfigured
	}
	valid, err := s.sessions.IsValid()
	return valid, WrapError("check session", err)
}

// CurrentSession returns the active session record, or nil when none
// exists.
func (s *Service) CurrentSession() (*session.Record, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	rec, err := s.sessions.Current()
	return rec, WrapError("current session", err)
}

// ExtendSession pushes the active session's expiry out by the given
// duration. Returns false when no active session exists.
func (s *Service) ExtendSession(duration time.Duration) (bool, error) {
	if !s.configured {
		return false, ErrNotConfigured
	}
	if duration == 0 {
		duration = s.sessionDuration
	}
	extended, err := s.sessions.Extend(duration)
	if err != nil {
		return false, WrapError("extend session", err)
	}
	if extended {
		metrics.RecordSessionExtended()
	}
	return extended, nil
}

// Logout removes the active session. Absent sessions are not an error.
func (s *Service) Logout() error {
	if !s.configured {
		return ErrNotConfigured
	}
	return WrapError("logout", s.sessions.Logout())
}

// Credentials lists the credential IDs indexed for a scope, oldest
// first.
func (s *Service) Credentials(scope string) ([]string, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	ids, err := s.creds.List(scope)
	return ids, WrapError("list credentials", err)
}

// RemoveCredentials clears the credential index for the given scopes,
// or every scope when none are named.
func (s *Service) RemoveCredentials(scopes ...string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return WrapError("remove credentials", s.creds.Clear(scopes...))
}

// StoreCredentialData persists a payload keyed to a credential,
// encrypted under a key derived for that credential.
func (s *Service) StoreCredentialData(credentialID string, payload any, encrypt bool) error {
	if !s.configured || s.blobs == nil {
		return ErrNotConfigured
	}
	return WrapError("store credential data", s.blobs.Store(credentialID, payload, encrypt))
}

// GetCredentialData loads a payload previously stored for a credential.
func (s *Service) GetCredentialData(credentialID string, out any, decrypt bool) error {
	if !s.configured || s.blobs == nil {
		return ErrNotConfigured
	}
	return WrapError("get credential data", s.blobs.Get(credentialID, out, decrypt))
}

// DeleteCredentialData removes the payload stored for a credential.
func (s *Service) DeleteCredentialData(credentialID string) error {
	if !s.configured || s.blobs == nil {
		return ErrNotConfigured
	}
	return WrapError("delete credential data", s.blobs.Delete(credentialID))
}

// establishSession issues and persists a session for a completed
// ceremony, then mints the post-auth token.
func (s *Service) establishSession(credential *ceremony.Credential, scope string) (*AuthResult, error) {
	rec, err := s.sessions.IssueRecord(s.sessionDuration, map[string]string{
		"credentialId": credential.ID,
		"scope":        scope,
	})
	if err != nil {
		return nil, WrapError("issue session", err)
	}
	if err := s.sessions.Persist(rec); err != nil {
		return nil, WrapError("persist session", err)
	}
	metrics.RecordSessionIssued()

	token := rec.Token
	if s.tokens != nil {
		token, err = s.tokens.GenerateToken(credential.ID, rec.ExpiresAt)
		if err != nil {
			return nil, WrapError("generate token", err)
		}
	}

	return &AuthResult{
		Credential: credential,
		Session:    rec,
		Token:      token,
	}, nil
}

// scopeFor resolves the credential scope for a registration.
func (s *Service) scopeFor(opts *ceremony.CreateOptions) string {
	if opts.RP != nil && opts.RP.ID != "" {
		return opts.RP.ID
	}
	if id := s.builder.Defaults().RPID; id != "" {
		return id
	}
	return credstore.DefaultScope
}

// assertionScope resolves the credential scope for an assertion.
func (s *Service) assertionScope(opts *ceremony.GetOptions) string {
	if opts.RPID != "" {
		return opts.RPID
	}
	if id := s.builder.Defaults().RPID; id != "" {
		return id
	}
	return credstore.DefaultScope
}

// withIndexed appends indexed credential IDs to a caller exclude list.
func (s *Service) withIndexed(callerList []ceremony.Descriptor, scope string) []ceremony.Descriptor {
	indexed, err := s.creds.List(scope)
	if err != nil {
		s.logger.Warn("failed to list indexed credentials", "scope", scope, "error", err)
		return callerList
	}
	merged := make([]ceremony.Descriptor, 0, len(callerList)+len(indexed))
	merged = append(merged, callerList...)
	merged = append(merged, toDescriptors(indexed)...)
	return merged
}

func toDescriptors(ids []string) []ceremony.Descriptor {
	descriptors := make([]ceremony.Descriptor, len(ids))
	for i, id := range ids {
		descriptors[i] = ceremony.Descriptor{ID: id}
	}
	return descriptors
}
