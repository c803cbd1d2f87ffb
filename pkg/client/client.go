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

// Package client provides a typed HTTP client for the biometric daemon
// API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-biometric/pkg/biometric"
	biometrichttp "github.com/jeremyhahn/go-biometric/pkg/biometric/http"
	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
)

var (
	// ErrConnectionFailed is returned when the connection to the server fails.
	ErrConnectionFailed = errors.New("connection failed")
	// ErrNotConnected is returned when using a client before Connect.
	ErrNotConnected = errors.New("client not connected")
)

// APIError is a structured error response from the daemon.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// Config holds client settings.
type Config struct {
	// Address is the server base URL, e.g. https://host:port. A bare
	// host:port is prefixed according to TLSEnabled.
	Address string

	// APIPrefix is the mount point of the biometric API.
	// Default: /api/v1/biometric
	APIPrefix string

	// TLSEnabled enables TLS when Address carries no scheme.
	TLSEnabled bool

	// TLSInsecureSkipVerify skips certificate verification (not recommended).
	TLSInsecureSkipVerify bool

	// TLSCAFile is the path to the CA certificate file.
	TLSCAFile string
}

// Client talks to the biometric daemon over HTTP.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
	connected  bool
}

// New creates a client. Call Connect before issuing requests.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("client: address is required")
	}

	baseURL := cfg.Address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if cfg.TLSEnabled {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1/biometric"
	}

	return &Client{
		config:  cfg,
		baseURL: baseURL + prefix,
	}, nil
}

// Connect builds the HTTP transport and verifies the server is
// reachable via the availability endpoint.
func (c *Client) Connect(ctx context.Context) error {
	var tlsConfig *tls.Config
	if c.config.TLSEnabled {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.config.TLSInsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
		if c.config.TLSCAFile != "" {
			caCert, err := os.ReadFile(c.config.TLSCAFile)
			if err != nil {
				return fmt.Errorf("failed to read CA certificate: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return fmt.Errorf("failed to parse CA certificate")
			}
			tlsConfig.RootCAs = pool
		}
	}

	c.httpClient = &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}

	if _, err := c.Available(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	c.connected = true
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	c.connected = false
	return nil
}

// doRequest performs one HTTP request and returns the response body.
// Non-2xx responses are returned as *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.httpClient == nil {
		return nil, ErrNotConnected
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "internal_error"}
		var errResp biometrichttp.ErrorResponse
		if jsonErr := json.Unmarshal(data, &errResp); jsonErr == nil && errResp.Error != "" {
			apiErr.Code = errResp.Error
			apiErr.Message = errResp.Message
		}
		return nil, apiErr
	}
	return data, nil
}

func decode[T any](data []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Register runs a registration ceremony.
func (c *Client) Register(ctx context.Context, opts *ceremony.CreateOptions) (*biometrichttp.AuthResponse, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/register", opts)
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.AuthResponse](data)
}

// Authenticate runs an authentication ceremony. A nil opts uses the
// site defaults and the stored credential index.
func (c *Client) Authenticate(ctx context.Context, opts *ceremony.GetOptions) (*biometrichttp.AuthResponse, error) {
	if opts == nil {
		opts = &ceremony.GetOptions{}
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/authenticate", opts)
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.AuthResponse](data)
}

// BeginRegistration fetches creation options for a registration
// ceremony the caller runs against a platform authenticator.
func (c *Client) BeginRegistration(ctx context.Context, opts *ceremony.CreateOptions) (*protocol.PublicKeyCredentialCreationOptions, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/register/begin", opts)
	if err != nil {
		return nil, err
	}
	return decode[protocol.PublicKeyCredentialCreationOptions](data)
}

// FinishRegistration reports a platform adapter's registration outcome
// to the daemon, which indexes the credential and issues a session.
func (c *Client) FinishRegistration(ctx context.Context, scope string, result *biometric.AdapterResult) (*biometrichttp.AuthResponse, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/register/finish", biometrichttp.FinishRequest{
		Scope:  scope,
		Result: result,
	})
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.AuthResponse](data)
}

// BeginAuthentication fetches request options for an assertion the
// caller runs against a platform authenticator.
func (c *Client) BeginAuthentication(ctx context.Context, opts *ceremony.GetOptions) (*protocol.PublicKeyCredentialRequestOptions, error) {
	if opts == nil {
		opts = &ceremony.GetOptions{}
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/authenticate/begin", opts)
	if err != nil {
		return nil, err
	}
	return decode[protocol.PublicKeyCredentialRequestOptions](data)
}

// FinishAuthentication reports a platform adapter's assertion outcome
// to the daemon.
func (c *Client) FinishAuthentication(ctx context.Context, scope string, result *biometric.AdapterResult) (*biometrichttp.AuthResponse, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/authenticate/finish", biometrichttp.FinishRequest{
		Scope:  scope,
		Result: result,
	})
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.AuthResponse](data)
}

// SessionStatus returns the current session state.
func (c *Client) SessionStatus(ctx context.Context) (*biometrichttp.SessionStatusResponse, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/session", nil)
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.SessionStatusResponse](data)
}

// ExtendSession pushes the session expiry forward by seconds, or by
// the server default when seconds is zero.
func (c *Client) ExtendSession(ctx context.Context, seconds int) (*biometrichttp.ExtendSessionResponse, error) {
	req := biometrichttp.ExtendSessionRequest{Seconds: seconds}
	data, err := c.doRequest(ctx, http.MethodPost, "/session/extend", req)
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.ExtendSessionResponse](data)
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/logout", nil)
	return err
}

// Credentials lists stored credential IDs for a scope. An empty scope
// uses the server default.
func (c *Client) Credentials(ctx context.Context, scope string) (*biometrichttp.CredentialsResponse, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/credentials"+scopeQuery(scope), nil)
	if err != nil {
		return nil, err
	}
	return decode[biometrichttp.CredentialsResponse](data)
}

// RemoveCredentials clears the credential index for a scope.
func (c *Client) RemoveCredentials(ctx context.Context, scope string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/credentials"+scopeQuery(scope), nil)
	return err
}

// Available reports whether a biometric authenticator is usable.
func (c *Client) Available(ctx context.Context) (bool, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/available", nil)
	if err != nil {
		return false, err
	}
	resp, err := decode[biometrichttp.AvailableResponse](data)
	if err != nil {
		return false, err
	}
	return resp.Available, nil
}

// StoreCredentialData stores an encrypted payload keyed by credential.
func (c *Client) StoreCredentialData(ctx context.Context, credentialID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	req := biometrichttp.CredentialDataRequest{Payload: raw}
	_, err = c.doRequest(ctx, http.MethodPost, "/credentials/data?credential_id="+credentialID, req)
	return err
}

// GetCredentialData retrieves a stored payload into out.
func (c *Client) GetCredentialData(ctx context.Context, credentialID string, out any) error {
	data, err := c.doRequest(ctx, http.MethodGet, "/credentials/data?credential_id="+credentialID, nil)
	if err != nil {
		return err
	}
	resp, err := decode[biometrichttp.CredentialDataResponse](data)
	if err != nil {
		return err
	}
	return json.Unmarshal(resp.Payload, out)
}

// DeleteCredentialData removes a stored payload.
func (c *Client) DeleteCredentialData(ctx context.Context, credentialID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/credentials/data?credential_id="+credentialID, nil)
	return err
}

func scopeQuery(scope string) string {
	if scope == "" {
		return ""
	}
	return "?scope=" + scope
}
