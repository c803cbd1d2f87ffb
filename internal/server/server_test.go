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

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-biometric/internal/config"
	"github.com/jeremyhahn/go-biometric/pkg/biometric"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Ceremony.RPID = "example.com"
	cfg.Ceremony.RPName = "Example"
	cfg.Ceremony.Origin = "https://example.com"
	cfg.Crypto.Passphrase = "test-passphrase"
	cfg.Crypto.Salt = "0123456789abcdef"
	cfg.Metrics.Enabled = true
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(cfg, Options{Authenticator: biometric.NewMockAuthenticator()})
	require.NoError(t, err)
	srv.health.MarkStarted()

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, srv.Shutdown())
	})
	return srv, ts
}

func TestNew(t *testing.T) {
	t.Run("RequiresAuthenticator", func(t *testing.T) {
		_, err := New(testConfig(), Options{})
		assert.Error(t, err)
	})

	t.Run("NilConfigUsesDefaults", func(t *testing.T) {
		srv, err := New(nil, Options{Authenticator: biometric.NewMockAuthenticator()})
		require.NoError(t, err)
		assert.NotNil(t, srv.Service())
		require.NoError(t, srv.Shutdown())
	})
}

func TestProbes(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	for _, path := range []string{"/livez", "/readyz", "/startupz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestStartupProbe_NotStarted(t *testing.T) {
	srv, err := New(testConfig(), Options{Authenticator: biometric.NewMockAuthenticator()})
	require.NoError(t, err)
	defer srv.Shutdown()

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/startupz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReadyz_DegradedWithoutPassphrase(t *testing.T) {
	cfg := testConfig()
	cfg.Crypto.Passphrase = ""
	cfg.Crypto.Salt = ""
	_, ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Degraded envelope crypto keeps the daemon serving.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var results []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	statuses := make(map[string]string)
	for _, r := range results {
		statuses[r["name"].(string)] = r["status"].(string)
	}
	assert.Equal(t, "degraded", statuses["envelope"])
	assert.Equal(t, "healthy", statuses["storage"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIMounted(t *testing.T) {
	cfg := testConfig()
	_, ts := newTestServer(t, cfg)

	body, err := json.Marshal(map[string]any{
		"user": map[string]string{
			"id":   "dXNlci0xMjM0",
			"name": "user@example.com",
		},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+cfg.Server.APIPrefix+"/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	assert.NotEmpty(t, auth["token"])
	assert.NotEmpty(t, auth["credential_id"])
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = 60
	cfg.RateLimit.Burst = 2
	_, ts := newTestServer(t, cfg)

	var last int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + cfg.Server.APIPrefix + "/session")
		require.NoError(t, err)
		resp.Body.Close()
		last = resp.StatusCode
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// Probes are not rate limited.
	resp, err := http.Get(ts.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestParseTLSVersion(t *testing.T) {
	assert.EqualValues(t, 0x0304, parseTLSVersion("TLS1.3"))
	assert.EqualValues(t, 0x0303, parseTLSVersion("TLS1.2"))
	assert.EqualValues(t, 0x0303, parseTLSVersion(""))
}
