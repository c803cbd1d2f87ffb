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

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
	"github.com/jeremyhahn/go-biometric/pkg/crypto/envelope"
)

// Config represents the complete daemon configuration
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Logging  LoggingConfig     `yaml:"logging"`
	TLS      TLSConfig         `yaml:"tls"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Storage  StorageConfig     `yaml:"storage"`
	Ceremony ceremony.Defaults `yaml:"ceremony"`
	Session  SessionConfig     `yaml:"session"`
	Crypto   CryptoConfig      `yaml:"crypto"`
	Auth     AuthConfig        `yaml:"auth"`

	// RateLimit throttles ceremony attempts per client IP.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig controls per-client request throttling
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// APIPrefix is the mount point for the biometric API.
	// Default: /api/v1/biometric
	APIPrefix string `yaml:"api_prefix"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TLSConfig controls TLS settings
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"` // TLS1.2, TLS1.3
}

// MetricsConfig controls the metrics endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, file
	Path    string `yaml:"path"`    // root directory for the file backend
}

// SessionConfig controls issued sessions
type SessionConfig struct {
	// DurationSeconds is the session lifetime. Default: 3600.
	DurationSeconds int `yaml:"duration_seconds"`

	// StorageKey overrides the fixed session-store key.
	StorageKey string `yaml:"storage_key"`
}

// CryptoConfig controls envelope encryption
type CryptoConfig struct {
	// Passphrase is the envelope key material. When empty the daemon
	// runs with plaintext envelopes and logs the degradation loudly.
	Passphrase string `yaml:"passphrase"`

	// PassphraseFile reads the passphrase from a file instead.
	PassphraseFile string `yaml:"passphrase_file"`

	// Salt is the PBKDF2 salt, at least 16 bytes.
	Salt string `yaml:"salt"`

	// Iterations is the PBKDF2 iteration count. Values below the
	// built-in default are raised to it.
	Iterations int `yaml:"iterations"`

	// Algorithm selects the AEAD: aes256-gcm (default) or
	// chacha20-poly1305.
	Algorithm string `yaml:"algorithm"`
}

// AuthConfig controls post-auth token generation
type AuthConfig struct {
	// JWT enables JWT minting after successful ceremonies. When nil the
	// session token is returned instead.
	JWT *JWTConfig `yaml:"jwt,omitempty"`
}

// JWTConfig controls JWT token generation
type JWTConfig struct {
	Secret   string   `yaml:"secret"` // HMAC secret
	Issuer   string   `yaml:"issuer"`
	Audience []string `yaml:"audience"`
	KeyID    string   `yaml:"key_id"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with built-in defaults applied,
// suitable when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	cfg.SetDefaults()
	if cfg.Ceremony.RPID == "" {
		cfg.Ceremony.RPID = cfg.Server.Host
	}
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("BIOMETRIC_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("BIOMETRIC_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			log.Printf("Warning: invalid BIOMETRIC_PORT value %q, using default %d",
				portStr, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}
	if level := os.Getenv("BIOMETRIC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("BIOMETRIC_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if dataDir := os.Getenv("BIOMETRIC_DATA_DIR"); dataDir != "" {
		cfg.Storage.Backend = "file"
		cfg.Storage.Path = dataDir
	}
	if passphrase := os.Getenv("BIOMETRIC_PASSPHRASE"); passphrase != "" {
		cfg.Crypto.Passphrase = passphrase
	}
}

// SetDefaults fills in built-in defaults for unset fields
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8443
	}
	if c.Server.APIPrefix == "" {
		c.Server.APIPrefix = "/api/v1/biometric"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Session.DurationSeconds == 0 {
		c.Session.DurationSeconds = 3600
	}
	if c.Crypto.Algorithm == "" {
		c.Crypto.Algorithm = string(envelope.AlgorithmAESGCM)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 60
	}
	c.Ceremony.SetDefaults()
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	switch envelope.Algorithm(c.Crypto.Algorithm) {
	case envelope.AlgorithmAESGCM, envelope.AlgorithmChaCha20Poly1305:
	default:
		return fmt.Errorf("invalid crypto algorithm: %s", c.Crypto.Algorithm)
	}

	if c.Crypto.Passphrase != "" && c.Crypto.PassphraseFile != "" {
		return fmt.Errorf("passphrase and passphrase_file are mutually exclusive")
	}
	if (c.Crypto.Passphrase != "" || c.Crypto.PassphraseFile != "") && len(c.Crypto.Salt) < envelope.MinSaltSize {
		return fmt.Errorf("crypto salt must be at least %d bytes", envelope.MinSaltSize)
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("tls requires cert_file and key_file")
		}
		switch c.TLS.MinVersion {
		case "", "TLS1.2", "TLS1.3":
		default:
			return fmt.Errorf("invalid tls min_version: %s", c.TLS.MinVersion)
		}
	}

	if c.Auth.JWT != nil && c.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is required when jwt is configured")
	}

	if c.Session.DurationSeconds < 1 {
		return fmt.Errorf("session duration must be positive")
	}

	return c.Ceremony.Validate()
}

// ResolvePassphrase returns the envelope passphrase, reading
// PassphraseFile when configured.
func (c *Config) ResolvePassphrase() (string, error) {
	if c.Crypto.PassphraseFile != "" {
		// #nosec G304 - Passphrase file path is provided by admin/user
		data, err := os.ReadFile(c.Crypto.PassphraseFile)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase file: %w", err)
		}
		return string(data), nil
	}
	return c.Crypto.Passphrase, nil
}
