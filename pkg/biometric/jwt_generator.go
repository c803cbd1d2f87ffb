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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenGenerator mints tokens for authenticated principals. The session
// token remains the source of truth for session validity; generated
// tokens are a convenience for downstream services.
type TokenGenerator interface {
	// GenerateToken creates a token for the authenticated credential.
	GenerateToken(credentialID string, expiresAt time.Time) (string, error)
}

// DefaultJWTGenerator signs JWTs for authenticated ceremonies.
type DefaultJWTGenerator struct {
	// key is the signing key
	key any
	// method is the signing method, derived from the key type
	method jwt.SigningMethod
	// issuer is the JWT issuer claim
	issuer string
	// audience is the JWT audience claim
	audience []string
	// keyID is the key identifier for the kid header
	keyID string
}

// JWTGeneratorConfig contains configuration for the JWT generator.
type JWTGeneratorConfig struct {
	// SigningKey signs tokens (required). Supported types: ed25519,
	// *ecdsa.PrivateKey (P-256), *rsa.PrivateKey, and []byte for HMAC.
	SigningKey any

	// Issuer is the JWT issuer claim (default: "go-biometric")
	Issuer string

	// Audience is the JWT audience claim (default: ["go-biometric"])
	Audience []string

	// KeyID is the key identifier for the kid header (optional)
	KeyID string
}

// NewDefaultJWTGenerator creates a new JWT generator with the given configuration.
func NewDefaultJWTGenerator(config *JWTGeneratorConfig) (*DefaultJWTGenerator, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.SigningKey == nil {
		return nil, fmt.Errorf("signing key is required")
	}

	method, err := signingMethod(config.SigningKey)
	if err != nil {
		return nil, err
	}

	issuer := config.Issuer
	if issuer == "" {
		issuer = "go-biometric"
	}

	audience := config.Audience
	if len(audience) == 0 {
		audience = []string{"go-biometric"}
	}

	return &DefaultJWTGenerator{
		key:      config.SigningKey,
		method:   method,
		issuer:   issuer,
		audience: audience,
		keyID:    config.KeyID,
	}, nil
}

// GenerateToken creates a JWT bound to the authenticated credential.
func (g *DefaultJWTGenerator) GenerateToken(credentialID string, expiresAt time.Time) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss": g.issuer,
		"aud": g.audience,
		"sub": credentialID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"nbf": now.Unix(),
	}

	token := jwt.NewWithClaims(g.method, claims)
	if g.keyID != "" {
		token.Header["kid"] = g.keyID
	}

	signed, err := token.SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken verifies a JWT and returns the claims.
func (g *DefaultJWTGenerator) VerifyToken(tokenString string) (jwt.MapClaims, error) {
	verifyKey, err := verificationKey(g.key)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != g.method.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}
			return verifyKey, nil
		},
		jwt.WithIssuer(g.issuer),
		jwt.WithAudience(g.audience[0]),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	return claims, nil
}

// Issuer returns the configured issuer.
func (g *DefaultJWTGenerator) Issuer() string {
	return g.issuer
}

// Audience returns the configured audience.
func (g *DefaultJWTGenerator) Audience() []string {
	return g.audience
}

func signingMethod(key any) (jwt.SigningMethod, error) {
	switch key.(type) {
	case ed25519.PrivateKey:
		return jwt.SigningMethodEdDSA, nil
	case *ecdsa.PrivateKey:
		return jwt.SigningMethodES256, nil
	case *rsa.PrivateKey:
		return jwt.SigningMethodRS256, nil
	case []byte:
		return jwt.SigningMethodHS256, nil
	default:
		return nil, fmt.Errorf("unsupported signing key type: %T", key)
	}
}

func verificationKey(key any) (any, error) {
	switch k := key.(type) {
	case ed25519.PrivateKey:
		return k.Public(), nil
	case *ecdsa.PrivateKey:
		return k.Public(), nil
	case *rsa.PrivateKey:
		return k.Public(), nil
	case []byte:
		return k, nil
	case crypto.Signer:
		return k.Public(), nil
	default:
		return nil, fmt.Errorf("unsupported verification key type: %T", key)
	}
}
