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

// Package codec converts between opaque binary values and transportable
// string encodings, and generates cryptographically secure random
// challenges for credential ceremonies.
//
// The lenient ToBuffer decode chain exists for interoperability with
// heterogeneous caller input (base64url from the wire, padded base64 from
// storage, raw strings from application code). It is a compatibility
// fallback, not a validity check: callers must not rely on it to reject
// malformed input. DecodeStrict offers the explicit-format alternative.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ChallengeSize is the byte length of generated ceremony challenges.
// The WebAuthn specification requires at least 16 bytes; 32 matches what
// browsers and the major server libraries emit.
const ChallengeSize = 32

// ErrEmptyInput is returned by ToBuffer and DecodeStrict when there is
// nothing to decode.
var ErrEmptyInput = errors.New("codec: empty input")

// Format identifies an explicit string encoding for DecodeStrict.
type Format string

const (
	// FormatBase64URL is URL-safe base64, padding optional.
	FormatBase64URL Format = "base64url"

	// FormatBase64 is standard padded base64.
	FormatBase64 Format = "base64"

	// FormatUTF8 treats the string's raw bytes as the value.
	FormatUTF8 Format = "utf8"
)

// ToBuffer decodes a string into a binary buffer. Decoding attempts, in
// order: URL-safe base64 with padding normalized to a multiple of 4,
// standard base64, and finally the string's raw UTF-8 bytes. A non-empty
// input therefore always yields a buffer; only empty input fails.
func ToBuffer(value string) ([]byte, error) {
	if value == "" {
		return nil, ErrEmptyInput
	}

	if buf, err := base64.URLEncoding.DecodeString(pad(value)); err == nil {
		return buf, nil
	}

	if buf, err := base64.StdEncoding.DecodeString(value); err == nil {
		return buf, nil
	}

	// Last resort: raw UTF-8 bytes.
	return []byte(value), nil
}

// FromBuffer encodes a binary buffer as a transportable string. With
// urlSafe set it produces the URL-safe alphabet with padding stripped, as
// required on the wire; otherwise the padded standard alphabet required
// for generic storage.
func FromBuffer(buf []byte, urlSafe bool) string {
	if urlSafe {
		return base64.RawURLEncoding.EncodeToString(buf)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeStrict decodes a string according to an explicit format tag,
// rejecting malformed input instead of falling back.
func DecodeStrict(value string, format Format) ([]byte, error) {
	if value == "" {
		return nil, ErrEmptyInput
	}

	switch format {
	case FormatBase64URL:
		buf, err := base64.URLEncoding.DecodeString(pad(value))
		if err != nil {
			return nil, fmt.Errorf("codec: invalid base64url input: %w", err)
		}
		return buf, nil
	case FormatBase64:
		buf, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("codec: invalid base64 input: %w", err)
		}
		return buf, nil
	case FormatUTF8:
		return []byte(value), nil
	default:
		return nil, fmt.Errorf("codec: unknown format %q", format)
	}
}

// pad normalizes base64 padding to a multiple of 4.
func pad(value string) string {
	if rem := len(value) % 4; rem != 0 {
		return value + strings.Repeat("=", 4-rem)
	}
	return value
}
