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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBuffer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{"Base64URLUnpadded", "dXNlci0xMjM0", []byte("user-1234")},
		{"Base64URLPadded", "dXNlci0xMjM0NQ==", []byte("user-12345")},
		{"Base64URLSafeChars", "-_-_", []byte{0xfb, 0xff, 0xbf}},
		{"StandardBase64", "+/+/", []byte{0xfb, 0xff, 0xbf}},
		{"RawUTF8Fallback", "not base64!!", []byte("not base64!!")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := ToBuffer(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf)
		})
	}

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := ToBuffer("")
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestFromBuffer(t *testing.T) {
	buf := []byte{0xfb, 0xff, 0xbf}
	assert.Equal(t, "-_-_", FromBuffer(buf, true))
	assert.Equal(t, "+/+/", FromBuffer(buf, false))

	// Wire form strips padding, storage form keeps it.
	assert.Equal(t, "dXNlci0xMjM0NQ", FromBuffer([]byte("user-12345"), true))
	assert.Equal(t, "dXNlci0xMjM0NQ==", FromBuffer([]byte("user-12345"), false))
}

func TestRoundTrip(t *testing.T) {
	original := []byte("some opaque credential id \x00\x01\x02")

	for _, urlSafe := range []bool{true, false} {
		encoded := FromBuffer(original, urlSafe)
		decoded, err := ToBuffer(encoded)
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	}
}

func TestDecodeStrict(t *testing.T) {
	t.Run("Base64URL", func(t *testing.T) {
		buf, err := DecodeStrict("dXNlci0xMjM0", FormatBase64URL)
		require.NoError(t, err)
		assert.Equal(t, []byte("user-1234"), buf)
	})

	t.Run("Base64", func(t *testing.T) {
		buf, err := DecodeStrict("dXNlci0xMjM0NQ==", FormatBase64)
		require.NoError(t, err)
		assert.Equal(t, []byte("user-12345"), buf)
	})

	t.Run("UTF8", func(t *testing.T) {
		buf, err := DecodeStrict("plain text", FormatUTF8)
		require.NoError(t, err)
		assert.Equal(t, []byte("plain text"), buf)
	})

	t.Run("RejectsMalformed", func(t *testing.T) {
		_, err := DecodeStrict("not base64!!", FormatBase64URL)
		assert.Error(t, err)
		_, err = DecodeStrict("not base64!!", FormatBase64)
		assert.Error(t, err)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := DecodeStrict("abcd", Format("hex"))
		assert.Error(t, err)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := DecodeStrict("", FormatUTF8)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestGenerateChallenge(t *testing.T) {
	a, err := GenerateChallenge()
	require.NoError(t, err)
	assert.Len(t, a, ChallengeSize)

	b, err := GenerateChallenge()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

type fixedSource struct{ b byte }

func (f fixedSource) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = f.b
	}
	return buf, nil
}

func TestGenerateChallengeFrom(t *testing.T) {
	buf, err := GenerateChallengeFrom(fixedSource{b: 0x42})
	require.NoError(t, err)
	require.Len(t, buf, ChallengeSize)
	for _, b := range buf {
		assert.EqualValues(t, 0x42, b)
	}
}
