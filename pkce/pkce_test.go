package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/jrsteele09/dashboarrd/pkce"
	"github.com/stretchr/testify/require"
)

func TestChallenge_RFC7636Vector(t *testing.T) {
	// Appendix B of RFC 7636
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", pkce.Challenge(verifier))
}

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		pair, err := pkce.Generate()
		require.NoError(t, err)

		require.True(t, pkce.ValidVerifier(pair.Verifier), "verifier %q", pair.Verifier)
		require.Len(t, pair.Verifier, pkce.VerifierLength)

		hash := sha256.Sum256([]byte(pair.Verifier))
		require.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), pair.Challenge)
		require.NotContains(t, pair.Challenge, "=")
		require.True(t, pkce.Verify(pair.Challenge, pair.Verifier))

		_, dup := seen[pair.Verifier]
		require.False(t, dup)
		seen[pair.Verifier] = struct{}{}
	}
}

func TestVerify(t *testing.T) {
	pair, err := pkce.Generate()
	require.NoError(t, err)

	t.Run("wrong verifier", func(t *testing.T) {
		require.False(t, pkce.Verify(pair.Challenge, pair.Verifier+"x"))
	})
	t.Run("empty values", func(t *testing.T) {
		require.False(t, pkce.Verify("", pair.Verifier))
		require.False(t, pkce.Verify(pair.Challenge, ""))
	})
}

func TestValidVerifier(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		want     bool
	}{
		{"too short", "abc", false},
		{"minimum length", string(make43('a')), true},
		{"illegal character", string(make43('a')) + "+", false},
		{"too long", string(makeN('a', 129)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, pkce.ValidVerifier(tt.verifier))
		})
	}
}

func TestRandomString(t *testing.T) {
	s, err := pkce.RandomString(32)
	require.NoError(t, err)
	require.Len(t, s, 32)

	_, err = pkce.RandomString(0)
	require.Error(t, err)
}

func make43(c byte) []byte { return makeN(c, 43) }

func makeN(c byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return b
}
