// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("test-signing-key")

// IDToken signs claims into a compact JWT. iat/exp are added when absent.
func IDToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	mc := jwtlib.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	if _, ok := mc["iat"]; !ok {
		mc["iat"] = time.Now().Unix()
	}
	if _, ok := mc["exp"]; !ok {
		mc["exp"] = time.Now().Add(time.Hour).Unix()
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, mc).SignedString(signingKey)
	require.NoError(t, err)
	return signed
}
