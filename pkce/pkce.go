// Package pkce generates Proof Key for Code Exchange material (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// MethodS256 is the only challenge method this client uses.
	MethodS256 = "S256"

	// VerifierLength is the generated verifier length; RFC 7636 allows 43-128.
	VerifierLength = 64

	minVerifierLength = 43
	maxVerifierLength = 128
)

// unreserved URL characters allowed in a code verifier
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// Pair holds a code verifier and its S256 challenge.
type Pair struct {
	Verifier  string
	Challenge string
}

// Generate creates a new verifier/challenge pair.
func Generate() (*Pair, error) {
	verifier, err := RandomString(VerifierLength)
	if err != nil {
		return nil, fmt.Errorf("pkce verifier: %w", err)
	}
	return &Pair{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
	}, nil
}

// RandomString returns length characters drawn uniformly from the unreserved set.
func RandomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid random string length %d", length)
	}
	max := big.NewInt(int64(len(charset)))
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("crypto/rand: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// Challenge computes BASE64URL(SHA256(verifier)) without padding.
func Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Verify reports whether challenge was derived from verifier.
func Verify(challenge, verifier string) bool {
	if challenge == "" || verifier == "" {
		return false
	}
	return Challenge(verifier) == challenge
}

// ValidVerifier checks length and character set of a verifier.
func ValidVerifier(verifier string) bool {
	if len(verifier) < minVerifierLength || len(verifier) > maxVerifierLength {
		return false
	}
	for i := 0; i < len(verifier); i++ {
		if !isUnreserved(verifier[i]) {
			return false
		}
	}
	return true
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
