// Package token holds the OAuth2/OIDC token triple the client keeps for its session,
// the store that persists it, and ID token payload decoding.
package token

import "time"

const (
	// ExpiryBuffer is subtracted from the expiry so tokens are renewed before they lapse.
	ExpiryBuffer = 5 * time.Minute

	// DefaultLifetime applies when the token endpoint omits expires_in.
	DefaultLifetime = time.Hour

	// DefaultTokenType applies when the token endpoint omits token_type.
	DefaultTokenType = "Bearer"
)

// Tokens is the access/ID/refresh token triple with its absolute expiry.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresAtFrom converts a server-declared lifetime in seconds into an absolute time.
// A non-positive lifetime falls back to DefaultLifetime.
func ExpiresAtFrom(now time.Time, expiresInSeconds int64) time.Time {
	if expiresInSeconds <= 0 {
		return now.Add(DefaultLifetime)
	}
	return now.Add(time.Duration(expiresInSeconds) * time.Second)
}

// ExpiredAt reports whether the tokens are expired at now once buffer is applied:
// now+buffer must still be before ExpiresAt for the tokens to be usable.
func (t *Tokens) ExpiredAt(now time.Time, buffer time.Duration) bool {
	if t == nil {
		return true
	}
	return !now.Add(buffer).Before(t.ExpiresAt)
}

// HasRefreshToken reports whether the triple can be silently renewed.
func (t *Tokens) HasRefreshToken() bool {
	return t != nil && t.RefreshToken != ""
}

// Merge applies a refresh response on top of t. ID and refresh tokens the server
// omitted keep their previous values.
func (t *Tokens) Merge(next Tokens) Tokens {
	merged := next
	if merged.IDToken == "" && t != nil {
		merged.IDToken = t.IDToken
	}
	if merged.RefreshToken == "" && t != nil {
		merged.RefreshToken = t.RefreshToken
	}
	if merged.TokenType == "" {
		merged.TokenType = DefaultTokenType
	}
	return merged
}
