package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVerifier means an exchange was attempted without a PKCE step. The
	// token endpoint is never called.
	ErrMissingVerifier = errors.New("no PKCE verifier stored")

	// ErrStateMismatch means the callback state does not match the stored state,
	// either a forged or a stale callback.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrTokenExchangeFailed means the authorization code was not exchanged.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrNoRefreshToken means the session cannot be renewed silently.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrRefreshFailed means the refresh grant was rejected or did not complete.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNetwork marks transport failures. Callers treat it the same as the
	// endpoint's logical failure.
	ErrNetwork = errors.New("network error")

	// ErrInvalidIDToken means the ID token payload could not be decoded.
	ErrInvalidIDToken = errors.New("invalid id token")
)

// ServerError carries a non-2xx response from the identity provider.
type ServerError struct {
	StatusCode  int
	Code        string // RFC 6749 error code, e.g. invalid_grant
	Description string
	Body        string
}

func (e *ServerError) Error() string {
	if e.Code != "" && e.Description != "" {
		return fmt.Sprintf("identity provider returned %d: %s %s", e.StatusCode, e.Code, e.Description)
	}
	if e.Code != "" {
		return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Code)
	}
	if e.Body == "" {
		return fmt.Sprintf("identity provider returned %d", e.StatusCode)
	}
	return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Body)
}
