// Package authflow keeps the transient state of the login attempt in flight: the PKCE
// verifier and the anti-forgery state value.
package authflow

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/dashboarrd/kvstore"
)

const (
	verifierKey = "dashboarrd_pkce_verifier"
	stateKey    = "oidc_state"
)

// Store persists the in-flight verifier and state. At most one login attempt is in
// flight; Begin overwrites whatever a previous attempt left behind.
type Store struct {
	kv kvstore.Store
}

// NewStore creates an auth flow store on top of kv
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Begin records the verifier and state of a new login attempt.
func (s *Store) Begin(verifier, state string) error {
	if verifier == "" {
		return errors.New("verifier cannot be empty")
	}
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if err := s.kv.Set(verifierKey, verifier); err != nil {
		return fmt.Errorf("store verifier: %w", err)
	}
	if err := s.kv.Set(stateKey, state); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// Verifier returns the stored verifier, or "" when none is pending.
func (s *Store) Verifier() (string, error) {
	return s.get(verifierKey)
}

// ConsumeVerifier returns the stored verifier and deletes it. A verifier is
// handed out at most once.
func (s *Store) ConsumeVerifier() (string, error) {
	v, err := s.get(verifierKey)
	if err != nil {
		return "", err
	}
	if err := s.kv.Delete(verifierKey); err != nil {
		return "", fmt.Errorf("delete verifier: %w", err)
	}
	return v, nil
}

// ClearVerifier drops the verifier.
func (s *Store) ClearVerifier() error {
	return s.kv.Delete(verifierKey)
}

// State returns the stored state, or "" when none is pending.
func (s *Store) State() (string, error) {
	return s.get(stateKey)
}

// ClearState drops the state.
func (s *Store) ClearState() error {
	return s.kv.Delete(stateKey)
}

// Clear drops everything belonging to the current attempt.
func (s *Store) Clear() error {
	return errors.Join(s.ClearVerifier(), s.ClearState())
}

func (s *Store) get(key string) (string, error) {
	v, err := s.kv.Get(key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return v, nil
}
