package identity

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/dashboarrd/kvstore"
)

const sessionKey = "dashboarrd_authelia_session"

// SessionStore keeps the provider session cookie between runs.
type SessionStore struct {
	kv kvstore.Store
}

func NewSessionStore(kv kvstore.Store) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) Save(value string) error {
	if err := s.kv.Set(sessionKey, value); err != nil {
		return fmt.Errorf("[SessionStore.Save] %w", err)
	}
	return nil
}

// Load returns the stored cookie value, "" when there is none.
func (s *SessionStore) Load() (string, error) {
	v, err := s.kv.Get(sessionKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[SessionStore.Load] %w", err)
	}
	return v, nil
}

func (s *SessionStore) Clear() error {
	return s.kv.Delete(sessionKey)
}

// Restore seeds c with the stored cookie, if any.
func (s *SessionStore) Restore(c *Client) error {
	v, err := s.Load()
	if err != nil || v == "" {
		return err
	}
	return c.SetSessionCookie(v)
}
