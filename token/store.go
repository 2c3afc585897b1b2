package token

import (
	"encoding/json"
	"errors"
	"fmt"

	interrors "github.com/jrsteele09/dashboarrd/internal/errors"
	"github.com/jrsteele09/dashboarrd/kvstore"
	"github.com/rs/zerolog/log"
)

const storageKey = "dashboarrd_oidc_tokens"

// Store persists the token triple. It is the only owner of the record.
type Store struct {
	kv kvstore.Store
}

// NewStore creates a token store on top of kv
func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// Save overwrites the stored triple.
func (s *Store) Save(t Tokens) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("[token.Store.Save] marshal: %w", err)
	}
	if err := s.kv.Set(storageKey, string(b)); err != nil {
		return fmt.Errorf("[token.Store.Save] %w", err)
	}
	return nil
}

// Load returns the stored triple, or nil when there is none. A record that
// cannot be decoded is treated as absent.
func (s *Store) Load() (*Tokens, error) {
	raw, err := s.kv.Get(storageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[token.Store.Load] %w", err)
	}
	var t Tokens
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		log.Warn().Err(interrors.Wrapf(interrors.ErrCorruptRecord, "%s: %v", storageKey, err)).Msg("Discarding unreadable token record")
		return nil, nil
	}
	return &t, nil
}

// Clear deletes the stored triple.
func (s *Store) Clear() error {
	if err := s.kv.Delete(storageKey); err != nil {
		return fmt.Errorf("[token.Store.Clear] %w", err)
	}
	return nil
}
