package kvstore

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	interrors "github.com/jrsteele09/dashboarrd/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltKey    = "kvstore.salt"
	saltLength = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// SealedStore encrypts values with XChaCha20-Poly1305 before handing them to the
// wrapped Store. Keys are stored in the clear and bound to the ciphertext as
// additional data, so a value copied under another key fails to open.
type SealedStore struct {
	inner Store
	key   []byte
}

var _ Store = (*SealedStore)(nil)

// NewSealedStore derives the sealing key from passphrase with Argon2id. The salt is
// created on first use and kept in inner.
func NewSealedStore(inner Store, passphrase string) (*SealedStore, error) {
	if passphrase == "" {
		return nil, errors.New("sealed store requires a passphrase")
	}
	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	return &SealedStore{inner: inner, key: key}, nil
}

func loadOrCreateSalt(inner Store) ([]byte, error) {
	encoded, err := inner.Get(saltKey)
	if err == nil {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
		return salt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load salt: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err := inner.Set(saltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("store salt: %w", err)
	}
	return salt, nil
}

func (s *SealedStore) Get(key string) (string, error) {
	sealed, err := s.inner.Get(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", interrors.Wrapf(interrors.ErrSealed, "decode %s", key)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", interrors.Wrapf(interrors.ErrSealed, "short value for %s", key)
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", interrors.Wrapf(interrors.ErrSealed, "open %s", key)
	}
	return string(plain), nil
}

func (s *SealedStore) Set(key, value string) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(key, base64.StdEncoding.EncodeToString(sealed))
}

func (s *SealedStore) Delete(key string) error {
	return s.inner.Delete(key)
}
