// Package kvstore provides the opaque local key-value storage the client keeps its
// configuration, tokens and in-flight login state in.
package kvstore

import (
	interrors "github.com/jrsteele09/dashboarrd/internal/errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = interrors.ErrNotFound

// Store is a string key-value store. Deleting an absent key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
