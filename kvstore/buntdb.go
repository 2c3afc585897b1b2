package kvstore

import (
	"errors"
	"fmt"

	"github.com/tidwall/buntdb"
)

// InMemoryPath opens a BuntStore that is never written to disk.
const InMemoryPath = ":memory:"

// BuntStore persists values in a buntdb file.
type BuntStore struct {
	db *buntdb.DB
}

var _ Store = (*BuntStore)(nil)

// OpenBuntStore opens (or creates) the buntdb file at path.
func OpenBuntStore(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("buntdb.Open %s: %w", path, err)
	}
	return &BuntStore{db: db}, nil
}

func (b *BuntStore) Get(key string) (string, error) {
	var value string
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("[BuntStore.Get] %s: %w", key, err)
	}
	return value, nil
}

func (b *BuntStore) Set(key, value string) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("[BuntStore.Set] %s: %w", key, err)
	}
	return nil
}

func (b *BuntStore) Delete(key string) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("[BuntStore.Delete] %s: %w", key, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (b *BuntStore) Close() error {
	return b.db.Close()
}
