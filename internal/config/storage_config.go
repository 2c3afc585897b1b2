package config

import "path/filepath"

type StorageConfig interface {
	GetStoragePath() string
	GetStoragePassphrase() string
}

type StorageSettings struct {
	// File is relative to the data folder unless absolute.
	File       string `koanf:"file"`
	Passphrase string `koanf:"passphrase"`
}

func (c *Settings) GetStoragePath() string {
	name := c.Storage.File
	if name == "" {
		name = "dashboarrd.db"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataFolder(), name)
}

// GetStoragePassphrase returns the passphrase values are sealed with; empty disables sealing
func (c *Settings) GetStoragePassphrase() string {
	return c.Storage.Passphrase
}
