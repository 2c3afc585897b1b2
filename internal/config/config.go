package config

import (
	"fmt"
	"os"
	"strings"

	interrors "github.com/jrsteele09/dashboarrd/internal/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config interface {
	EnvConfig
	AuthConfig
	StorageConfig
	ServicesConfig
	UpdateConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDataFolder() string
}

// Settings is the koanf-backed implementation of Config.
type Settings struct {
	App      AppSettings      `koanf:"app"`
	Auth     AuthSettings     `koanf:"auth"`
	Storage  StorageSettings  `koanf:"storage"`
	Services ServicesSettings `koanf:"services"`
	Update   UpdateSettings   `koanf:"update"`
}

type AppSettings struct {
	Name       string `koanf:"name"`
	Env        string `koanf:"env"`
	LogLevel   string `koanf:"log_level"`
	DataFolder string `koanf:"data_folder"`
}

var _ Config = (*Settings)(nil)

// Defaults returns the settings used when nothing overrides them.
func Defaults() *Settings {
	return &Settings{
		App: AppSettings{
			Name:       "Dashboarrd",
			Env:        "DEV",
			LogLevel:   "info",
			DataFolder: "./data",
		},
		Auth:   defaultAuthSettings(),
		Update: defaultUpdateSettings(),
	}
}

// Load builds the configuration. Loading order:
// 1) Defaults()
// 2) the YAML file at path, when path is non-empty and the file exists
// 3) environment variables prefixed DASHBOARRD_, __ separating nested keys,
// e.g. DASHBOARRD_SERVICES__RADARR__API_KEY
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: loading %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	c := Defaults()
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values the client cannot run without.
func (c *Settings) Validate() error {
	if strings.TrimSpace(c.Auth.AutheliaURL) == "" {
		return fmt.Errorf("config: %w: auth.authelia_url is required", interrors.ErrInvalidConfig)
	}
	if c.Auth.ClientID == "" {
		return fmt.Errorf("config: %w: auth.client_id is required", interrors.ErrInvalidConfig)
	}
	switch c.Auth.Platform {
	case PlatformNative, PlatformWeb:
	default:
		return fmt.Errorf("config: %w: auth.platform must be %q or %q, got %q", interrors.ErrInvalidConfig, PlatformNative, PlatformWeb, c.Auth.Platform)
	}
	return nil
}

func (c *Settings) GetAppName() string {
	return c.App.Name
}

func (c *Settings) GetEnv() string {
	if c.App.Env == "" {
		return "DEV"
	}
	return c.App.Env
}

func (c *Settings) GetLogLevel() string {
	return c.App.LogLevel
}

func (c *Settings) GetDataFolder() string {
	return c.App.DataFolder
}
