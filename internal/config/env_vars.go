package config

import (
	"os"
	"strings"
)

const (
	envPrefix     = "DASHBOARRD_"
	configFileVar = "DASHBOARRD_CONFIG"
)

// ConfigFile returns the YAML file to load, from DASHBOARRD_CONFIG.
func ConfigFile() string {
	return GetEnv(configFileVar, "config.yaml")
}

// envKey maps DASHBOARRD_AUTH__CLIENT_ID to auth.client_id.
func envKey(s string) string {
	if s == configFileVar {
		return ""
	}
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
