package config

// ServiceConfig is the connection info for one self-hosted service.
type ServiceConfig struct {
	URL     string `koanf:"url"`
	APIKey  string `koanf:"api_key"`
	Enabled bool   `koanf:"enabled"`
}

type ServicesConfig interface {
	GetRadarr() ServiceConfig
	GetSonarr() ServiceConfig
	GetSabnzbd() ServiceConfig
	GetJellyfin() ServiceConfig
	GetJellyseerr() ServiceConfig
}

type ServicesSettings struct {
	Radarr     ServiceConfig `koanf:"radarr"`
	Sonarr     ServiceConfig `koanf:"sonarr"`
	Sabnzbd    ServiceConfig `koanf:"sabnzbd"`
	Jellyfin   ServiceConfig `koanf:"jellyfin"`
	Jellyseerr ServiceConfig `koanf:"jellyseerr"`
}

func (c *Settings) GetRadarr() ServiceConfig     { return c.Services.Radarr }
func (c *Settings) GetSonarr() ServiceConfig     { return c.Services.Sonarr }
func (c *Settings) GetSabnzbd() ServiceConfig    { return c.Services.Sabnzbd }
func (c *Settings) GetJellyfin() ServiceConfig   { return c.Services.Jellyfin }
func (c *Settings) GetJellyseerr() ServiceConfig { return c.Services.Jellyseerr }
