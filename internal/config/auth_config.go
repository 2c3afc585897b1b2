package config

import "strings"

// Platform selects the redirect URI the identity provider sends the user back to.
type Platform string

const (
	PlatformNative Platform = "native" // custom app scheme
	PlatformWeb    Platform = "web"    // HTTP loopback
)

type AuthConfig interface {
	GetAutheliaURL() string
	GetClientID() string
	GetPlatform() Platform
	GetRedirectURI() string
	GetScopes() []string
}

type AuthSettings struct {
	AutheliaURL       string   `koanf:"authelia_url"`
	ClientID          string   `koanf:"client_id"`
	Platform          Platform `koanf:"platform"`
	NativeRedirectURI string   `koanf:"native_redirect_uri"`
	WebRedirectURI    string   `koanf:"web_redirect_uri"`
	Scopes            []string `koanf:"scopes"`
}

func defaultAuthSettings() AuthSettings {
	return AuthSettings{
		AutheliaURL:       "https://login.shivelymedia.com",
		ClientID:          "dashboarrd-mobile",
		Platform:          PlatformWeb,
		NativeRedirectURI: "dashboarrd://auth/callback",
		WebRedirectURI:    "http://localhost/auth/callback",
		Scopes:            []string{"openid", "profile", "email", "groups", "offline_access"},
	}
}

// GetAutheliaURL returns the identity provider base URL without a trailing slash
func (c *Settings) GetAutheliaURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Auth.AutheliaURL), "/")
}

func (c *Settings) GetClientID() string {
	return c.Auth.ClientID
}

func (c *Settings) GetPlatform() Platform {
	return c.Auth.Platform
}

// GetRedirectURI picks the redirect URI for the configured platform
func (c *Settings) GetRedirectURI() string {
	if c.Auth.Platform == PlatformNative {
		return c.Auth.NativeRedirectURI
	}
	return c.Auth.WebRedirectURI
}

func (c *Settings) GetScopes() []string {
	return c.Auth.Scopes
}
