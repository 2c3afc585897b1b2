package config

type UpdateConfig interface {
	GetAppVersion() string
	GetReleaseOwner() string
	GetReleaseRepo() string
	GetGitHubAPIURL() string
}

type UpdateSettings struct {
	CurrentVersion string `koanf:"current_version"`
	Owner          string `koanf:"owner"`
	Repo           string `koanf:"repo"`
	APIURL         string `koanf:"api_url"`
}

// AppVersion is the version this build reports to the update check.
const AppVersion = "1.1.6"

func defaultUpdateSettings() UpdateSettings {
	return UpdateSettings{
		CurrentVersion: AppVersion,
		Owner:          "Misterobots",
		Repo:           "Dashboarrd_App",
		APIURL:         "https://api.github.com",
	}
}

func (c *Settings) GetAppVersion() string  { return c.Update.CurrentVersion }
func (c *Settings) GetReleaseOwner() string { return c.Update.Owner }
func (c *Settings) GetReleaseRepo() string  { return c.Update.Repo }
func (c *Settings) GetGitHubAPIURL() string { return c.Update.APIURL }
