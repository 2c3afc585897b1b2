// Package updates checks GitHub releases for a newer build of the app.
package updates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
)

const (
	packageSuffix = ".apk"
	userAgent     = "Dashboarrd-Mobile"
)

// Release describes the latest published build.
type Release struct {
	Version     string    `json:"version"`
	TagName     string    `json:"tagName"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"publishedAt"`
	DownloadURL string    `json:"downloadUrl"`
	Size        int64     `json:"size"`
}

// Result is the outcome of a check. Latest is nil when the check failed or the
// release has no installable package.
type Result struct {
	UpdateAvailable bool     `json:"updateAvailable"`
	CurrentVersion  string   `json:"currentVersion"`
	Latest          *Release `json:"latestRelease"`
}

type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	} `json:"assets"`
}

type Checker struct {
	cfg  config.UpdateConfig
	http *http.Client
}

type Option func(*Checker)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Checker) {
		c.http = httpClient
	}
}

func NewChecker(cfg config.UpdateConfig, options ...Option) *Checker {
	c := &Checker{cfg: cfg, http: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Check looks up the latest release. It never fails: any error is logged and
// reported as no update.
func (c *Checker) Check(ctx context.Context) Result {
	res := Result{CurrentVersion: c.cfg.GetAppVersion()}

	rel, err := c.latest(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("update check failed")
		return res
	}

	var asset *Release
	for _, a := range rel.Assets {
		if strings.HasSuffix(a.Name, packageSuffix) {
			asset = &Release{DownloadURL: a.BrowserDownloadURL, Size: a.Size}
			break
		}
	}
	if asset == nil {
		log.Warn().Str("tag", rel.TagName).Msg("latest release has no installable package")
		return res
	}

	asset.Version = strings.TrimPrefix(rel.TagName, "v")
	asset.TagName = rel.TagName
	asset.Name = rel.Name
	asset.Body = rel.Body
	asset.PublishedAt = rel.PublishedAt

	res.Latest = asset
	res.UpdateAvailable = Compare(asset.Version, res.CurrentVersion) > 0
	return res
}

func (c *Checker) latest(ctx context.Context) (*githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimSuffix(c.cfg.GetGitHubAPIURL(), "/"), c.cfg.GetReleaseOwner(), c.cfg.GetReleaseRepo())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch latest release: status %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode latest release: %w", err)
	}
	return &rel, nil
}

// Compare orders two dotted versions, with or without a leading "v". Missing parts
// count as zero. Unparseable versions compare equal so they never trigger an update.
func Compare(a, b string) int {
	va, vb := canonical(a), canonical(b)
	if va == "" || vb == "" {
		return 0
	}
	return semver.Compare(va, vb)
}

func canonical(v string) string {
	v = "v" + strings.TrimPrefix(strings.TrimSpace(v), "v")
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// RelativeDate renders t relative to now: Today, Yesterday, N days ago, N weeks ago,
// or the date itself past a month.
func RelativeDate(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	}
	return t.Format("2006-01-02")
}
