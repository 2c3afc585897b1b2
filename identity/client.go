// Package identity talks to the identity provider's cookie-session endpoints, the
// legacy login path used when the OAuth2 flow was never completed.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/users"
	"github.com/rs/zerolog/log"
)

const (
	userInfoPath = "/api/user/info"
	logoutAPI    = "/api/logout"
	logoutPage   = "/logout"

	// SessionCookieName is the provider's session cookie.
	SessionCookieName = "authelia_session"
)

// ErrNotAuthenticated is returned when the cookie session does not identify a user.
var ErrNotAuthenticated = errors.New("no authenticated cookie session")

// Client reaches the cookie-authenticated endpoints with an ambient cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an identity client for baseURL. When httpClient is nil a client
// with its own cookie jar is created.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[identity.NewClient] base URL is required")
	}
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("[identity.NewClient] cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// SetSessionCookie seeds the jar with a session cookie obtained in a browser.
func (c *Client) SetSessionCookie(value string) error {
	if c.http.Jar == nil {
		return errors.New("http client has no cookie jar")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	c.http.Jar.SetCookies(u, []*http.Cookie{{
		Name:  SessionCookieName,
		Value: value,
		Path:  "/",
	}})
	return nil
}

// userInfoResponse accepts both a bare identity object and the {"status","data"} envelope.
type userInfoResponse struct {
	users.IdentityInfo
	Status string              `json:"status"`
	Data   *users.IdentityInfo `json:"data"`
}

// UserInfo asks the provider who the current cookie session belongs to.
func (c *Client) UserInfo(ctx context.Context) (*users.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userInfoPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[identity.UserInfo] %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrNotAuthenticated
	}

	var body userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("[identity.UserInfo] decode: %w", err)
	}

	info := &body.IdentityInfo
	if body.Data != nil {
		info = body.Data
	}
	user := users.FromIdentity(info)
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// LoginURL is where the user signs in through the browser. Native apps open the
// portal with no redirect because the provider refuses non-web redirect targets.
func (c *Client) LoginURL(platform config.Platform, returnURL string) string {
	if platform == config.PlatformNative || returnURL == "" {
		return c.baseURL
	}
	return c.baseURL + "/?rd=" + url.QueryEscape(returnURL)
}

func (c *Client) LogoutURL() string {
	return c.baseURL + logoutPage
}

// Logout ends the cookie session. Failures are logged and otherwise ignored.
func (c *Client) Logout(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutAPI, nil)
	if err != nil {
		log.Err(err).Msg("Logout: failed to build request")
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Err(err).Msg("Logout: request failed")
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
