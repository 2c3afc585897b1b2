// Package auth implements the client side of the OAuth2 authorization code flow with
// PKCE against the identity provider, token refresh and revocation, and the session
// check that falls back to the provider's cookie session.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/dashboarrd/authflow"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/internal/metrics"
	"github.com/jrsteele09/dashboarrd/token"
	"github.com/jrsteele09/dashboarrd/users"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Identity provider endpoints, relative to the configured base URL.
const (
	authorizationPath = "/api/oidc/authorization"
	tokenPath         = "/api/oidc/token"
	revocationPath    = "/api/oidc/revocation"

	stateLength = 32
)

// IdentityProvider is the legacy cookie-session path.
type IdentityProvider interface {
	UserInfo(ctx context.Context) (*users.User, error)
	LoginURL(platform config.Platform, returnURL string) string
	Logout(ctx context.Context)
}

// Stores holds the storage the client owns.
type Stores struct {
	Tokens *token.Store    // Token triple
	Flow   *authflow.Store // In-flight verifier and state
}

// Client drives the login flow and answers whether the user is signed in.
type Client struct {
	cfg      config.AuthConfig
	baseURL  string
	oauth    *oauth2.Config
	stores   Stores
	identity IdentityProvider
	http     *http.Client
	metrics  *metrics.Metrics
	nowTime  func() time.Time
	refresh  singleflight.Group
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// WithHTTPClient sets the client used for every identity provider call.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithMetrics records auth outcomes on m.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates an auth client. identity may be nil, which disables the cookie
// fallback.
func NewClient(cfg config.AuthConfig, stores Stores, identity IdentityProvider, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[NewClient] config is required")
	}
	if cfg.GetAutheliaURL() == "" {
		return nil, errors.New("[NewClient] identity provider URL is required")
	}
	if stores.Tokens == nil {
		return nil, errors.New("[NewClient] token store is required")
	}
	if stores.Flow == nil {
		return nil, errors.New("[NewClient] auth flow store is required")
	}

	c := &Client{
		cfg:      cfg,
		baseURL:  cfg.GetAutheliaURL(),
		stores:   stores,
		identity: identity,
		http:     http.DefaultClient,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}

	c.oauth = &oauth2.Config{
		ClientID:    cfg.GetClientID(),
		RedirectURL: cfg.GetRedirectURI(),
		Scopes:      cfg.GetScopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.baseURL + authorizationPath,
			TokenURL:  c.baseURL + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return c, nil
}

// oauthContext makes x/oauth2 use the configured HTTP client.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// userFromTokens derives the user view from the stored ID token.
func userFromTokens(t *token.Tokens) (*users.User, error) {
	if t == nil {
		return nil, nil
	}
	claims, err := token.ParseIDToken(t.IDToken)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIDToken, err.Error())
	}
	return users.FromIDClaims(claims), nil
}
