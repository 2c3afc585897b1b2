package auth

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/dashboarrd/pkce"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// LoginMethod says which login path a LoginPlan takes.
type LoginMethod string

const (
	LoginMethodOIDC   LoginMethod = "oidc"
	LoginMethodCookie LoginMethod = "cookie"
)

// LoginPlan is where the user agent should be sent to sign in.
type LoginPlan struct {
	Method LoginMethod
	URL    string
}

// BuildAuthorizationURL starts a new login attempt. A fresh verifier and state are
// generated and persisted on every call, replacing any attempt already in flight.
func (c *Client) BuildAuthorizationURL() (string, error) {
	pair, err := pkce.Generate()
	if err != nil {
		return "", errors.Wrap(err, "[Client.BuildAuthorizationURL] pkce.Generate")
	}
	state, err := pkce.RandomString(stateLength)
	if err != nil {
		return "", errors.Wrap(err, "[Client.BuildAuthorizationURL] state")
	}
	if err := c.stores.Flow.Begin(pair.Verifier, state); err != nil {
		return "", errors.Wrap(err, "[Client.BuildAuthorizationURL] Flow.Begin")
	}

	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pair.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.MethodS256),
	), nil
}

// IsOIDCAvailable probes the discovery document. Any failure, including a 404 from a
// portal without OIDC, reports false. The advertised issuer is not compared with the
// base URL; only the authorization endpoint matters here.
func (c *Client) IsOIDCAvailable(ctx context.Context) bool {
	ctx = oidc.InsecureIssuerURLContext(oidc.ClientContext(ctx, c.http), c.baseURL)
	provider, err := oidc.NewProvider(ctx, c.baseURL)
	if err != nil {
		log.Debug().Err(err).Str("issuer", c.baseURL).Msg("OIDC discovery unavailable")
		return false
	}
	return provider.Endpoint().AuthURL != ""
}

// StartLogin picks the login path. PKCE material is only generated when the provider
// supports OIDC; otherwise the plan points at the portal's cookie login.
func (c *Client) StartLogin(ctx context.Context) (LoginPlan, error) {
	if c.IsOIDCAvailable(ctx) {
		authURL, err := c.BuildAuthorizationURL()
		if err != nil {
			return LoginPlan{}, err
		}
		c.metrics.IncrementAuth("login", "oidc")
		return LoginPlan{Method: LoginMethodOIDC, URL: authURL}, nil
	}

	if c.identity == nil {
		return LoginPlan{}, errors.New("[Client.StartLogin] OIDC unavailable and no cookie login configured")
	}
	c.metrics.IncrementAuth("login", "cookie")
	return LoginPlan{
		Method: LoginMethodCookie,
		URL:    c.identity.LoginURL(c.cfg.GetPlatform(), c.cfg.GetRedirectURI()),
	}, nil
}
