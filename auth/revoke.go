package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Revoke asks the provider to revoke the access token, then clears local auth state
// whatever the outcome.
func (c *Client) Revoke(ctx context.Context) {
	tokens, err := c.stores.Tokens.Load()
	if err != nil {
		log.Err(err).Msg("[Client.Revoke] Tokens.Load")
	}
	if tokens != nil && tokens.AccessToken != "" {
		if err := c.postRevocation(ctx, tokens.AccessToken); err != nil {
			c.metrics.IncrementAuth("revoke", "failed")
			log.Warn().Err(err).Msg("token revocation failed")
		} else {
			c.metrics.IncrementAuth("revoke", "ok")
		}
	}

	c.clearTokens("[Client.Revoke]")
	if err := c.stores.Flow.Clear(); err != nil {
		log.Err(err).Msg("[Client.Revoke] Flow.Clear")
	}
}

func (c *Client) postRevocation(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("client_id", c.cfg.GetClientID())
	form.Set("token", accessToken)
	form.Set("token_type_hint", "access_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+revocationPath, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[Client.postRevocation] NewRequest")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Logout revokes the tokens and ends the provider's cookie session.
func (c *Client) Logout(ctx context.Context) {
	c.Revoke(ctx)
	if c.identity != nil {
		c.identity.Logout(ctx)
	}
}
