package auth

import (
	"context"

	"github.com/jrsteele09/dashboarrd/token"
	"github.com/jrsteele09/dashboarrd/users"
	"github.com/rs/zerolog/log"
)

// Status is the outcome of a session check.
type Status struct {
	Authenticated bool
	User          *users.User
}

// CheckStatus resolves the session in order: unexpired tokens, a refresh of expired
// tokens, the provider's cookie session, and finally unauthenticated. It never fails;
// every error along the way moves on to the next step.
func (c *Client) CheckStatus(ctx context.Context) Status {
	tokens, err := c.stores.Tokens.Load()
	if err != nil {
		log.Err(err).Msg("[Client.CheckStatus] Tokens.Load")
		tokens = nil
	}

	if tokens != nil {
		if user := c.userFromStoredTokens(ctx, tokens); user != nil {
			return Status{Authenticated: true, User: user}
		}
	}

	if c.identity != nil {
		user, err := c.identity.UserInfo(ctx)
		if err == nil && user != nil {
			c.metrics.IncrementAuth("status", "cookie")
			return Status{Authenticated: true, User: user}
		}
		log.Debug().Err(err).Msg("no provider cookie session")
	}

	c.metrics.IncrementAuth("status", "unauthenticated")
	return Status{}
}

func (c *Client) userFromStoredTokens(ctx context.Context, tokens *token.Tokens) *users.User {
	if !tokens.ExpiredAt(c.nowTime(), token.ExpiryBuffer) {
		user, err := userFromTokens(tokens)
		if err != nil {
			log.Warn().Err(err).Msg("stored id token unreadable")
			return nil
		}
		c.metrics.IncrementAuth("status", "tokens")
		return user
	}

	refreshed, err := c.Refresh(ctx)
	if err != nil {
		log.Info().Err(err).Msg("session refresh failed, falling back")
		return nil
	}
	user, err := userFromTokens(refreshed)
	if err != nil {
		log.Warn().Err(err).Msg("refreshed id token unreadable")
		return nil
	}
	c.metrics.IncrementAuth("status", "refreshed")
	return user
}

// CurrentUser returns the user from the stored ID token, or nil. Expiry is not
// checked.
func (c *Client) CurrentUser() *users.User {
	tokens, err := c.stores.Tokens.Load()
	if err != nil || tokens == nil {
		return nil
	}
	user, err := userFromTokens(tokens)
	if err != nil {
		return nil
	}
	return user
}
