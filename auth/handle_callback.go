package auth

import (
	"context"

	"github.com/jrsteele09/dashboarrd/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// HandleCallback completes a login from the redirect parameters. A supplied state must
// match the stored one byte for byte; on mismatch the attempt is discarded and the
// token endpoint is never called.
func (c *Client) HandleCallback(ctx context.Context, code, state string) (*users.User, error) {
	if state != "" {
		stored, err := c.stores.Flow.State()
		if err != nil {
			return nil, errors.Wrap(err, "[Client.HandleCallback] Flow.State")
		}
		if stored != state {
			c.metrics.IncrementAuth("callback", "state_mismatch")
			log.Warn().Bool("stored_state", stored != "").Msg("callback state mismatch, discarding login attempt")
			if err := c.stores.Flow.Clear(); err != nil {
				log.Err(err).Msg("[Client.HandleCallback] Flow.Clear")
			}
			return nil, ErrStateMismatch
		}
	}
	if err := c.stores.Flow.ClearState(); err != nil {
		return nil, errors.Wrap(err, "[Client.HandleCallback] Flow.ClearState")
	}

	tokens, err := c.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := userFromTokens(tokens)
	if err != nil {
		log.Warn().Err(err).Msg("tokens issued with an unreadable id token")
		return nil, err
	}
	c.metrics.IncrementAuth("callback", "ok")
	return user, nil
}
