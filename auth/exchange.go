package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/dashboarrd/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const refreshFlightKey = "refresh"

// ExchangeCode trades an authorization code for tokens. The stored verifier is
// removed before the request is made, so a code can be tried at most once. A failed
// exchange clears any tokens left from an earlier session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*token.Tokens, error) {
	verifier, err := c.stores.Flow.ConsumeVerifier()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ExchangeCode] Flow.ConsumeVerifier")
	}
	if verifier == "" {
		c.metrics.IncrementAuth("exchange", "missing_verifier")
		return nil, ErrMissingVerifier
	}

	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		c.metrics.IncrementAuth("exchange", "failed")
		c.clearTokens("[Client.ExchangeCode]")
		err = fmt.Errorf("%w: %w", ErrTokenExchangeFailed, classify(err))
		log.Warn().Err(err).Msg("authorization code exchange failed")
		return nil, err
	}

	tokens := c.tokensFrom(tok)
	if err := c.stores.Tokens.Save(tokens); err != nil {
		return nil, errors.Wrap(err, "[Client.ExchangeCode] Tokens.Save")
	}
	c.metrics.IncrementAuth("exchange", "ok")
	return &tokens, nil
}

// Refresh renews the stored tokens with the refresh grant. Concurrent callers share
// one request. On any failure the stored tokens are cleared.
func (c *Client) Refresh(ctx context.Context) (*token.Tokens, error) {
	v, err, _ := c.refresh.Do(refreshFlightKey, func() (interface{}, error) {
		return c.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*token.Tokens), nil
}

func (c *Client) doRefresh(ctx context.Context) (*token.Tokens, error) {
	current, err := c.stores.Tokens.Load()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh] Tokens.Load")
	}
	if !current.HasRefreshToken() {
		c.metrics.IncrementAuth("refresh", "no_refresh_token")
		if current != nil {
			c.clearTokens("[Client.Refresh]")
		}
		return nil, ErrNoRefreshToken
	}

	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		c.metrics.IncrementAuth("refresh", "failed")
		c.clearTokens("[Client.Refresh]")
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, classify(err))
		log.Warn().Err(err).Msg("token refresh failed")
		return nil, err
	}

	merged := current.Merge(c.tokensFrom(tok))
	if err := c.stores.Tokens.Save(merged); err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh] Tokens.Save")
	}
	c.metrics.IncrementAuth("refresh", "ok")
	return &merged, nil
}

func (c *Client) clearTokens(caller string) {
	if err := c.stores.Tokens.Clear(); err != nil {
		log.Err(err).Msg(caller + " Tokens.Clear")
	}
}

// tokensFrom converts a token endpoint response into the stored triple.
func (c *Client) tokensFrom(tok *oauth2.Token) token.Tokens {
	idToken, _ := tok.Extra("id_token").(string)
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = token.DefaultTokenType
	}
	return token.Tokens{
		AccessToken:  tok.AccessToken,
		IDToken:      idToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    token.ExpiresAtFrom(c.nowTime(), expiresIn(tok)),
	}
}

// expiresIn reads expires_in from the raw response. Zero means the server omitted it.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// classify turns an x/oauth2 failure into a ServerError or an ErrNetwork wrap.
func classify(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		se := &ServerError{
			Code:        re.ErrorCode,
			Description: re.ErrorDescription,
			Body:        strings.TrimSpace(string(re.Body)),
		}
		if re.Response != nil {
			se.StatusCode = re.Response.StatusCode
		}
		return se
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
