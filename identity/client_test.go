package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/dashboarrd/identity"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/stretchr/testify/require"
)

const validCookie = "valid-session"

func newIdentityServer(t *testing.T, body string, logouts *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/info", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(identity.SessionCookieName)
		if err != nil || c.Value != validCookie {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		logouts.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUserInfo(t *testing.T) {
	var logouts atomic.Int32

	t.Run("bare object", func(t *testing.T) {
		srv := newIdentityServer(t, `{"username":"alice","display_name":"Alice","email":"a@example.com","groups":["misterobots"]}`, &logouts)
		c, err := identity.NewClient(srv.URL, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetSessionCookie(validCookie))

		u, err := c.UserInfo(context.Background())
		require.NoError(t, err)
		require.Equal(t, "alice", u.Username)
		require.Equal(t, "Alice", u.DisplayName)
		require.True(t, u.IsAdmin)
	})

	t.Run("status envelope", func(t *testing.T) {
		srv := newIdentityServer(t, `{"status":"OK","data":{"username":"bob","emails":["b@example.com"],"groups":[]}}`, &logouts)
		c, err := identity.NewClient(srv.URL, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetSessionCookie(validCookie))

		u, err := c.UserInfo(context.Background())
		require.NoError(t, err)
		require.Equal(t, "bob", u.Username)
		require.Equal(t, "b@example.com", u.Email)
		require.False(t, u.IsAdmin)
	})

	t.Run("no cookie", func(t *testing.T) {
		srv := newIdentityServer(t, `{"username":"alice"}`, &logouts)
		c, err := identity.NewClient(srv.URL, nil)
		require.NoError(t, err)

		_, err = c.UserInfo(context.Background())
		require.ErrorIs(t, err, identity.ErrNotAuthenticated)
	})

	t.Run("2xx without username", func(t *testing.T) {
		srv := newIdentityServer(t, `{}`, &logouts)
		c, err := identity.NewClient(srv.URL, nil)
		require.NoError(t, err)
		require.NoError(t, c.SetSessionCookie(validCookie))

		_, err = c.UserInfo(context.Background())
		require.ErrorIs(t, err, identity.ErrNotAuthenticated)
	})

	t.Run("unreachable", func(t *testing.T) {
		c, err := identity.NewClient("http://127.0.0.1:1", nil)
		require.NoError(t, err)
		_, err = c.UserInfo(context.Background())
		require.Error(t, err)
	})
}

func TestLogout(t *testing.T) {
	var logouts atomic.Int32
	srv := newIdentityServer(t, `{}`, &logouts)
	c, err := identity.NewClient(srv.URL+"/", nil)
	require.NoError(t, err)

	c.Logout(context.Background())
	require.Equal(t, int32(1), logouts.Load())
	require.Equal(t, srv.URL+"/logout", c.LogoutURL())
}

func TestLoginURL(t *testing.T) {
	c, err := identity.NewClient("https://auth.example.com", nil)
	require.NoError(t, err)

	require.Equal(t, "https://auth.example.com", c.LoginURL(config.PlatformNative, "http://localhost/app"))
	require.Equal(t, "https://auth.example.com/?rd=http%3A%2F%2Flocalhost%2Fapp", c.LoginURL(config.PlatformWeb, "http://localhost/app"))
	require.Equal(t, "https://auth.example.com", c.LoginURL(config.PlatformWeb, ""))
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := identity.NewClient("", nil)
	require.Error(t, err)
}
