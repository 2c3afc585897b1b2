package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/dashboarrd/auth"
	"github.com/jrsteele09/dashboarrd/authflow"
	"github.com/jrsteele09/dashboarrd/identity"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/internal/testutil"
	"github.com/jrsteele09/dashboarrd/kvstore"
	"github.com/jrsteele09/dashboarrd/token"
	"github.com/jrsteele09/dashboarrd/users"
	"github.com/stretchr/testify/require"
)

// fakeIdP serves the provider endpoints the client talks to.
type fakeIdP struct {
	srv *httptest.Server

	discovery     bool
	issuer        string
	tokenStatus   int
	tokenBody     map[string]any
	refreshStatus int
	refreshBody   map[string]any
	refreshGate   chan struct{}
	refreshEnter  chan struct{}
	revokeStatus  int

	tokenCalls   atomic.Int32
	refreshCalls atomic.Int32
	revokeCalls  atomic.Int32

	mu          sync.Mutex
	lastToken   url.Values
	lastRefresh url.Values
	lastRevoke  url.Values
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	idp := &fakeIdP{
		discovery:     true,
		tokenStatus:   http.StatusOK,
		refreshStatus: http.StatusOK,
		revokeStatus:  http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		if !idp.discovery {
			http.NotFound(w, r)
			return
		}
		issuer := idp.srv.URL
		if idp.issuer != "" {
			issuer = idp.issuer
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                                issuer,
			"authorization_endpoint":                idp.srv.URL + "/api/oidc/authorization",
			"token_endpoint":                        idp.srv.URL + "/api/oidc/token",
			"revocation_endpoint":                   idp.srv.URL + "/api/oidc/revocation",
			"jwks_uri":                              idp.srv.URL + "/jwks.json",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("POST /api/oidc/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		idp.mu.Lock()
		defer idp.mu.Unlock()

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			idp.tokenCalls.Add(1)
			idp.lastToken = r.PostForm
			writeJSON(w, idp.tokenStatus, idp.tokenBody)
		case "refresh_token":
			idp.refreshCalls.Add(1)
			idp.lastRefresh = r.PostForm
			if idp.refreshEnter != nil {
				close(idp.refreshEnter)
				idp.refreshEnter = nil
				idp.mu.Unlock()
				<-idp.refreshGate
				idp.mu.Lock()
			}
			writeJSON(w, idp.refreshStatus, idp.refreshBody)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		}
	})
	mux.HandleFunc("POST /api/oidc/revocation", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		idp.revokeCalls.Add(1)
		idp.mu.Lock()
		idp.lastRevoke = r.PostForm
		idp.mu.Unlock()
		w.WriteHeader(idp.revokeStatus)
	})

	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)
	return idp
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// fakeIdentity stands in for the provider's cookie session.
type fakeIdentity struct {
	user    *users.User
	calls   atomic.Int32
	logouts atomic.Int32
}

func (f *fakeIdentity) UserInfo(context.Context) (*users.User, error) {
	f.calls.Add(1)
	if f.user == nil {
		return nil, identity.ErrNotAuthenticated
	}
	return f.user, nil
}

func (f *fakeIdentity) LoginURL(platform config.Platform, returnURL string) string {
	return "https://portal.example/?rd=" + url.QueryEscape(returnURL)
}

func (f *fakeIdentity) Logout(context.Context) {
	f.logouts.Add(1)
}

type testFixture struct {
	idp      *fakeIdP
	identity *fakeIdentity
	tokens   *token.Store
	flow     *authflow.Store
	client   *auth.Client
	now      time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		idp:      newFakeIdP(t),
		identity: &fakeIdentity{},
		now:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}

	cfg := config.Defaults()
	cfg.Auth.AutheliaURL = f.idp.srv.URL
	cfg.Auth.Platform = config.PlatformWeb

	kv := kvstore.NewMemoryStore()
	f.tokens = token.NewStore(kv)
	f.flow = authflow.NewStore(kv)

	client, err := auth.NewClient(cfg, auth.Stores{Tokens: f.tokens, Flow: f.flow}, f.identity,
		auth.WithNowTime(func() time.Time { return f.now }),
		auth.WithHTTPClient(f.idp.srv.Client()),
	)
	require.NoError(t, err)
	f.client = client
	return f
}

func (f *testFixture) idToken(t *testing.T, username string, groups ...string) string {
	t.Helper()
	if groups == nil {
		groups = []string{}
	}
	return testutil.IDToken(t, map[string]any{
		"sub":                "sub-" + username,
		"preferred_username": username,
		"name":               username + " display",
		"email":              username + "@example.com",
		"groups":             groups,
	})
}

// storeTokens persists a triple expiring in ttl from the fixture clock.
func (f *testFixture) storeTokens(t *testing.T, idToken string, refresh string, ttl time.Duration) {
	t.Helper()
	require.NoError(t, f.tokens.Save(token.Tokens{
		AccessToken:  "access-1",
		IDToken:      idToken,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    f.now.Add(ttl),
	}))
}
