// Package callback captures the identity provider's redirect on a loopback listener.
package callback

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Result holds the parameters the provider appended to the redirect URI.
type Result struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Err reports an authorization error carried by the redirect.
func (r Result) Err() error {
	if r.Error == "" {
		return nil
	}
	if r.ErrorDescription == "" {
		return fmt.Errorf("authorization failed: %s", r.Error)
	}
	return fmt.Errorf("authorization failed: %s - %s", r.Error, r.ErrorDescription)
}

// ParseRedirect reads a Result from a full redirect URL, e.g. a native
// dashboarrd://auth/callback?code=...&state=... deep link.
func ParseRedirect(rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, errors.Wrap(err, "[ParseRedirect] url.Parse")
	}
	q := u.Query()
	res := Result{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
	if res.Code == "" && res.Error == "" {
		return Result{}, errors.New("[ParseRedirect] redirect carries neither code nor error")
	}
	return res, nil
}

type Server struct {
	env        string // Environment (e.g., "development", "production")
	router     chi.Router
	routes     []string
	listenAddr string
	path       string

	results chan Result
	once    sync.Once

	httpServer *http.Server
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithEnv sets the environment name. Routes and requests are logged in DEV.
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

// WithListenAddr overrides the address derived from the redirect URI, for example
// "127.0.0.1:0" in tests.
func WithListenAddr(addr string) Option {
	return func(s *Server) {
		s.listenAddr = addr
	}
}

// New creates a listener for redirectURI, which must point at a loopback host.
func New(redirectURI string, options ...Option) (*Server, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, errors.Wrap(err, "[callback.New] redirect URI")
	}
	if u.Scheme != "http" {
		return nil, errors.New("[callback.New] redirect URI must use http")
	}
	if !isLoopback(u.Hostname()) {
		return nil, errors.New("[callback.New] redirect URI must point at a loopback host")
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &Server{
		router:     chi.NewRouter(),
		listenAddr: net.JoinHostPort(u.Hostname(), port),
		path:       path,
		results:    make(chan Result, 1),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	s.router.MethodFunc(method, pattern, handler)
}

// Start begins listening. The listener is released by Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return errors.Wrap(err, "[Server.Start] net.Listen")
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("callback listener stopped")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Str("path", s.path).Msg("waiting for login redirect")
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listenAddr
	}
	return s.listener.Addr().String()
}

// Wait blocks until the first redirect is captured or ctx ends.
func (s *Server) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-s.results:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		logRoute(parts[0], parts[1])
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}
