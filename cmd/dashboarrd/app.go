package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jrsteele09/dashboarrd/auth"
	"github.com/jrsteele09/dashboarrd/authflow"
	"github.com/jrsteele09/dashboarrd/dashboard"
	"github.com/jrsteele09/dashboarrd/identity"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/internal/metrics"
	"github.com/jrsteele09/dashboarrd/kvstore"
	"github.com/jrsteele09/dashboarrd/services"
	"github.com/jrsteele09/dashboarrd/token"
	"github.com/jrsteele09/dashboarrd/updates"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// app holds the wired clients for one CLI invocation.
type app struct {
	cfg      *config.Settings
	db       *kvstore.BuntStore
	kv       kvstore.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	identity *identity.Client
	sessions *identity.SessionStore
	auth     *auth.Client
}

func newApp(cfg *config.Settings) (*app, error) {
	if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
		return nil, fmt.Errorf("create data folder: %w", err)
	}
	db, err := kvstore.OpenBuntStore(cfg.GetStoragePath())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, db: db, kv: db, registry: prometheus.NewRegistry()}
	if pass := cfg.GetStoragePassphrase(); pass != "" {
		sealed, err := kvstore.NewSealedStore(db, pass)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.kv = sealed
	}
	a.metrics = metrics.New(a.registry)

	a.identity, err = identity.NewClient(cfg.GetAutheliaURL(), nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.sessions = identity.NewSessionStore(a.kv)
	if err := a.sessions.Restore(a.identity); err != nil {
		log.Warn().Err(err).Msg("could not restore provider session")
	}

	a.auth, err = auth.NewClient(cfg,
		auth.Stores{Tokens: token.NewStore(a.kv), Flow: authflow.NewStore(a.kv)},
		a.identity,
		auth.WithMetrics(a.metrics),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Err(err).Msg("closing store")
	}
}

func (a *app) dashboardClient() (*dashboard.Dashboard, error) {
	deviceID, err := services.DeviceID(a.kv)
	if err != nil {
		return nil, err
	}
	return dashboard.New(dashboard.NewServices(a.cfg, deviceID, services.WithMetrics(a.metrics))), nil
}

func (a *app) updateChecker() *updates.Checker {
	return updates.NewChecker(a.cfg)
}

func (a *app) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go listenAndServe(srv)
	return srv
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("metrics listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("server.ListenAndServe")
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Err(err).Msg("server.Shutdown")
	}
}
