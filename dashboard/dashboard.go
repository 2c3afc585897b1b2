// Package dashboard gathers the per-service summaries shown on the home screen.
package dashboard

import (
	"context"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/media"
	"github.com/jrsteele09/dashboarrd/services"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Summary is one dashboard load. A nil section means the service is disabled or
// could not be reached.
type Summary struct {
	Radarr     *services.ArrStats       `json:"radarr,omitempty"`
	Sonarr     *services.ArrStats       `json:"sonarr,omitempty"`
	Sabnzbd    *services.SabStatus      `json:"sabnzbd,omitempty"`
	Jellyfin   *services.JellyfinStatus `json:"jellyfin,omitempty"`
	Jellyseerr *services.RequestStats   `json:"jellyseerr,omitempty"`
	Queue      []media.QueueItem        `json:"queue"`
}

// Services is the set of clients the dashboard reads from.
type Services struct {
	Radarr     *services.Arr
	Sonarr     *services.Arr
	Sabnzbd    *services.Sabnzbd
	Jellyfin   *services.Jellyfin
	Jellyseerr *services.Jellyseerr
}

// NewServices builds every client from cfg.
func NewServices(cfg config.ServicesConfig, jellyfinDeviceID string, options ...services.Option) Services {
	return Services{
		Radarr:     services.NewRadarr(cfg.GetRadarr(), options...),
		Sonarr:     services.NewSonarr(cfg.GetSonarr(), options...),
		Sabnzbd:    services.NewSabnzbd(cfg.GetSabnzbd(), options...),
		Jellyfin:   services.NewJellyfin(cfg.GetJellyfin(), jellyfinDeviceID, options...),
		Jellyseerr: services.NewJellyseerr(cfg.GetJellyseerr(), options...),
	}
}

type Dashboard struct {
	svc Services
}

func New(svc Services) *Dashboard {
	return &Dashboard{svc: svc}
}

// Load fetches every enabled service concurrently. Failures are logged and leave
// their section empty; Load itself only fails when ctx is cancelled.
func (d *Dashboard) Load(ctx context.Context) (*Summary, error) {
	var (
		sum                    Summary
		radarrQ, sonarrQ, sabQ []media.QueueItem
	)

	g, gctx := errgroup.WithContext(ctx)
	section(gctx, g, "radarr", d.svc.Radarr != nil && d.svc.Radarr.Enabled(), func(ctx context.Context) error {
		var err error
		sum.Radarr, err = d.svc.Radarr.Stats(ctx)
		if err == nil {
			radarrQ, err = d.svc.Radarr.Queue(ctx)
		}
		return err
	})
	section(gctx, g, "sonarr", d.svc.Sonarr != nil && d.svc.Sonarr.Enabled(), func(ctx context.Context) error {
		var err error
		sum.Sonarr, err = d.svc.Sonarr.Stats(ctx)
		if err == nil {
			sonarrQ, err = d.svc.Sonarr.Queue(ctx)
		}
		return err
	})
	section(gctx, g, "sabnzbd", d.svc.Sabnzbd != nil && d.svc.Sabnzbd.Enabled(), func(ctx context.Context) error {
		var err error
		sum.Sabnzbd, err = d.svc.Sabnzbd.Status(ctx)
		if err == nil {
			sabQ, err = d.svc.Sabnzbd.Queue(ctx)
		}
		return err
	})
	section(gctx, g, "jellyfin", d.svc.Jellyfin != nil && d.svc.Jellyfin.Enabled(), func(ctx context.Context) error {
		var err error
		sum.Jellyfin, err = d.svc.Jellyfin.Status(ctx)
		return err
	})
	section(gctx, g, "jellyseerr", d.svc.Jellyseerr != nil && d.svc.Jellyseerr.Enabled(), func(ctx context.Context) error {
		var err error
		sum.Jellyseerr, err = d.svc.Jellyseerr.Stats(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum.Queue = make([]media.QueueItem, 0, len(sabQ)+len(radarrQ)+len(sonarrQ))
	sum.Queue = append(sum.Queue, sabQ...)
	sum.Queue = append(sum.Queue, radarrQ...)
	sum.Queue = append(sum.Queue, sonarrQ...)
	return &sum, nil
}

// section runs fetch when the service is enabled. Its error is logged, never
// returned, so one service cannot fail the dashboard.
func section(ctx context.Context, g *errgroup.Group, name string, enabled bool, fetch func(context.Context) error) {
	if !enabled {
		return
	}
	g.Go(func() error {
		if err := fetch(ctx); err != nil {
			log.Warn().Err(err).Str("service", name).Msg("dashboard section unavailable")
		}
		return nil
	})
}
