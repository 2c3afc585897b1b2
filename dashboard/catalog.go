package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/media"
	"github.com/jrsteele09/dashboarrd/services"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownMediaType = errors.New("unknown media type")
	ErrAlreadyInLibrary = errors.New("title already in library")
	ErrNoMatch          = errors.New("no matching title")
)

// ParseMediaType reads a media type from a command argument: movie, series or tv.
func ParseMediaType(s string) (media.MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return media.MediaTypeMovie, nil
	case "series", "tv", "show":
		return media.MediaTypeSeries, nil
	}
	return "", errors.Wrapf(ErrUnknownMediaType, "%q", s)
}

// arr picks Radarr for movies and Sonarr for series.
func (d *Dashboard) arr(mediaType media.MediaType) (*services.Arr, error) {
	var a *services.Arr
	switch mediaType {
	case media.MediaTypeMovie:
		a = d.svc.Radarr
	case media.MediaTypeSeries:
		a = d.svc.Sonarr
	default:
		return nil, errors.Wrapf(ErrUnknownMediaType, "%q", mediaType)
	}
	if a == nil {
		return nil, services.ErrServiceDisabled
	}
	return a, nil
}

// Lookup searches the Radarr or Sonarr metadata provider.
func (d *Dashboard) Lookup(ctx context.Context, mediaType media.MediaType, term string) ([]services.LookupResult, error) {
	a, err := d.arr(mediaType)
	if err != nil {
		return nil, err
	}
	return a.Lookup(ctx, term)
}

// Add looks term up and adds the result at index. Titles already in the library are
// refused.
func (d *Dashboard) Add(ctx context.Context, mediaType media.MediaType, term string, index int) (*services.LookupResult, error) {
	results, err := d.Lookup(ctx, mediaType, term)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(results) {
		return nil, errors.Wrapf(ErrNoMatch, "%q result %d of %d", term, index, len(results))
	}
	item := results[index]
	if item.ID != 0 {
		return nil, errors.Wrapf(ErrAlreadyInLibrary, "%s (%d)", item.Title, item.Year)
	}

	a, _ := d.arr(mediaType)
	if err := a.Add(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a library title and its files.
func (d *Dashboard) Delete(ctx context.Context, mediaType media.MediaType, id string) error {
	a, err := d.arr(mediaType)
	if err != nil {
		return err
	}
	return a.Delete(ctx, id)
}

// Search finds requestable movies and series through Jellyseerr. People are dropped.
func (d *Dashboard) Search(ctx context.Context, query string) ([]services.SearchResult, error) {
	if d.svc.Jellyseerr == nil {
		return nil, services.ErrServiceDisabled
	}
	results, err := d.svc.Jellyseerr.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	titles := results[:0]
	for _, r := range results {
		if r.MediaType == "movie" || r.MediaType == "tv" {
			titles = append(titles, r)
		}
	}
	return titles, nil
}

// Request asks Jellyseerr for the title with the given TMDB id.
func (d *Dashboard) Request(ctx context.Context, mediaType media.MediaType, tmdbID, tvdbID int) error {
	if d.svc.Jellyseerr == nil {
		return services.ErrServiceDisabled
	}
	if mediaType != media.MediaTypeMovie && mediaType != media.MediaTypeSeries {
		return errors.Wrapf(ErrUnknownMediaType, "%q", mediaType)
	}
	return d.svc.Jellyseerr.Request(ctx, services.SearchResult{TmdbID: tmdbID, TvdbID: tvdbID}, mediaType)
}

// Connection is the result of probing one configured service.
type Connection struct {
	Service   string `json:"service"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
}

// CheckConnections probes the status endpoint of every service that has a URL,
// whether or not it is enabled.
func CheckConnections(ctx context.Context, cfg config.ServicesConfig, options ...services.Option) []Connection {
	probes := []struct {
		name string
		kind services.Kind
		cfg  config.ServiceConfig
	}{
		{"radarr", services.KindArr, cfg.GetRadarr()},
		{"sonarr", services.KindArr, cfg.GetSonarr()},
		{"sabnzbd", services.KindSabnzbd, cfg.GetSabnzbd()},
		{"jellyfin", services.KindJellyfin, cfg.GetJellyfin()},
		{"jellyseerr", services.KindJellyseerr, cfg.GetJellyseerr()},
	}

	conns := make([]Connection, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probes {
		conns[i] = Connection{Service: p.name, URL: services.NormalizeBaseURL(p.cfg.URL), Enabled: p.cfg.Enabled}
		if p.cfg.URL == "" {
			continue
		}
		g.Go(func() error {
			conns[i].Connected = services.TestConnection(gctx, p.kind, p.cfg, options...)
			return nil
		})
	}
	_ = g.Wait()
	return conns
}

func (c Connection) String() string {
	state := "unreachable"
	switch {
	case c.URL == "":
		state = "not configured"
	case c.Connected:
		state = "ok"
	}
	if c.URL != "" && !c.Enabled {
		state += " (disabled)"
	}
	return fmt.Sprintf("%-11s %-15s %s", c.Service, state, c.URL)
}
