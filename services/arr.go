package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/media"
	"golang.org/x/sync/errgroup"
)

const (
	arrAPI = "/api/v3"

	// defaultQualityProfileID is used when adding titles.
	defaultQualityProfileID = 1
)

// Arr talks to Radarr (movies) or Sonarr (series). Both share the v3 API shape.
type Arr struct {
	*Client
	mediaType media.MediaType
}

func newArrClient(name string, cfg config.ServiceConfig, options ...Option) *Client {
	c := newClient(name, cfg, options...)
	c.headers.Set("X-Api-Key", c.apiKey)
	return c
}

// NewRadarr creates a Radarr client.
func NewRadarr(cfg config.ServiceConfig, options ...Option) *Arr {
	return &Arr{Client: newArrClient("radarr", cfg, options...), mediaType: media.MediaTypeMovie}
}

// NewSonarr creates a Sonarr client.
func NewSonarr(cfg config.ServiceConfig, options ...Option) *Arr {
	return &Arr{Client: newArrClient("sonarr", cfg, options...), mediaType: media.MediaTypeSeries}
}

// MediaType is the type of title this instance manages.
func (a *Arr) MediaType() media.MediaType { return a.mediaType }

func (a *Arr) resource() string {
	if a.mediaType == media.MediaTypeMovie {
		return "movie"
	}
	return "series"
}

type ratings struct {
	Value float64 `json:"value"`
}

type radarrMovie struct {
	ID               int           `json:"id"`
	Title            string        `json:"title"`
	Year             int           `json:"year"`
	HasFile          bool          `json:"hasFile"`
	Monitored        bool          `json:"monitored"`
	Images           []media.Image `json:"images"`
	Overview         string        `json:"overview"`
	Ratings          ratings       `json:"ratings"`
	Path             string        `json:"path"`
	SizeOnDisk       int64         `json:"sizeOnDisk"`
	Studio           string        `json:"studio"`
	QualityProfileID int           `json:"qualityProfileId"`
}

type seriesStatistics struct {
	PercentOfEpisodes float64 `json:"percentOfEpisodes"`
	SizeOnDisk        int64   `json:"sizeOnDisk"`
	EpisodeCount      int     `json:"episodeCount"`
	EpisodeFileCount  int     `json:"episodeFileCount"`
}

type sonarrSeries struct {
	ID               int              `json:"id"`
	Title            string           `json:"title"`
	Year             int              `json:"year"`
	Images           []media.Image    `json:"images"`
	Overview         string           `json:"overview"`
	Ratings          ratings          `json:"ratings"`
	Path             string           `json:"path"`
	QualityProfileID int              `json:"qualityProfileId"`
	Statistics       seriesStatistics `json:"statistics"`
}

type queuePage struct {
	TotalRecords int           `json:"totalRecords"`
	Records      []queueRecord `json:"records"`
}

type titled struct {
	Title string `json:"title"`
}

type queueRecord struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Size     float64 `json:"size"`
	SizeLeft float64 `json:"sizeleft"`
	TimeLeft string  `json:"timeleft"`
	Status   string  `json:"status"`
	Movie    *titled `json:"movie"`
	Series   *titled `json:"series"`
}

// DiskSpace is one volume reported by the instance.
type DiskSpace struct {
	Path       string `json:"path"`
	Label      string `json:"label"`
	FreeSpace  int64  `json:"freeSpace"`
	TotalSpace int64  `json:"totalSpace"`
}

// LookupResult is a search hit from the metadata lookup. ID is non-zero when the
// title is already in the library.
type LookupResult struct {
	ID             int           `json:"id,omitempty"`
	Title          string        `json:"title"`
	TitleSlug      string        `json:"titleSlug"`
	Year           int           `json:"year"`
	TmdbID         int           `json:"tmdbId,omitempty"`
	TvdbID         int           `json:"tvdbId,omitempty"`
	Overview       string        `json:"overview,omitempty"`
	Images         []media.Image `json:"images,omitempty"`
	Path           string        `json:"path,omitempty"`
	RootFolderPath string        `json:"rootFolderPath,omitempty"`
}

// ArrStats summarises a Radarr or Sonarr instance. Missing counts movies for Radarr
// and episodes for Sonarr.
type ArrStats struct {
	Total      int    `json:"total"`
	Missing    int    `json:"missing"`
	QueueCount int    `json:"queueCount"`
	FreeSpace  string `json:"freeSpace"`
}

// Library lists every title in the instance.
func (a *Arr) Library(ctx context.Context) ([]media.MediaItem, error) {
	if a.mediaType == media.MediaTypeMovie {
		return a.Movies(ctx)
	}
	return a.Series(ctx)
}

// Movies lists Radarr movies. A file on disk is AVAILABLE, a monitored movie without
// one is MISSING and anything else is REQUESTED.
func (a *Arr) Movies(ctx context.Context) ([]media.MediaItem, error) {
	var movies []radarrMovie
	if err := a.getJSON(ctx, arrAPI+"/movie", nil, &movies); err != nil {
		return nil, err
	}

	items := make([]media.MediaItem, 0, len(movies))
	for _, m := range movies {
		id := strconv.Itoa(m.ID)
		status := media.StatusRequested
		switch {
		case m.HasFile:
			status = media.StatusAvailable
		case m.Monitored:
			status = media.StatusMissing
		}
		items = append(items, media.MediaItem{
			ID:             id,
			Title:          m.Title,
			Year:           m.Year,
			Type:           media.MediaTypeMovie,
			Status:         status,
			PosterURL:      media.PosterURL(a.baseURL, a.apiKey, m.Images, id),
			Overview:       m.Overview,
			Rating:         m.Ratings.Value,
			Path:           m.Path,
			Size:           media.FormatGB(m.SizeOnDisk),
			Studio:         m.Studio,
			QualityProfile: fmt.Sprintf("Profile ID: %d", m.QualityProfileID),
		})
	}
	return items, nil
}

// Series lists Sonarr series. Only fully downloaded series are AVAILABLE.
func (a *Arr) Series(ctx context.Context) ([]media.MediaItem, error) {
	var series []sonarrSeries
	if err := a.getJSON(ctx, arrAPI+"/series", nil, &series); err != nil {
		return nil, err
	}

	items := make([]media.MediaItem, 0, len(series))
	for _, s := range series {
		id := strconv.Itoa(s.ID)
		status := media.StatusMissing
		if s.Statistics.PercentOfEpisodes == 100 {
			status = media.StatusAvailable
		}
		items = append(items, media.MediaItem{
			ID:             id,
			Title:          s.Title,
			Year:           s.Year,
			Type:           media.MediaTypeSeries,
			Status:         status,
			PosterURL:      media.PosterURL(a.baseURL, a.apiKey, s.Images, id),
			Overview:       s.Overview,
			Rating:         s.Ratings.Value,
			Path:           s.Path,
			Size:           media.FormatGB(s.Statistics.SizeOnDisk),
			QualityProfile: fmt.Sprintf("Profile ID: %d", s.QualityProfileID),
		})
	}
	return items, nil
}

// Queue lists the instance's download queue.
func (a *Arr) Queue(ctx context.Context) ([]media.QueueItem, error) {
	page, err := a.queuePage(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]media.QueueItem, 0, len(page.Records))
	for _, q := range page.Records {
		title := q.Title
		if q.Movie != nil && a.mediaType == media.MediaTypeMovie {
			title = q.Movie.Title
		}
		if q.Series != nil && a.mediaType == media.MediaTypeSeries {
			title = q.Series.Title
		}
		items = append(items, media.QueueItem{
			ID:       strconv.Itoa(q.ID),
			Title:    title,
			Size:     media.FormatGB(int64(q.Size)),
			TimeLeft: q.TimeLeft,
			Status:   media.QueueStatusFrom(q.Status),
			Speed:    "Unknown",
			Progress: queueProgress(q.Size, q.SizeLeft),
		})
	}
	return items, nil
}

// queueProgress is the downloaded percentage, 0 when the size is unknown.
func queueProgress(size, left float64) float64 {
	if size == 0 {
		return 0
	}
	return 100 - left/size*100
}

func (a *Arr) queuePage(ctx context.Context) (*queuePage, error) {
	var page queuePage
	if err := a.getJSON(ctx, arrAPI+"/queue", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DiskSpace lists the instance's volumes.
func (a *Arr) DiskSpace(ctx context.Context) ([]DiskSpace, error) {
	var disks []DiskSpace
	if err := a.getJSON(ctx, arrAPI+"/diskspace", nil, &disks); err != nil {
		return nil, err
	}
	return disks, nil
}

// Lookup searches the metadata provider for term.
func (a *Arr) Lookup(ctx context.Context, term string) ([]LookupResult, error) {
	var results []LookupResult
	if err := a.getJSON(ctx, arrAPI+"/"+a.resource()+"/lookup", url.Values{"term": {term}}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

type addOptions struct {
	SearchForMovie           bool `json:"searchForMovie,omitempty"`
	SearchForMissingEpisodes bool `json:"searchForMissingEpisodes,omitempty"`
}

type addRequest struct {
	Title            string     `json:"title"`
	QualityProfileID int        `json:"qualityProfileId"`
	TitleSlug        string     `json:"titleSlug"`
	TmdbID           int        `json:"tmdbId,omitempty"`
	TvdbID           int        `json:"tvdbId,omitempty"`
	RootFolderPath   string     `json:"rootFolderPath"`
	Monitored        bool       `json:"monitored"`
	AddOptions       addOptions `json:"addOptions"`
}

// Add adds a lookup result to the library, monitored, and starts a search for it.
func (a *Arr) Add(ctx context.Context, item LookupResult) error {
	req := addRequest{
		Title:            item.Title,
		QualityProfileID: defaultQualityProfileID,
		TitleSlug:        item.TitleSlug,
		RootFolderPath:   item.RootFolderPath,
		Monitored:        true,
	}
	if req.RootFolderPath == "" {
		req.RootFolderPath = item.Path
	}
	if a.mediaType == media.MediaTypeMovie {
		req.TmdbID = item.TmdbID
		req.AddOptions.SearchForMovie = true
	} else {
		req.TvdbID = item.TvdbID
		req.AddOptions.SearchForMissingEpisodes = true
	}
	return a.do(ctx, http.MethodPost, arrAPI+"/"+a.resource(), nil, req, nil)
}

// Delete removes a title and its files.
func (a *Arr) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, arrAPI+"/"+a.resource()+"/"+url.PathEscape(id), url.Values{"deleteFiles": {"true"}}, nil, nil)
}

// Stats fetches the library, queue and disks in parallel.
func (a *Arr) Stats(ctx context.Context) (*ArrStats, error) {
	var (
		stats ArrStats
		queue *queuePage
		disks []DiskSpace
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Total, stats.Missing, err = a.libraryCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		queue, err = a.queuePage(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		disks, err = a.DiskSpace(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.QueueCount = queue.TotalRecords
	stats.FreeSpace = "N/A"
	if len(disks) > 0 {
		stats.FreeSpace = media.FormatFreeSpace(disks[0].FreeSpace)
	}
	return &stats, nil
}

func (a *Arr) libraryCounts(ctx context.Context) (total, missing int, err error) {
	if a.mediaType == media.MediaTypeMovie {
		var movies []radarrMovie
		if err := a.getJSON(ctx, arrAPI+"/movie", nil, &movies); err != nil {
			return 0, 0, err
		}
		for _, m := range movies {
			if !m.HasFile && m.Monitored {
				missing++
			}
		}
		return len(movies), missing, nil
	}

	var series []sonarrSeries
	if err := a.getJSON(ctx, arrAPI+"/series", nil, &series); err != nil {
		return 0, 0, err
	}
	for _, s := range series {
		missing += s.Statistics.EpisodeCount - s.Statistics.EpisodeFileCount
	}
	return len(series), missing, nil
}
