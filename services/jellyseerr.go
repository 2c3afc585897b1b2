package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/media"
)

const (
	jellyseerrAPI = "/api/v1"
	tmdbPosterURL = "https://image.tmdb.org/t/p/w500"

	// statsPageSize is how many recent requests the stats are computed over.
	statsPageSize = 100
)

// Jellyseerr media request states.
const (
	RequestPending    = 1
	RequestApproved   = 2
	RequestProcessing = 3
)

// Jellyseerr talks to the Jellyseerr request manager.
type Jellyseerr struct {
	*Client
}

// NewJellyseerr creates a Jellyseerr client.
func NewJellyseerr(cfg config.ServiceConfig, options ...Option) *Jellyseerr {
	c := newClient("jellyseerr", cfg, options...)
	c.headers.Set("X-Api-Key", c.apiKey)
	return &Jellyseerr{Client: c}
}

type searchHit struct {
	ID           int    `json:"id"`
	MediaType    string `json:"mediaType"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"releaseDate"`
	FirstAirDate string `json:"firstAirDate"`
	PosterPath   string `json:"posterPath"`
	Overview     string `json:"overview"`
	MediaInfo    *struct {
		Status int `json:"status"`
	} `json:"mediaInfo"`
}

// SearchResult is a title found through Jellyseerr. Added is true once the title is
// processing or available.
type SearchResult struct {
	TmdbID    int    `json:"tmdbId"`
	TvdbID    int    `json:"tvdbId,omitempty"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	PosterURL string `json:"posterUrl"`
	Overview  string `json:"overview,omitempty"`
	Added     bool   `json:"added"`
	MediaType string `json:"mediaType"` // movie, tv or person
}

// RequestStats counts recent requests by state.
type RequestStats struct {
	Pending    int `json:"pendingRequests"`
	Approved   int `json:"approvedRequests"`
	Processing int `json:"processingRequests"`
	Available  int `json:"availableRequests"`
}

// yearOf reads the year from an ISO date, 0 when absent.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Search finds movies and series matching query.
func (j *Jellyseerr) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var resp struct {
		Results []searchHit `json:"results"`
	}
	if err := j.getJSON(ctx, jellyseerrAPI+"/search", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, hit := range resp.Results {
		title := hit.Title
		if title == "" {
			title = hit.Name
		}
		year := yearOf(hit.ReleaseDate)
		if year == 0 {
			year = yearOf(hit.FirstAirDate)
		}
		added := false
		if hit.MediaInfo != nil {
			switch hit.MediaInfo.Status {
			case 3, 4, 5:
				added = true
			}
		}
		results = append(results, SearchResult{
			TmdbID:    hit.ID,
			Title:     title,
			Year:      year,
			PosterURL: tmdbPosterURL + hit.PosterPath,
			Overview:  hit.Overview,
			Added:     added,
			MediaType: hit.MediaType,
		})
	}
	return results, nil
}

type mediaRequest struct {
	MediaType string `json:"mediaType"`
	MediaID   int    `json:"mediaId"`
	TvdbID    int    `json:"tvdbId,omitempty"`
}

// Request asks Jellyseerr to fetch a title.
func (j *Jellyseerr) Request(ctx context.Context, item SearchResult, mediaType media.MediaType) error {
	req := mediaRequest{MediaType: "tv", MediaID: item.TmdbID, TvdbID: item.TvdbID}
	if mediaType == media.MediaTypeMovie {
		req.MediaType = "movie"
	}
	return j.do(ctx, http.MethodPost, jellyseerrAPI+"/request", nil, req, nil)
}

// Stats counts the most recent requests by state. States 4 and 5 are both
// available (partially and fully).
func (j *Jellyseerr) Stats(ctx context.Context) (*RequestStats, error) {
	var resp struct {
		Results []struct {
			Status int `json:"status"`
		} `json:"results"`
	}
	q := url.Values{"take": {strconv.Itoa(statsPageSize)}}
	if err := j.getJSON(ctx, jellyseerrAPI+"/request", q, &resp); err != nil {
		return nil, err
	}

	var stats RequestStats
	for _, r := range resp.Results {
		switch r.Status {
		case RequestPending:
			stats.Pending++
		case RequestApproved:
			stats.Approved++
		case RequestProcessing:
			stats.Processing++
		case 4, 5:
			stats.Available++
		}
	}
	return &stats, nil
}
