package services_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/internal/metrics"
	"github.com/jrsteele09/dashboarrd/kvstore"
	"github.com/jrsteele09/dashboarrd/media"
	"github.com/jrsteele09/dashboarrd/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const apiKey = "secret"

type fakeService struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func (f *fakeService) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
}

func (f *fakeService) last() (*http.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1], f.bodies[len(f.bodies)-1]
}

// newFakeService serves fixed JSON bodies per "METHOD path" and checks the key
// header or query parameter.
func newFakeService(t *testing.T, keyHeader string, routes map[string]string) *fakeService {
	t.Helper()
	f := &fakeService{}
	mux := http.NewServeMux()
	for pattern, body := range routes {
		body := body
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			key := r.Header.Get(keyHeader)
			if keyHeader == "" {
				key = r.URL.Query().Get("apikey")
			}
			if key != apiKey {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		})
	}
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) config() config.ServiceConfig {
	return config.ServiceConfig{URL: f.srv.URL + "/", APIKey: apiKey, Enabled: true}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := map[string]string{
		"":                        "",
		"radarr.local:7878":       "http://radarr.local:7878",
		" http://radarr:7878/ ":   "http://radarr:7878",
		"https://sonarr.example/": "https://sonarr.example",
	}
	for in, want := range tests {
		require.Equal(t, want, services.NormalizeBaseURL(in), in)
	}
}

func TestDisabledService(t *testing.T) {
	r := services.NewRadarr(config.ServiceConfig{URL: "http://radarr", APIKey: apiKey})
	require.False(t, r.Enabled())
	_, err := r.Movies(context.Background())
	require.ErrorIs(t, err, services.ErrServiceDisabled)

	j := services.NewJellyseerr(config.ServiceConfig{Enabled: true})
	require.False(t, j.Enabled())
}

const radarrMovies = `[
	{"id":1,"title":"Alien","year":1979,"hasFile":true,"monitored":true,"sizeOnDisk":2147483648,
	 "images":[{"coverType":"poster","url":"/MediaCover/1/poster.jpg"}],"ratings":{"value":8.5},"qualityProfileId":4,"studio":"Fox"},
	{"id":2,"title":"Aliens","year":1986,"hasFile":false,"monitored":true},
	{"id":3,"title":"Alien 3","year":1992,"hasFile":false,"monitored":false}
]`

const arrQueue = `{"totalRecords":2,"records":[
	{"id":10,"size":1073741824,"sizeleft":268435456,"timeleft":"00:10:00","status":"downloading","movie":{"title":"Aliens"},"series":{"title":"Andor"}},
	{"id":11,"size":0,"sizeleft":0,"status":"queued","movie":{"title":"Alien 3"},"series":{"title":"Severance"}}
]}`

const arrDisks = `[{"path":"/data","freeSpace":1610612736,"totalSpace":4294967296},{"path":"/other","freeSpace":1}]`

func TestRadarr(t *testing.T) {
	fake := newFakeService(t, "X-Api-Key", map[string]string{
		"GET /api/v3/movie":         radarrMovies,
		"GET /api/v3/queue":         arrQueue,
		"GET /api/v3/diskspace":     arrDisks,
		"GET /api/v3/movie/lookup":  `[{"title":"Heat","titleSlug":"heat-1995","year":1995,"tmdbId":949,"rootFolderPath":"/movies"}]`,
		"POST /api/v3/movie":        `{}`,
		"DELETE /api/v3/movie/{id}": ``,
	})
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	radarr := services.NewRadarr(fake.config(), services.WithMetrics(m))
	ctx := context.Background()

	t.Run("movies map status from files and monitoring", func(t *testing.T) {
		items, err := radarr.Library(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Equal(t, media.StatusAvailable, items[0].Status)
		require.Equal(t, media.StatusMissing, items[1].Status)
		require.Equal(t, media.StatusRequested, items[2].Status)

		require.Equal(t, "1", items[0].ID)
		require.Equal(t, media.MediaTypeMovie, items[0].Type)
		require.Equal(t, "2.00 GB", items[0].Size)
		require.Equal(t, "0 GB", items[1].Size)
		require.Equal(t, fake.srv.URL+"/MediaCover/1/poster.jpg?apikey="+apiKey, items[0].PosterURL)
		require.Equal(t, "Profile ID: 4", items[0].QualityProfile)
		require.Equal(t, 8.5, items[0].Rating)
		require.Equal(t, 1, testutil.CollectAndCount(m.ServiceLatency))
	})

	t.Run("queue progress", func(t *testing.T) {
		queue, err := radarr.Queue(ctx)
		require.NoError(t, err)
		require.Len(t, queue, 2)
		require.Equal(t, "Aliens", queue[0].Title)
		require.Equal(t, media.QueueDownloading, queue[0].Status)
		require.InDelta(t, 75.0, queue[0].Progress, 0.001)
		require.Equal(t, "Unknown", queue[0].Speed)
		require.Equal(t, "Alien 3", queue[1].Title)
		require.Equal(t, media.QueueQueued, queue[1].Status)
		require.Zero(t, queue[1].Progress)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := radarr.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, &services.ArrStats{Total: 3, Missing: 1, QueueCount: 2, FreeSpace: "1.5 GB"}, stats)
	})

	t.Run("lookup and add", func(t *testing.T) {
		results, err := radarr.Lookup(ctx, "heat 1995")
		require.NoError(t, err)
		require.Len(t, results, 1)
		req, _ := fake.last()
		require.Equal(t, "heat 1995", req.URL.Query().Get("term"))

		require.NoError(t, radarr.Add(ctx, results[0]))
		_, body := fake.last()
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(body), &payload))
		require.Equal(t, "Heat", payload["title"])
		require.Equal(t, float64(949), payload["tmdbId"])
		require.Equal(t, float64(1), payload["qualityProfileId"])
		require.Equal(t, "/movies", payload["rootFolderPath"])
		require.Equal(t, true, payload["monitored"])
		require.Equal(t, map[string]any{"searchForMovie": true}, payload["addOptions"])
		require.NotContains(t, payload, "tvdbId")
	})

	t.Run("delete removes files", func(t *testing.T) {
		require.NoError(t, radarr.Delete(ctx, "2"))
		req, _ := fake.last()
		require.Equal(t, http.MethodDelete, req.Method)
		require.Equal(t, "/api/v3/movie/2", req.URL.Path)
		require.Equal(t, "true", req.URL.Query().Get("deleteFiles"))
	})

	t.Run("wrong key", func(t *testing.T) {
		cfg := fake.config()
		cfg.APIKey = "nope"
		_, err := services.NewRadarr(cfg).Movies(ctx)
		require.ErrorIs(t, err, services.ErrUnexpectedStatus)
	})
}

func TestSonarr(t *testing.T) {
	fake := newFakeService(t, "X-Api-Key", map[string]string{
		"GET /api/v3/series": `[
			{"id":5,"title":"Andor","year":2022,"statistics":{"percentOfEpisodes":100,"sizeOnDisk":1073741824,"episodeCount":12,"episodeFileCount":12}},
			{"id":6,"title":"Severance","year":2022,"statistics":{"percentOfEpisodes":50,"episodeCount":10,"episodeFileCount":4}}
		]`,
		"GET /api/v3/queue":     arrQueue,
		"GET /api/v3/diskspace": `[]`,
		"POST /api/v3/series":   `{}`,
	})
	sonarr := services.NewSonarr(fake.config())
	ctx := context.Background()

	items, err := sonarr.Library(ctx)
	require.NoError(t, err)
	require.Equal(t, media.StatusAvailable, items[0].Status)
	require.Equal(t, media.StatusMissing, items[1].Status)
	require.Equal(t, media.MediaTypeSeries, items[1].Type)
	require.Equal(t, "1.00 GB", items[0].Size)

	queue, err := sonarr.Queue(ctx)
	require.NoError(t, err)
	require.Equal(t, "Andor", queue[0].Title)

	stats, err := sonarr.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, &services.ArrStats{Total: 2, Missing: 6, QueueCount: 2, FreeSpace: "N/A"}, stats)

	require.NoError(t, sonarr.Add(ctx, services.LookupResult{Title: "Andor", TitleSlug: "andor", TvdbID: 393189, Path: "/tv/Andor"}))
	_, body := fake.last()
	require.True(t, strings.Contains(body, `"tvdbId":393189`))
	require.True(t, strings.Contains(body, `"searchForMissingEpisodes":true`))
	require.True(t, strings.Contains(body, `"rootFolderPath":"/tv/Andor"`))
}

func TestSabnzbd(t *testing.T) {
	fake := newFakeService(t, "", map[string]string{
		"GET /api": `{"version":"4.3.2","queue":{"status":"Downloading","speed":"12.3 M","timeleft":"0:05:00","sizeleft":"1.2 GB",
			"slots":[{"nzo_id":"SABnzbd_nzo_1","filename":"Andor.S01E01","size":"1.1 GB","timeleft":"0:05:00","status":"Downloading","mb":"1126","percentage":"42"},
			         {"nzo_id":"SABnzbd_nzo_2","filename":"Alien","size":"4 GB","status":"Paused","percentage":""}]}}`,
	})
	sab := services.NewSabnzbd(fake.config())
	ctx := context.Background()

	queue, err := sab.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, media.QueueItem{
		ID: "SABnzbd_nzo_1", Title: "Andor.S01E01", Size: "1.1 GB", TimeLeft: "0:05:00",
		Status: media.QueueDownloading, Speed: "1126", Progress: 42,
	}, queue[0])
	require.Equal(t, media.QueueQueued, queue[1].Status)
	require.Zero(t, queue[1].Progress)

	req, _ := fake.last()
	require.Equal(t, "queue", req.URL.Query().Get("mode"))
	require.Equal(t, "json", req.URL.Query().Get("output"))

	status, err := sab.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, &services.SabStatus{Status: "Downloading", Speed: "12.3 M", TimeLeft: "0:05:00", SizeLeft: "1.2 GB"}, status)

	version, err := sab.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, "4.3.2", version)
}

func TestJellyfin(t *testing.T) {
	fake := newFakeService(t, "X-Emby-Token", map[string]string{
		"GET /System/Info": `{"ServerName":"media","Version":"10.9.1"}`,
		"GET /Sessions": `[
			{"UserName":"alice","DeviceName":"TV","Client":"Android TV","NowPlayingItem":{"Name":"Andor","Type":"Episode"},"PlayState":{"IsPaused":true}},
			{"UserName":"bob","DeviceName":"Phone","Client":"iOS"},
			{"UserName":"carol","DeviceName":"Web","Client":"Web","NowPlayingItem":{"Type":"Movie"}}
		]`,
	})

	kv := kvstore.NewMemoryStore()
	deviceID, err := services.DeviceID(kv)
	require.NoError(t, err)
	require.NotEmpty(t, deviceID)
	again, err := services.DeviceID(kv)
	require.NoError(t, err)
	require.Equal(t, deviceID, again)

	jf := services.NewJellyfin(fake.config(), deviceID)
	status, err := jf.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, "media", status.ServerName)
	require.Equal(t, "10.9.1", status.Version)
	require.Equal(t, 2, status.ActiveStreams)
	require.Equal(t, services.Stream{
		UserName: "alice", DeviceName: "TV", Client: "Android TV",
		NowPlayingItem: "Andor", NowPlayingType: "Episode", PlayState: "Paused",
	}, status.Sessions[0])
	require.Equal(t, "Unknown", status.Sessions[1].NowPlayingItem)
	require.Equal(t, "Playing", status.Sessions[1].PlayState)

	req, _ := fake.last()
	require.Contains(t, req.Header.Get("X-Emby-Authorization"), `DeviceId="`+deviceID+`"`)
}

func TestJellyseerr(t *testing.T) {
	fake := newFakeService(t, "X-Api-Key", map[string]string{
		"GET /api/v1/search": `{"results":[
			{"id":949,"mediaType":"movie","title":"Heat","releaseDate":"1995-12-15","posterPath":"/heat.jpg","mediaInfo":{"status":5}},
			{"id":83867,"mediaType":"tv","name":"Andor","firstAirDate":"2022-09-21","mediaInfo":{"status":2}},
			{"id":1,"mediaType":"movie","title":"Unreleased"}
		]}`,
		"GET /api/v1/request":  `{"results":[{"status":1},{"status":1},{"status":2},{"status":3},{"status":4},{"status":5},{"status":9}]}`,
		"POST /api/v1/request": `{}`,
	})
	js := services.NewJellyseerr(fake.config())
	ctx := context.Background()

	results, err := js.Search(ctx, "heat and andor")
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, services.SearchResult{
		TmdbID: 949, Title: "Heat", Year: 1995, PosterURL: "https://image.tmdb.org/t/p/w500/heat.jpg",
		Added: true, MediaType: "movie",
	}, results[0])
	require.Equal(t, "Andor", results[1].Title)
	require.Equal(t, 2022, results[1].Year)
	require.False(t, results[1].Added)
	require.Zero(t, results[2].Year)

	req, _ := fake.last()
	require.Equal(t, "query=heat%20and%20andor", req.URL.RawQuery)

	stats, err := js.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, &services.RequestStats{Pending: 2, Approved: 1, Processing: 1, Available: 2}, stats)
	req, _ = fake.last()
	require.Equal(t, "100", req.URL.Query().Get("take"))

	require.NoError(t, js.Request(ctx, results[1], media.MediaTypeSeries))
	_, body := fake.last()
	require.JSONEq(t, `{"mediaType":"tv","mediaId":83867}`, body)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		kind      services.Kind
		keyHeader string
		route     string
	}{
		{name: "arr", kind: services.KindArr, keyHeader: "X-Api-Key", route: "GET /api/v3/system/status"},
		{name: "jellyseerr", kind: services.KindJellyseerr, keyHeader: "X-Api-Key", route: "GET /api/v1/status"},
		{name: "sabnzbd", kind: services.KindSabnzbd, route: "GET /api"},
		{name: "jellyfin", kind: services.KindJellyfin, keyHeader: "X-Emby-Token", route: "GET /System/Info"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeService(t, tc.keyHeader, map[string]string{tc.route: `{"version":"1"}`})
			cfg := fake.config()
			cfg.Enabled = false
			require.True(t, services.TestConnection(ctx, tc.kind, cfg))

			cfg.APIKey = "wrong"
			require.False(t, services.TestConnection(ctx, tc.kind, cfg))
		})
	}

	require.False(t, services.TestConnection(ctx, services.KindArr, config.ServiceConfig{}))
}
