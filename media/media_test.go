package media_test

import (
	"testing"

	"github.com/jrsteele09/dashboarrd/media"
	"github.com/stretchr/testify/require"
)

func TestFormatGB(t *testing.T) {
	require.Equal(t, "0 GB", media.FormatGB(0))
	require.Equal(t, "1.00 GB", media.FormatGB(1073741824))
	require.Equal(t, "2.50 GB", media.FormatGB(2684354560))
	require.Equal(t, "1.5 GB", media.FormatFreeSpace(1610612736))
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:             "0 B",
		512:           "512 B",
		1024:          "1 KB",
		1536:          "1.5 KB",
		1048576:       "1 MB",
		1073741824:    "1 GB",
		5368709120000: "5000 GB",
	}
	for in, want := range tests {
		require.Equal(t, want, media.FormatBytes(in))
	}
}

func TestPosterURL(t *testing.T) {
	t.Run("local poster", func(t *testing.T) {
		images := []media.Image{{CoverType: "fanart", URL: "/f.jpg"}, {CoverType: "Poster", URL: "/MediaCover/1/poster.jpg"}}
		require.Equal(t, "http://radarr:7878/MediaCover/1/poster.jpg?apikey=k", media.PosterURL("http://radarr:7878", "k", images, "1"))
	})
	t.Run("remote poster", func(t *testing.T) {
		images := []media.Image{{CoverType: "poster", RemoteURL: "https://image.tmdb.org/p.jpg"}}
		require.Equal(t, "https://image.tmdb.org/p.jpg", media.PosterURL("http://radarr", "k", images, "1"))
	})
	t.Run("placeholder", func(t *testing.T) {
		require.Equal(t, "https://picsum.photos/300/450?random=7", media.PosterURL("http://radarr", "k", nil, "7"))
	})
}

func TestQueueStatusFrom(t *testing.T) {
	require.Equal(t, media.QueueDownloading, media.QueueStatusFrom("Downloading"))
	require.Equal(t, media.QueueDownloading, media.QueueStatusFrom("downloading"))
	require.Equal(t, media.QueueQueued, media.QueueStatusFrom("Paused"))
	require.Equal(t, media.QueueQueued, media.QueueStatusFrom(""))
}
