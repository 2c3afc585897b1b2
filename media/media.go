// Package media holds the view models shared by the service clients and the dashboard.
package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type MediaType string

const (
	MediaTypeMovie  MediaType = "MOVIE"
	MediaTypeSeries MediaType = "SERIES"
	MediaTypeMusic  MediaType = "MUSIC"
)

type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusDownloading Status = "DOWNLOADING"
	StatusMissing     Status = "MISSING"
	StatusRequested   Status = "REQUESTED"
)

type QueueStatus string

const (
	QueueDownloading QueueStatus = "Downloading"
	QueuePaused      QueueStatus = "Paused"
	QueueQueued      QueueStatus = "Queued"
	QueueCompleted   QueueStatus = "Completed"
	QueueFailed      QueueStatus = "Failed"
)

// MediaItem is a movie or series as shown in the library.
type MediaItem struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Year           int       `json:"year"`
	Type           MediaType `json:"type"`
	Status         Status    `json:"status"`
	PosterURL      string    `json:"posterUrl"`
	Overview       string    `json:"overview,omitempty"`
	Rating         float64   `json:"rating,omitempty"`
	Progress       float64   `json:"progress,omitempty"`
	QualityProfile string    `json:"qualityProfile,omitempty"`
	Path           string    `json:"path,omitempty"`
	Size           string    `json:"size,omitempty"`
	Studio         string    `json:"studio,omitempty"`
	JellyseerrID   int       `json:"jellyseerrId,omitempty"`
}

// QueueItem is one download in a downloader or *arr queue.
type QueueItem struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Size     string      `json:"size"`
	TimeLeft string      `json:"timeLeft"`
	Status   QueueStatus `json:"status"`
	Speed    string      `json:"speed"`
	Progress float64     `json:"progress"`
}

// QueueStatusFrom maps an upstream status string. Anything that is not actively
// downloading is shown as queued.
func QueueStatusFrom(s string) QueueStatus {
	if strings.EqualFold(s, string(QueueDownloading)) {
		return QueueDownloading
	}
	return QueueQueued
}

const bytesPerGB = 1073741824

// FormatGB renders a byte count as gigabytes with two decimals, "0 GB" when empty.
func FormatGB(bytes int64) string {
	if bytes <= 0 {
		return "0 GB"
	}
	return fmt.Sprintf("%.2f GB", float64(bytes)/bytesPerGB)
}

// FormatFreeSpace renders free disk space with one decimal.
func FormatFreeSpace(bytes int64) string {
	return fmt.Sprintf("%.1f GB", float64(bytes)/bytesPerGB)
}

// FormatBytes renders a byte count with one optional decimal, e.g. "1.5 KB", "2 GB".
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	v, i := float64(bytes), 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64) + " " + units[i]
}

// Image is a cover image reference as returned by Radarr and Sonarr.
type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// PosterURL picks the poster from images. Local paths are served by the *arr
// instance itself and need the API key; a placeholder is used when there is none.
func PosterURL(baseURL, apiKey string, images []Image, id string) string {
	for _, img := range images {
		if !strings.EqualFold(img.CoverType, "poster") {
			continue
		}
		if img.URL != "" {
			return baseURL + img.URL + "?apikey=" + apiKey
		}
		return img.RemoteURL
	}
	return "https://picsum.photos/300/450?random=" + id
}
