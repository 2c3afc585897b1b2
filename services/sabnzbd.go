package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/media"
)

// Sabnzbd talks to SABnzbd's mode-based API. The key travels in the query string.
type Sabnzbd struct {
	*Client
}

// NewSabnzbd creates a SABnzbd client.
func NewSabnzbd(cfg config.ServiceConfig, options ...Option) *Sabnzbd {
	return &Sabnzbd{Client: newClient("sabnzbd", cfg, options...)}
}

type sabSlot struct {
	NzoID      string `json:"nzo_id"`
	Filename   string `json:"filename"`
	Size       string `json:"size"`
	TimeLeft   string `json:"timeleft"`
	Status     string `json:"status"`
	MB         string `json:"mb"`
	Percentage string `json:"percentage"`
}

type sabQueue struct {
	Queue struct {
		Status   string    `json:"status"`
		Speed    string    `json:"speed"`
		TimeLeft string    `json:"timeleft"`
		SizeLeft string    `json:"sizeleft"`
		Slots    []sabSlot `json:"slots"`
	} `json:"queue"`
}

// SabStatus is the downloader's overall state.
type SabStatus struct {
	Status   string `json:"status"` // Downloading, Paused, Idle
	Speed    string `json:"speed"`
	TimeLeft string `json:"timeLeft"`
	SizeLeft string `json:"sizeLeft"`
}

func (s *Sabnzbd) call(ctx context.Context, mode string, out any) error {
	q := url.Values{
		"mode":   {mode},
		"output": {"json"},
		"apikey": {s.apiKey},
	}
	return s.getJSON(ctx, "/api", q, out)
}

// Queue lists the active download slots.
func (s *Sabnzbd) Queue(ctx context.Context) ([]media.QueueItem, error) {
	var resp sabQueue
	if err := s.call(ctx, "queue", &resp); err != nil {
		return nil, err
	}

	items := make([]media.QueueItem, 0, len(resp.Queue.Slots))
	for _, slot := range resp.Queue.Slots {
		items = append(items, media.QueueItem{
			ID:       slot.NzoID,
			Title:    slot.Filename,
			Size:     slot.Size,
			TimeLeft: slot.TimeLeft,
			Status:   media.QueueStatusFrom(slot.Status),
			Speed:    slot.MB,
			Progress: parsePercentage(slot.Percentage),
		})
	}
	return items, nil
}

// parsePercentage reads the leading integer of SABnzbd's percentage string.
func parsePercentage(p string) float64 {
	p = strings.TrimSpace(p)
	end := 0
	for end < len(p) && p[end] >= '0' && p[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(p[:end])
	if err != nil {
		return 0
	}
	return float64(n)
}

// Status reports the queue's overall state.
func (s *Sabnzbd) Status(ctx context.Context) (*SabStatus, error) {
	var resp sabQueue
	if err := s.call(ctx, "queue", &resp); err != nil {
		return nil, err
	}
	return &SabStatus{
		Status:   resp.Queue.Status,
		Speed:    resp.Queue.Speed,
		TimeLeft: resp.Queue.TimeLeft,
		SizeLeft: resp.Queue.SizeLeft,
	}, nil
}

// Version returns the SABnzbd version string.
func (s *Sabnzbd) Version(ctx context.Context) (string, error) {
	var resp struct {
		Version string `json:"version"`
	}
	if err := s.call(ctx, "version", &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}
