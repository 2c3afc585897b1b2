package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/kvstore"
	"golang.org/x/sync/errgroup"
)

const (
	deviceIDKey   = "dashboarrd_jellyfin_device_id"
	clientName    = "Dashboarrd"
	clientDevice  = "Dashboarrd CLI"
	clientVersion = config.AppVersion
)

// Jellyfin talks to the Jellyfin server API.
type Jellyfin struct {
	*Client
}

// DeviceID returns the identifier this install reports to Jellyfin, creating and
// storing one on first use.
func DeviceID(kv kvstore.Store) (string, error) {
	id, err := kv.Get(deviceIDKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return "", fmt.Errorf("load jellyfin device id: %w", err)
	}

	id = uuid.NewString()
	if err := kv.Set(deviceIDKey, id); err != nil {
		return "", fmt.Errorf("store jellyfin device id: %w", err)
	}
	return id, nil
}

// NewJellyfin creates a Jellyfin client. deviceID may be empty.
func NewJellyfin(cfg config.ServiceConfig, deviceID string, options ...Option) *Jellyfin {
	c := newClient("jellyfin", cfg, options...)
	c.headers.Set("X-Emby-Token", c.apiKey)
	if deviceID != "" {
		c.headers.Set("X-Emby-Authorization", fmt.Sprintf(
			`MediaBrowser Client=%q, Device=%q, DeviceId=%q, Version=%q, Token=%q`,
			clientName, clientDevice, deviceID, clientVersion, c.apiKey))
	}
	return &Jellyfin{Client: c}
}

// SystemInfo is the subset of /System/Info the dashboard shows.
type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

type jellyfinSession struct {
	UserName       string `json:"UserName"`
	DeviceName     string `json:"DeviceName"`
	Client         string `json:"Client"`
	NowPlayingItem *struct {
		Name string `json:"Name"`
		Type string `json:"Type"`
	} `json:"NowPlayingItem"`
	PlayState *struct {
		IsPaused bool `json:"IsPaused"`
	} `json:"PlayState"`
}

// Stream is a session that is currently playing something.
type Stream struct {
	UserName       string `json:"userName"`
	DeviceName     string `json:"deviceName"`
	Client         string `json:"client"`
	NowPlayingItem string `json:"nowPlayingItem"`
	NowPlayingType string `json:"nowPlayingType,omitempty"`
	PlayState      string `json:"playState"` // Playing or Paused
}

// JellyfinStatus is the server summary plus its active streams.
type JellyfinStatus struct {
	ServerName    string   `json:"serverName"`
	Version       string   `json:"version"`
	ActiveStreams int      `json:"activeStreams"`
	Sessions      []Stream `json:"sessions"`
}

// SystemInfo fetches the server name and version.
func (j *Jellyfin) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := j.getJSON(ctx, "/System/Info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Status fetches system info and sessions in parallel. Sessions with nothing
// playing are left out.
func (j *Jellyfin) Status(ctx context.Context) (*JellyfinStatus, error) {
	var (
		info     *SystemInfo
		sessions []jellyfinSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = j.SystemInfo(gctx)
		return err
	})
	g.Go(func() error {
		return j.getJSON(gctx, "/Sessions", nil, &sessions)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := &JellyfinStatus{
		ServerName: info.ServerName,
		Version:    info.Version,
		Sessions:   []Stream{},
	}
	for _, s := range sessions {
		if s.NowPlayingItem == nil {
			continue
		}
		stream := Stream{
			UserName:       s.UserName,
			DeviceName:     s.DeviceName,
			Client:         s.Client,
			NowPlayingItem: s.NowPlayingItem.Name,
			NowPlayingType: s.NowPlayingItem.Type,
			PlayState:      "Playing",
		}
		if stream.NowPlayingItem == "" {
			stream.NowPlayingItem = "Unknown"
		}
		if s.PlayState != nil && s.PlayState.IsPaused {
			stream.PlayState = "Paused"
		}
		status.Sessions = append(status.Sessions, stream)
	}
	status.ActiveStreams = len(status.Sessions)
	return status, nil
}
