// Package services holds typed clients for the self-hosted media services the
// dashboard reports on: Radarr, Sonarr, SABnzbd, Jellyfin and Jellyseerr.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/dashboarrd/internal/config"
	interrors "github.com/jrsteele09/dashboarrd/internal/errors"
	"github.com/jrsteele09/dashboarrd/internal/metrics"
)

// RequestTimeout bounds every service call.
const RequestTimeout = 12 * time.Second

var (
	ErrServiceDisabled  = interrors.ErrServiceDisabled
	ErrUnexpectedStatus = interrors.ErrUnexpectedStatus
)

// Kind selects the status endpoint used by TestConnection.
type Kind string

const (
	KindArr        Kind = "arr"
	KindSabnzbd    Kind = "sabnzbd"
	KindJellyfin   Kind = "jellyfin"
	KindJellyseerr Kind = "jellyseerr"
)

// Client is the transport shared by the service clients.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	enabled bool
	http    *http.Client
	metrics *metrics.Metrics
	headers http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client and its timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithMetrics records request latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NormalizeBaseURL trims the URL, adds http:// when the scheme is missing and drops
// one trailing slash.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "http") {
		u = "http://" + u
	}
	return strings.TrimSuffix(u, "/")
}

func newClient(name string, cfg config.ServiceConfig, options ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: NormalizeBaseURL(cfg.URL),
		apiKey:  cfg.APIKey,
		enabled: cfg.Enabled && cfg.URL != "",
		http:    &http.Client{Timeout: RequestTimeout},
		headers: http.Header{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Enabled reports whether the service is configured and switched on.
func (c *Client) Enabled() bool { return c.enabled }

// BaseURL is the normalised service URL.
func (c *Client) BaseURL() string { return c.baseURL }

// encodeQuery encodes spaces as %20; some services reject '+'.
func encodeQuery(q url.Values) string {
	return strings.ReplaceAll(q.Encode(), "+", "%20")
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (err error) {
	if !c.enabled {
		return fmt.Errorf("%s: %w", c.name, ErrServiceDisabled)
	}

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ObserveService(c.name, outcome, time.Since(start))
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + encodeQuery(query)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return interrors.Wrapf(err, "%s: encode request", c.name)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return interrors.Wrapf(err, "%s: new request", c.name)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", c.name, path, interrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: %w %d", c.name, path, ErrUnexpectedStatus, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return interrors.Wrapf(err, "%s %s: decode response", c.name, path)
	}
	return nil
}

// TestConnection probes the status endpoint of a service of the given kind.
func TestConnection(ctx context.Context, kind Kind, cfg config.ServiceConfig, options ...Option) bool {
	cfg.Enabled = true
	var err error
	switch kind {
	case KindArr:
		err = newArrClient("arr", cfg, options...).getJSON(ctx, "/api/v3/system/status", nil, nil)
	case KindJellyseerr:
		err = NewJellyseerr(cfg, options...).getJSON(ctx, "/api/v1/status", nil, nil)
	case KindSabnzbd:
		_, err = NewSabnzbd(cfg, options...).Version(ctx)
	case KindJellyfin:
		_, err = NewJellyfin(cfg, "", options...).SystemInfo(ctx)
	default:
		err = fmt.Errorf("unknown service kind %q", kind)
	}
	return err == nil
}
