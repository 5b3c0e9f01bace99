package spotify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// DefaultBaseURL is the Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// Artist is the subset of the artist object the dashboard shows.
type Artist struct {
	Name string `json:"name"`
}

// Item is the currently playing track.
type Item struct {
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
}

// CurrentlyPlaying is the /me/player/currently-playing payload. Item is nil
// for ads, podcasts between episodes, and private sessions.
type CurrentlyPlaying struct {
	IsPlaying bool  `json:"is_playing"`
	Item      *Item `json:"item"`
}

// Config configures the Spotify gateway.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Executor   clients.HTTPExecutorConfig
	Logger     logging.Logger
}

// Client is a thin bearer-token wrapper around the now-playing endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	logger     logging.Logger
}

// NewClient creates a Spotify gateway.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = clients.NewHTTPClient(10 * time.Second)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		executor:   clients.NewHTTPExecutor(cfg.Executor),
		logger:     logger,
	}
}

// CurrentlyPlaying returns the caller's current track. A 204 yields
// (nil, nil). Any other non-2xx yields a KindAuthorization error: the
// endpoint is bearer-authenticated and the dashboard treats every refusal as
// a credential problem.
func (c *Client) CurrentlyPlaying(ctx context.Context, token string) (*CurrentlyPlaying, error) {
	const op = "spotify currently-playing"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, clients.ConfigurationAbsent(op, "spotify token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/player/currently-playing", nil)
	if err != nil {
		return nil, clients.Transient(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := clients.Do(ctx, c.executor, c.httpClient, req)
	if err != nil {
		return nil, clients.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, clients.StatusError(op, clients.KindAuthorization, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clients.Transient(op, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var out CurrentlyPlaying
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, clients.Malformed(op, err)
	}
	return &out, nil
}
