// Package site talks to the dashboard's own web service: the configuration
// endpoint and the optional gifted-subs resource.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// Config is the payload of GET /api/config.
type Config struct {
	DiscordUserID *string `json:"discord_user_id"`
}

// Subject returns the configured presence subject, or "".
func (c Config) Subject() string {
	if c.DiscordUserID == nil {
		return ""
	}
	return strings.TrimSpace(*c.DiscordUserID)
}

// Sub is one row of the remote gifted-subs resource.
type Sub struct {
	Username string `json:"username"`
	Gifts    int    `json:"gifts"`
}

// ClientConfig configures the site gateway.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Executor   clients.HTTPExecutorConfig
	Logger     logging.Logger
}

// Client is the site gateway. A Client with an empty base URL reports
// KindConfigurationAbsent from every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	logger     logging.Logger
}

// NewClient creates a site gateway.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = clients.NewHTTPClient(10 * time.Second)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: httpClient,
		executor:   clients.NewHTTPExecutor(cfg.Executor),
		logger:     logger,
	}
}

// Configured reports whether a base URL was supplied.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Config fetches /api/config.
func (c *Client) Config(ctx context.Context) (Config, error) {
	var out Config
	err := c.do(ctx, "site config", http.MethodGet, "/api/config", nil, &out)
	return out, err
}

// ListSubs fetches the remote gifted-subs collection in store order.
func (c *Client) ListSubs(ctx context.Context) ([]Sub, error) {
	var out []Sub
	if err := c.do(ctx, "site list subs", http.MethodGet, "/api/subs", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Sub{}
	}
	return out, nil
}

// UpsertSub creates or replaces one remote entry.
func (c *Client) UpsertSub(ctx context.Context, sub Sub) error {
	return c.do(ctx, "site upsert sub", http.MethodPost, "/api/subs", sub, nil)
}

// DeleteSub removes one remote entry by username.
func (c *Client) DeleteSub(ctx context.Context, username string) error {
	return c.do(ctx, "site delete sub", http.MethodDelete, "/api/subs/"+url.PathEscape(username), nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if !c.Configured() {
		return clients.ConfigurationAbsent(op, "site url")
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return clients.Malformed(op, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return clients.Transient(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := clients.Do(ctx, c.executor, c.httpClient, req)
	if err != nil {
		return clients.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The site is unauthenticated from the dashboard's point of view; a
		// refusal means "remote unavailable", which triggers local fallback.
		return clients.StatusError(op, clients.KindTransient, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return clients.Transient(op, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return clients.Malformed(op, err)
	}
	return nil
}
