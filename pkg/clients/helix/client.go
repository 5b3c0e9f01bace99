// Package helix is a minimal Twitch Helix gateway: the bits leaderboard and
// batched user lookup.
package helix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// DefaultBaseURL is the Helix API root.
const DefaultBaseURL = "https://api.twitch.tv/helix"

// MaxUsersPerRequest is the Helix limit on id parameters for /users.
const MaxUsersPerRequest = 100

// Credentials authenticate Helix calls.
type Credentials struct {
	ClientID    string
	AccessToken string
}

// Complete reports whether both halves are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.AccessToken) != ""
}

// BitsEntry is one row of the bits leaderboard.
type BitsEntry struct {
	UserID    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
	Rank      int    `json:"rank"`
	Score     int64  `json:"score"`
}

// User is the subset of a Helix user the dashboard needs.
type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// Config configures the Helix gateway.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Executor   clients.HTTPExecutorConfig
	Logger     logging.Logger
}

// Client talks to Helix.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	logger     logging.Logger
}

// NewClient creates a Helix gateway.
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

type bitsResponse struct {
	Data []BitsEntry `json:"data"`
}

type usersResponse struct {
	Data []User `json:"data"`
}

// BitsLeaderboard fetches the top count entries for period. Period is passed
// through as-is; validation happens in the caller.
func (c *Client) BitsLeaderboard(ctx context.Context, creds Credentials, count int, period string) ([]BitsEntry, error) {
	const op = "helix bits leaderboard"
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("period", period)

	var out bitsResponse
	if err := c.get(ctx, op, creds, "/bits/leaderboard", q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Users resolves ids to user records, keyed by id. Ids beyond
// MaxUsersPerRequest are fetched in further batches.
func (c *Client) Users(ctx context.Context, creds Credentials, ids []string) (map[string]User, error) {
	const op = "helix users"
	users := make(map[string]User, len(ids))
	for start := 0; start < len(ids); start += MaxUsersPerRequest {
		end := start + MaxUsersPerRequest
		if end > len(ids) {
			end = len(ids)
		}
		q := url.Values{}
		for _, id := range ids[start:end] {
			q.Add("id", id)
		}
		var out usersResponse
		if err := c.get(ctx, op, creds, "/users", q, &out); err != nil {
			return nil, err
		}
		for _, u := range out.Data {
			users[u.ID] = u
		}
	}
	return users, nil
}

func (c *Client) get(ctx context.Context, op string, creds Credentials, path string, q url.Values, out any) error {
	if !creds.Complete() {
		return clients.ConfigurationAbsent(op, "twitch credentials")
	}
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return clients.Transient(op, err)
	}
	req.Header.Set("Client-Id", strings.TrimSpace(creds.ClientID))
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(creds.AccessToken))
	req.Header.Set("Accept", "application/json")

	resp, err := clients.Do(ctx, c.executor, c.httpClient, req)
	if err != nil {
		return clients.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return clients.StatusError(op, clients.KindAuthorization, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return clients.Transient(op, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return clients.Malformed(op, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
