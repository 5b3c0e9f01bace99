package config

import (
	"strings"
	"time"

	"github.com/ordinaryYT/jacweb1/internal/dashboard"
	"github.com/ordinaryYT/jacweb1/internal/nowplaying"
	"github.com/ordinaryYT/jacweb1/internal/presence"
	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
	"github.com/ordinaryYT/jacweb1/pkg/clients/lanyard"
	"github.com/ordinaryYT/jacweb1/pkg/clients/spotify"
	"github.com/ordinaryYT/jacweb1/pkg/config"
)

// DefaultLocalStoreDSN keeps fallback state next to the working directory.
const DefaultLocalStoreDSN = "file://.legendboard/state.json"

// Config stores environment configuration for legendboard.
type Config struct {
	Port                   string
	SiteURL                string
	DiscordUserID          string
	LanyardURL             string
	PresenceReconnectDelay time.Duration
	SpotifyAPIURL          string
	NowPlayingInterval     time.Duration
	HelixAPIURL            string
	LocalStoreDSN          string
	HTTPTimeout            time.Duration
	HTTPMaxRetries         int
	BitsCacheTTL           time.Duration
	ReloadInterval         time.Duration
}

// Load reads the configuration from environment variables.
func Load() Config {
	return Config{
		Port:                   config.GetEnv("PORT", "18030"),
		SiteURL:                strings.TrimRight(config.GetEnv("SITE_URL", ""), "/"),
		DiscordUserID:          config.GetEnv("DISCORD_USER_ID", ""),
		LanyardURL:             config.GetEnv("LANYARD_URL", lanyard.DefaultURL),
		PresenceReconnectDelay: config.GetEnvDuration("PRESENCE_RECONNECT_DELAY", presence.DefaultReconnectDelay),
		SpotifyAPIURL:          config.GetEnv("SPOTIFY_API_URL", spotify.DefaultBaseURL),
		NowPlayingInterval:     config.GetEnvDuration("NOWPLAYING_POLL_INTERVAL", nowplaying.DefaultInterval),
		HelixAPIURL:            config.GetEnv("HELIX_API_URL", helix.DefaultBaseURL),
		LocalStoreDSN:          config.GetEnv("LOCAL_STORE_DSN", DefaultLocalStoreDSN),
		HTTPTimeout:            config.GetEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		HTTPMaxRetries:         config.GetEnvInt("HTTP_MAX_RETRIES", 2),
		BitsCacheTTL:           config.GetEnvDuration("BITS_CACHE_TTL", 30*time.Second),
		ReloadInterval:         config.GetEnvDuration("RELOAD_INTERVAL", dashboard.DefaultReloadInterval),
	}
}

// Executor returns the retry settings shared by every REST gateway.
func (c Config) Executor() clients.HTTPExecutorConfig {
	exec := clients.DefaultHTTPExecutorConfig()
	exec.MaxRetries = c.HTTPMaxRetries
	return exec
}

// SpotifyExecutor makes a single attempt with no circuit breaker. Its
// non-2xx answers mean re-auth, and the poll interval is the retry cadence.
func (c Config) SpotifyExecutor() clients.HTTPExecutorConfig {
	exec := c.Executor()
	exec.MaxRetries = 0
	exec.CircuitBreaker = nil
	return exec
}

// StoreKind names the local store backend for logs and health output.
func (c Config) StoreKind() string {
	dsn := strings.TrimSpace(c.LocalStoreDSN)
	if dsn == "" {
		return "memory"
	}
	if i := strings.Index(dsn, "://"); i > 0 {
		return strings.ToLower(dsn[:i])
	}
	return "unknown"
}
