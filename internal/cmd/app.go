package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ordinaryYT/jacweb1/internal/config"
	"github.com/ordinaryYT/jacweb1/internal/dashboard"
	"github.com/ordinaryYT/jacweb1/internal/localstore"
	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
	"github.com/ordinaryYT/jacweb1/pkg/clients/lanyard"
	"github.com/ordinaryYT/jacweb1/pkg/clients/site"
	"github.com/ordinaryYT/jacweb1/pkg/clients/spotify"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// app is everything a command needs, built from the environment.
type app struct {
	cfg    config.Config
	logger logging.Logger
	local  localstore.Backend
	site   *site.Client
	dash   *dashboard.Dashboard
}

type appOptions struct {
	// metrics and breakers are only wired for serve.
	metrics  *metrics.Metrics
	breakers prometheus.Registerer
}

func newApp(ctx context.Context, cfg config.Config, logger logging.Logger, opts appOptions) (*app, error) {
	local, err := localstore.Open(ctx, cfg.LocalStoreDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	var onStateChange func(string, clients.CircuitBreakerState, clients.CircuitBreakerState)
	if opts.breakers != nil {
		onStateChange = clients.NewBreakerMetrics(opts.breakers).Callback()
	}
	executor := func(name string) clients.HTTPExecutorConfig {
		exec := cfg.Executor()
		breaker := clients.DefaultCircuitBreakerConfig(name)
		breaker.Logger = logger
		breaker.OnStateChange = onStateChange
		exec.CircuitBreaker = clients.NewHTTPCircuitBreaker(breaker)
		return exec
	}

	siteClient := site.NewClient(site.ClientConfig{
		BaseURL:    cfg.SiteURL,
		HTTPClient: clients.NewHTTPClient(cfg.HTTPTimeout),
		Executor:   executor("site"),
		Logger:     logger,
	})
	dash := dashboard.New(dashboard.Config{
		FallbackSubject: cfg.DiscordUserID,
		Site:            siteClient,
		Spotify: spotify.NewClient(spotify.Config{
			BaseURL:    cfg.SpotifyAPIURL,
			HTTPClient: clients.NewHTTPClient(cfg.HTTPTimeout),
			Executor:   cfg.SpotifyExecutor(),
			Logger:     logger,
		}),
		Helix: helix.NewClient(helix.Config{
			BaseURL:    cfg.HelixAPIURL,
			HTTPClient: clients.NewHTTPClient(cfg.HTTPTimeout),
			Executor:   executor("helix"),
			Logger:     logger,
		}),
		Local:          local,
		RelayURL:       cfg.LanyardURL,
		RelayDialer:    lanyard.WebsocketDialer{HandshakeTimeout: cfg.HTTPTimeout},
		ReconnectDelay: cfg.PresenceReconnectDelay,
		PollInterval:   cfg.NowPlayingInterval,
		ReloadInterval: cfg.ReloadInterval,
		Logger:         logger,
		Metrics:        opts.metrics,
	})

	return &app{cfg: cfg, logger: logger, local: local, site: siteClient, dash: dash}, nil
}

func (a *app) Close() {
	a.dash.Shutdown()
	if err := a.local.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close local store")
	}
}
