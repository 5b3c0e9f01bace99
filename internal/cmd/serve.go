package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ordinaryYT/jacweb1/internal/handlers"
	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/monitoring"
	"github.com/ordinaryYT/jacweb1/pkg/server"
	"github.com/ordinaryYT/jacweb1/pkg/version"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run presence, now playing and the status API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, o)
		},
	}
}

func runServe(ctx context.Context, o *rootOptions) error {
	cfg := o.config()
	logger := o.log()

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	m := metrics.New(metricsCollector)
	a, err := newApp(ctx, cfg, logger, appOptions{
		metrics:  m,
		breakers: metricsCollector.Registry(),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	healthChecker.AddCheck("local_store", monitoring.PingHealthCheck("local store", a.local))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"SITE_URL":        cfg.SiteURL,
		"DISCORD_USER_ID": cfg.DiscordUserID,
	}))
	if a.site.Configured() {
		healthChecker.AddCheck("site", monitoring.HTTPServiceHealthCheck("site", cfg.SiteURL+"/api/config"))
	}
	healthChecker.AddCheck("nowplaying", monitoring.FreshnessHealthCheck("now playing", a.dash.LastNowPlaying, 3*cfg.NowPlayingInterval))

	logger.WithField("store", cfg.StoreKind()).Info("Starting legendboard")
	a.dash.Boot(ctx)

	router := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)
	handlers.New(a.dash, a.dash.Links, cfg.DiscordUserID, logger).
		WithBitsCache(cfg.BitsCacheTTL, m.CacheHooks("bits")).
		Register(router)

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	serverConfig.Port = cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx, serverConfig, router, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.dash.Shutdown()
		return nil
	})
	return g.Wait()
}
