package nowplaying

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/internal/poll"
	"github.com/ordinaryYT/jacweb1/pkg/clients/spotify"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// DefaultInterval is the delay between polls.
const DefaultInterval = 15 * time.Second

// TokenSource yields the current bearer token, "" when none is saved.
type TokenSource interface {
	SpotifyToken(ctx context.Context) (string, error)
}

// Fetcher is the gateway call the poller makes.
type Fetcher interface {
	CurrentlyPlaying(ctx context.Context, token string) (*spotify.CurrentlyPlaying, error)
}

// Config configures a Poller.
type Config struct {
	Interval time.Duration
	Clock    clock.Clock
	Logger   logging.Logger
	Metrics  *metrics.Metrics
	// OnStatus is called after every tick with the new status.
	OnStatus func(Status)
}

// Poller re-reads the token on every tick, so a newly saved token is picked
// up by the next tick without a restart.
type Poller struct {
	tokens    TokenSource
	fetcher   Fetcher
	logger    logging.Logger
	metrics   *metrics.Metrics
	onStatus  func(Status)
	scheduler *poll.Scheduler

	mu     sync.RWMutex
	status Status
}

// NewPoller creates a stopped poller. The initial status is NotConnected.
func NewPoller(tokens TokenSource, fetcher Fetcher, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger()
	}
	p := &Poller{
		tokens:   tokens,
		fetcher:  fetcher,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		onStatus: cfg.OnStatus,
		status:   Status{State: StateNotConnected},
	}
	p.scheduler = poll.New(poll.Config{
		Name:     "nowplaying",
		Interval: cfg.Interval,
		Clock:    cfg.Clock,
		Logger:   cfg.Logger,
	}, func(ctx context.Context) { p.Tick(ctx) })
	return p
}

// Start runs a tick now and keeps polling until ctx is done or Stop.
func (p *Poller) Start(ctx context.Context) { p.scheduler.Start(ctx) }

// Restart supersedes the running loop; used after a token is saved.
func (p *Poller) Restart(ctx context.Context) { p.scheduler.Start(ctx) }

// Stop cancels the pending poll.
func (p *Poller) Stop() { p.scheduler.Stop() }

// Status returns the latest status.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Tick performs one poll and records its outcome.
func (p *Poller) Tick(ctx context.Context) Status {
	status := p.fetch(ctx)

	p.mu.Lock()
	changed := p.status.Label() != status.Label()
	p.status = status
	p.mu.Unlock()

	p.metrics.NowPlayingPoll(string(status.State))
	if changed {
		p.logger.WithFields(logging.Fields{
			"state": status.State,
			"label": status.Label(),
		}).Info("Now playing changed")
	}
	if p.onStatus != nil {
		p.onStatus(status)
	}
	return status
}

func (p *Poller) fetch(ctx context.Context) Status {
	token, err := p.tokens.SpotifyToken(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Could not read spotify token")
		return Status{State: StateTransientError}
	}
	if token == "" {
		return Status{State: StateNotConnected}
	}
	resp, err := p.fetcher.CurrentlyPlaying(ctx, token)
	if err != nil {
		p.logger.WithError(err).Debug("Currently playing request failed")
	}
	return Interpret(resp, err)
}
