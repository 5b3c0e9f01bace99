// Package dashboard holds the display state and orchestrates the status
// sources: presence, now playing, gifted subs and the bits leaderboard.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/ordinaryYT/jacweb1/internal/credentials"
	"github.com/ordinaryYT/jacweb1/internal/dualpath"
	"github.com/ordinaryYT/jacweb1/internal/leaderboard"
	"github.com/ordinaryYT/jacweb1/internal/links"
	"github.com/ordinaryYT/jacweb1/internal/localstore"
	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/internal/nowplaying"
	"github.com/ordinaryYT/jacweb1/internal/poll"
	"github.com/ordinaryYT/jacweb1/internal/presence"
	"github.com/ordinaryYT/jacweb1/internal/profile"
	"github.com/ordinaryYT/jacweb1/internal/subs"
	"github.com/ordinaryYT/jacweb1/pkg/clients/helix"
	"github.com/ordinaryYT/jacweb1/pkg/clients/lanyard"
	"github.com/ordinaryYT/jacweb1/pkg/clients/site"
	"github.com/ordinaryYT/jacweb1/pkg/clients/spotify"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// Snapshot is a copy of the display state.
type Snapshot struct {
	Subject         string            `json:"subject"`
	Presence        presence.State    `json:"presence"`
	PresenceLabel   string            `json:"presence_label"`
	NowPlaying      nowplaying.Status `json:"now_playing"`
	NowPlayingLabel string            `json:"now_playing_label"`
	NowPlayingAt    time.Time         `json:"now_playing_at"`
	Subs            []subs.Row        `json:"subs"`
	SubsSource      dualpath.Source   `json:"subs_source"`
	Bits            []leaderboard.Row `json:"bits"`
	BitsError       string            `json:"bits_error,omitempty"`
	BitsAt          time.Time         `json:"bits_at"`
	Profile         profile.Profile   `json:"profile"`
}

const (
	// DefaultReloadInterval is how often operator-edited state is re-read
	// from the stores.
	DefaultReloadInterval = 30 * time.Second

	bitsRefreshTimeout = 30 * time.Second
)

// Config wires a Dashboard to its gateways and stores.
type Config struct {
	// FallbackSubject is used when the site does not supply a presence
	// subject.
	FallbackSubject string

	Site    *site.Client
	Spotify nowplaying.Fetcher
	Helix   leaderboard.Service
	Local   localstore.Store

	RelayURL       string
	RelayDialer    lanyard.Dialer
	ReconnectDelay time.Duration
	PollInterval   time.Duration
	ReloadInterval time.Duration

	Clock   clock.Clock
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Dashboard is safe for concurrent use.
type Dashboard struct {
	site            *site.Client
	fallbackSubject string
	clock           clock.Clock
	logger          logging.Logger

	Presence    *presence.Client
	NowPlaying  *nowplaying.Poller
	Subs        *subs.Store
	Credentials *credentials.Store
	Links       *links.Store
	Profile     *profile.Store
	Bits        *leaderboard.Engine

	reloader   *poll.Scheduler
	bitsFlight singleflight.Group

	// runCtx outlives the request that booted the dashboard; the poller
	// reschedules under it.
	runMu  sync.Mutex
	runCtx context.Context

	mu   sync.RWMutex
	snap Snapshot
}

// New builds a stopped dashboard.
func New(cfg Config) *Dashboard {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger()
	}
	if cfg.Local == nil {
		cfg.Local = localstore.NewMemory()
	}
	if cfg.Spotify == nil {
		cfg.Spotify = spotify.NewClient(spotify.Config{Logger: cfg.Logger})
	}
	if cfg.Helix == nil {
		cfg.Helix = helix.NewClient(helix.Config{Logger: cfg.Logger})
	}

	d := &Dashboard{
		site:            cfg.Site,
		fallbackSubject: cfg.FallbackSubject,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
		runCtx:          context.Background(),
	}
	d.snap = Snapshot{
		Presence:        presence.State{Status: presence.StatusOffline},
		PresenceLabel:   presence.StatusOffline.Label(),
		NowPlaying:      nowplaying.Status{State: nowplaying.StateNotConnected},
		NowPlayingLabel: nowplaying.Status{State: nowplaying.StateNotConnected}.Label(),
		Subs:            []subs.Row{},
		Bits:            []leaderboard.Row{},
	}

	d.Credentials = credentials.New(cfg.Local)
	d.Links = links.New(cfg.Local)
	d.Profile = profile.New(cfg.Local)
	d.Subs = subs.NewStore(cfg.Site, cfg.Local, cfg.Logger, cfg.Metrics)
	d.Bits = leaderboard.NewEngine(d.Credentials, cfg.Helix, cfg.Logger, cfg.Metrics)
	d.Presence = presence.NewClient(presence.Config{
		URL:            cfg.RelayURL,
		ReconnectDelay: cfg.ReconnectDelay,
		Dialer:         cfg.RelayDialer,
		Clock:          cfg.Clock,
		Logger:         cfg.Logger,
		Metrics:        cfg.Metrics,
		OnUpdate:       d.setPresence,
	})
	d.NowPlaying = nowplaying.NewPoller(d.Credentials, cfg.Spotify, nowplaying.Config{
		Interval: cfg.PollInterval,
		Clock:    cfg.Clock,
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
		OnStatus: d.setNowPlaying,
	})
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = DefaultReloadInterval
	}
	d.reloader = poll.New(poll.Config{
		Name:     "reload",
		Interval: cfg.ReloadInterval,
		Clock:    cfg.Clock,
		Logger:   cfg.Logger,
	}, d.Reload)
	return d
}

// Boot resolves the presence subject, starts presence and now-playing, and
// loads gifted subs and profile text, re-reading them every ReloadInterval.
// Background loops run until ctx is done or Shutdown.
func (d *Dashboard) Boot(ctx context.Context) {
	d.runMu.Lock()
	d.runCtx = ctx
	d.runMu.Unlock()

	subject := d.ResolveSubject(ctx)
	d.mu.Lock()
	d.snap.Subject = subject
	d.mu.Unlock()

	d.Presence.Connect(ctx, subject)
	d.NowPlaying.Start(ctx)
	d.reloader.Start(ctx)
}

// Shutdown stops the background loops.
func (d *Dashboard) Shutdown() {
	d.Presence.Stop()
	d.NowPlaying.Stop()
	d.reloader.Stop()
}

// ResolveSubject asks the site for the presence subject and falls back to
// the configured one when the site is unset, unreachable, or returns none.
func (d *Dashboard) ResolveSubject(ctx context.Context) string {
	if d.site.Configured() {
		cfg, err := d.site.Config(ctx)
		switch {
		case err != nil:
			d.logger.WithError(err).Warn("Could not load site config; using local presence subject")
		case cfg.Subject() != "":
			return cfg.Subject()
		}
	}
	return d.fallbackSubject
}

// Snapshot returns a copy of the display state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := d.snap
	snap.Subs = append([]subs.Row(nil), d.snap.Subs...)
	snap.Bits = append([]leaderboard.Row(nil), d.snap.Bits...)
	return snap
}

// LastNowPlaying is when the poller last reported.
func (d *Dashboard) LastNowPlaying() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap.NowPlayingAt
}

func (d *Dashboard) setPresence(state presence.State) {
	d.mu.Lock()
	d.snap.Presence = state
	d.snap.PresenceLabel = state.Status.Label()
	d.mu.Unlock()
}

func (d *Dashboard) setNowPlaying(status nowplaying.Status) {
	d.mu.Lock()
	d.snap.NowPlaying = status
	d.snap.NowPlayingLabel = status.Label()
	d.snap.NowPlayingAt = d.clock.Now()
	d.mu.Unlock()
}

// Reload re-reads the operator-edited state: gifted subs and profile text.
// Edits made by another process show up after the next Reload.
func (d *Dashboard) Reload(ctx context.Context) {
	d.ReloadSubs(ctx)
	d.ReloadProfile(ctx)
}

// ReloadProfile reads the About content and status text. A failed read keeps
// the previous values.
func (d *Dashboard) ReloadProfile(ctx context.Context) profile.Profile {
	p, err := d.Profile.Load(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Failed to load profile text")
		return d.Snapshot().Profile
	}
	d.mu.Lock()
	d.snap.Profile = p
	d.mu.Unlock()
	return p
}

// ReloadSubs reads the gifted subs from whichever path answers and refreshes
// the display rows.
func (d *Dashboard) ReloadSubs(ctx context.Context) ([]subs.Row, dualpath.Source) {
	entries, source := d.Subs.Read(ctx)
	rows := subs.Rows(entries)

	d.mu.Lock()
	d.snap.Subs = rows
	d.snap.SubsSource = source
	d.mu.Unlock()
	return rows, source
}

// AddOrUpdateSub trims and validates one entry, stores it, then reloads the
// rows.
func (d *Dashboard) AddOrUpdateSub(ctx context.Context, entry subs.SubEntry) (dualpath.Source, error) {
	entry = entry.Trimmed()
	if err := entry.Validate(); err != nil {
		return "", err
	}
	source, err := d.Subs.Upsert(ctx, entry)
	if err != nil {
		return source, err
	}
	d.ReloadSubs(ctx)
	return source, nil
}

// ResetSubs deletes every entry, then reloads the rows.
func (d *Dashboard) ResetSubs(ctx context.Context) (dualpath.Source, error) {
	source, err := d.Subs.DeleteAll(ctx)
	if err != nil {
		return source, err
	}
	d.ReloadSubs(ctx)
	return source, nil
}

// SaveSpotifyToken stores the token and restarts the poller so the new token
// is used immediately.
func (d *Dashboard) SaveSpotifyToken(ctx context.Context, token string) error {
	if err := d.Credentials.SaveSpotifyToken(ctx, token); err != nil {
		return err
	}
	d.runMu.Lock()
	runCtx := d.runCtx
	d.runMu.Unlock()
	d.NowPlaying.Restart(runCtx)
	return nil
}

// SaveTwitchCredentials stores both halves of the leaderboard credential.
func (d *Dashboard) SaveTwitchCredentials(ctx context.Context, creds helix.Credentials) error {
	return d.Credentials.SaveTwitch(ctx, creds)
}

// RefreshBits runs a leaderboard refresh. Concurrent calls for the same count
// and period share one upstream round trip, which is not tied to any one
// caller's context. The outcome, success or error, is recorded in the
// snapshot.
func (d *Dashboard) RefreshBits(ctx context.Context, count int, period string) ([]leaderboard.Row, error) {
	count = leaderboard.ClampCount(count)
	if p, err := leaderboard.ParsePeriod(period); err == nil {
		period = string(p)
	}
	key := fmt.Sprintf("%d|%s", count, period)
	ch := d.bitsFlight.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bitsRefreshTimeout)
		defer cancel()
		return d.Bits.Refresh(callCtx, count, period)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err := res.Val, res.Err

	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.BitsAt = d.clock.Now()
	if err != nil {
		d.snap.BitsError = err.Error()
		return nil, err
	}
	rows := v.([]leaderboard.Row)
	d.snap.Bits = rows
	d.snap.BitsError = ""
	return append([]leaderboard.Row(nil), rows...), nil
}
