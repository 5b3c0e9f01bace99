// Package presence keeps a live presence feed for one subject over the relay
// socket, reconnecting after a fixed delay for as long as it runs.
package presence

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ordinaryYT/jacweb1/internal/metrics"
	"github.com/ordinaryYT/jacweb1/pkg/clients"
	"github.com/ordinaryYT/jacweb1/pkg/clients/lanyard"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

// DefaultReconnectDelay is the fixed wait between a closed connection and the
// next attempt.
const DefaultReconnectDelay = 3 * time.Second

// Status is a chat presence status.
type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusDND     Status = "dnd"
	StatusOffline Status = "offline"
)

// ParseStatus maps a relay status to a Status. Unknown and empty values are
// offline.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOnline:
		return StatusOnline
	case StatusIdle:
		return StatusIdle
	case StatusDND:
		return StatusDND
	default:
		return StatusOffline
	}
}

// Label capitalises the status for display: "Online", "Dnd".
func (s Status) Label() string {
	return cases.Title(language.Und).String(string(s))
}

// State is the latest known presence.
type State struct {
	Subject   string    `json:"subject"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config configures a Client.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	Dialer         lanyard.Dialer
	Clock          clock.Clock
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	// OnUpdate is called, in receive order, after each applied update.
	OnUpdate func(State)
}

// Client owns the relay connection. The zero subject disables it.
type Client struct {
	url      string
	delay    time.Duration
	dialer   lanyard.Dialer
	clock    clock.Clock
	logger   logging.Logger
	metrics  *metrics.Metrics
	onUpdate func(State)

	// lifecycle guards subject, cancel and done.
	lifecycle sync.Mutex
	subject   string
	cancel    context.CancelFunc
	done      chan struct{}

	mu    sync.RWMutex
	state State

	dials      atomic.Uint64
	reconnects atomic.Uint64
	connected  atomic.Bool
}

// NewClient creates a stopped client.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = lanyard.DefaultURL
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = lanyard.WebsocketDialer{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger()
	}
	return &Client{
		url:      cfg.URL,
		delay:    cfg.ReconnectDelay,
		dialer:   cfg.Dialer,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		onUpdate: cfg.OnUpdate,
		state:    State{Status: StatusOffline},
	}
}

// Connect starts following subject in the background. An empty subject is a
// no-op, as is connecting again to the subject already followed. A different
// subject replaces the running loop.
func (c *Client) Connect(ctx context.Context, subject string) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		c.logger.Info("No presence subject configured; presence disabled")
		return
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.cancel != nil && c.subject == subject {
		return
	}
	c.stopLocked()

	c.mu.Lock()
	c.state = State{Subject: subject, Status: StatusOffline}
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.subject = subject
	c.cancel = cancel
	c.done = done

	go c.run(loopCtx, subject, done)
}

// Stop ends the loop and closes the live connection. It waits for the loop
// to exit.
func (c *Client) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stopLocked()
}

func (c *Client) stopLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	c.subject = ""
}

// State returns the latest presence.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Label returns the display label of the latest status.
func (c *Client) Label() string {
	return c.State().Status.Label()
}

// Connected reports whether a relay connection is open right now.
func (c *Client) Connected() bool { return c.connected.Load() }

// Dials returns how many connection attempts have been made.
func (c *Client) Dials() uint64 { return c.dials.Load() }

// Reconnects returns how many reconnects have been scheduled.
func (c *Client) Reconnects() uint64 { return c.reconnects.Load() }

func (c *Client) run(ctx context.Context, subject string, done chan struct{}) {
	defer close(done)
	log := c.logger.WithField("subject", subject)

	for {
		err := c.session(ctx, subject)
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).WithField("delay", c.delay).Warn("Presence connection closed; reconnecting")

		timer := c.clock.Timer(c.delay)
		c.reconnects.Add(1)
		c.metrics.PresenceReconnect(subject)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session runs one connection from dial to close. It always returns a
// non-nil error unless ctx was cancelled.
func (c *Client) session(ctx context.Context, subject string) error {
	c.dials.Add(1)
	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		c.metrics.PresenceConnect("error")
		return err
	}
	c.metrics.PresenceConnect("ok")

	sessCtx, cancel := context.WithCancel(ctx)
	var heartbeats sync.WaitGroup
	stopClose := context.AfterFunc(sessCtx, func() { _ = conn.Close() })
	defer func() {
		cancel()
		stopClose()
		_ = conn.Close()
		heartbeats.Wait()
		c.connected.Store(false)
		c.metrics.SetPresenceConnected(subject, false)
	}()

	c.connected.Store(true)
	c.metrics.SetPresenceConnected(subject, true)

	if err := conn.WriteFrame(lanyard.SubscribeFrame(subject)); err != nil {
		return err
	}

	heartbeating := false
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if clients.KindOf(err) == clients.KindMalformed {
				c.logger.WithError(err).Debug("Discarding malformed presence frame")
				continue
			}
			return err
		}

		switch {
		case frame.Op == lanyard.OpHello:
			interval, err := lanyard.HeartbeatInterval(frame)
			if err != nil || interval <= 0 || heartbeating {
				continue
			}
			heartbeating = true
			heartbeats.Add(1)
			go func() {
				defer heartbeats.Done()
				c.heartbeat(sessCtx, conn, interval)
			}()
		case frame.IsPresence():
			c.apply(subject, frame)
		}
	}
}

func (c *Client) heartbeat(ctx context.Context, conn lanyard.Conn, interval time.Duration) {
	ticker := c.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteFrame(lanyard.HeartbeatFrame()); err != nil {
				c.logger.WithError(err).Debug("Presence heartbeat failed")
				return
			}
		}
	}
}

func (c *Client) apply(subject string, frame lanyard.Frame) {
	p, err := lanyard.DecodePresence(frame.D, subject)
	if err != nil {
		c.logger.WithError(err).WithField("event", frame.T).Debug("Discarding presence payload")
		return
	}

	state := State{
		Subject:   subject,
		Status:    ParseStatus(p.DiscordStatus),
		UpdatedAt: c.clock.Now(),
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.metrics.PresenceUpdate(string(state.Status))
	if c.onUpdate != nil {
		c.onUpdate(state)
	}
}
