package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ordinaryYT/jacweb1/pkg/cache"
	"github.com/ordinaryYT/jacweb1/pkg/monitoring"
)

// Metrics holds all Prometheus metrics for the legendboard service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Presence relay
	PresenceConnects   *prometheus.CounterVec
	PresenceReconnects *prometheus.CounterVec
	PresenceUpdates    *prometheus.CounterVec
	PresenceConnected  *prometheus.GaugeVec

	// Now-playing poller
	NowPlayingPolls *prometheus.CounterVec

	// Dual-path stores
	StoreOperations *prometheus.CounterVec

	// Bits leaderboard
	LeaderboardRefreshes *prometheus.CounterVec
	LeaderboardDuration  *prometheus.HistogramVec

	// Response caches
	CacheEvents *prometheus.CounterVec
}

// New creates the service metrics on mc's registry.
func New(mc *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		PresenceConnects:     mc.NewCounter("presence_connects_total", "Presence relay connection attempts", []string{"result"}),
		PresenceReconnects:   mc.NewCounter("presence_reconnects_total", "Presence relay reconnects scheduled", []string{"subject"}),
		PresenceUpdates:      mc.NewCounter("presence_updates_total", "Presence updates applied", []string{"status"}),
		PresenceConnected:    mc.NewGauge("presence_connected", "Whether the presence relay connection is open", []string{"subject"}),
		NowPlayingPolls:      mc.NewCounter("nowplaying_polls_total", "Now-playing poll cycles by outcome", []string{"state"}),
		StoreOperations:      mc.NewCounter("store_operations_total", "Dual-path store operations by serving path", []string{"resource", "operation", "source"}),
		LeaderboardRefreshes: mc.NewCounter("leaderboard_refreshes_total", "Bits leaderboard refreshes", []string{"result"}),
		LeaderboardDuration:  mc.NewHistogram("leaderboard_refresh_duration_seconds", "Bits leaderboard refresh latency", []string{"result"}, nil),
		CacheEvents:          mc.NewCounter("cache_events_total", "Response cache hits, misses, stores and load errors", []string{"cache", "event"}),
	}
}

func (m *Metrics) PresenceConnect(result string) {
	if m == nil {
		return
	}
	m.PresenceConnects.WithLabelValues(result).Inc()
}

func (m *Metrics) PresenceReconnect(subject string) {
	if m == nil {
		return
	}
	m.PresenceReconnects.WithLabelValues(subject).Inc()
}

func (m *Metrics) PresenceUpdate(status string) {
	if m == nil {
		return
	}
	m.PresenceUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) SetPresenceConnected(subject string, connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.PresenceConnected.WithLabelValues(subject).Set(v)
}

func (m *Metrics) NowPlayingPoll(state string) {
	if m == nil {
		return
	}
	m.NowPlayingPolls.WithLabelValues(state).Inc()
}

func (m *Metrics) StoreOperation(resource, operation, source string) {
	if m == nil {
		return
	}
	m.StoreOperations.WithLabelValues(resource, operation, source).Inc()
}

func (m *Metrics) LeaderboardRefresh(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.LeaderboardRefreshes.WithLabelValues(result).Inc()
	m.LeaderboardDuration.WithLabelValues(result).Observe(took.Seconds())
}

// CacheHooks counts events for the named cache. Keys are not used as labels.
func (m *Metrics) CacheHooks(name string) cache.MetricsHooks {
	if m == nil {
		return cache.MetricsHooks{}
	}
	count := func(event string) func(map[string]string) {
		return func(map[string]string) {
			m.CacheEvents.WithLabelValues(name, event).Inc()
		}
	}
	return cache.MetricsHooks{
		OnHit:   count("hit"),
		OnMiss:  count("miss"),
		OnStore: count("store"),
		OnError: count("error"),
	}
}
