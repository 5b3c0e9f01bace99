package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ordinaryYT/jacweb1/pkg/monitoring"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.PresenceConnect("ok")
	m.PresenceReconnect("1")
	m.PresenceUpdate("online")
	m.SetPresenceConnected("1", true)
	m.NowPlayingPoll("connected")
	m.StoreOperation("subs", "read", "local")
	m.LeaderboardRefresh("ok", time.Second)
	if hooks := m.CacheHooks("bits"); hooks.OnHit != nil {
		t.Fatalf("expected empty hooks from nil metrics")
	}
}

func TestMetricsRecord(t *testing.T) {
	m := New(monitoring.NewMetricsCollector("legendboard", "test", "none"))

	m.StoreOperation("subs", "upsert", "local")
	m.StoreOperation("subs", "upsert", "local")
	m.SetPresenceConnected("42", true)
	m.LeaderboardRefresh("error", 10*time.Millisecond)

	if got := testutil.ToFloat64(m.StoreOperations.WithLabelValues("subs", "upsert", "local")); got != 2 {
		t.Fatalf("expected 2 store ops, got %v", got)
	}
	if got := testutil.ToFloat64(m.PresenceConnected.WithLabelValues("42")); got != 1 {
		t.Fatalf("expected connected gauge 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.LeaderboardRefreshes.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 refresh, got %v", got)
	}
}

func TestCacheHooksCountEvents(t *testing.T) {
	m := New(monitoring.NewMetricsCollector("legendboard", "test", "none"))
	hooks := m.CacheHooks("bits")

	hooks.OnMiss(map[string]string{"key": "10|all"})
	hooks.OnHit(map[string]string{"key": "10|all"})
	hooks.OnHit(map[string]string{"key": "5|day"})

	if got := testutil.ToFloat64(m.CacheEvents.WithLabelValues("bits", "hit")); got != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheEvents.WithLabelValues("bits", "miss")); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
}
