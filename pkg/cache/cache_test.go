package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestCacheGetHitMissExpiry(t *testing.T) {
	mock := clock.NewMock()
	var hits, misses int
	c := New[int](Options{TTL: 20 * time.Millisecond, Clock: mock}, MetricsHooks{
		OnHit:  func(map[string]string) { hits++ },
		OnMiss: func(map[string]string) { misses++ },
	})

	calls := 0
	loader := func(context.Context, string) (int, error) {
		calls++
		return calls, nil
	}

	for i := 0; i < 3; i++ {
		val, err := c.Get(context.Background(), "alpha", loader)
		if err != nil || val != 1 {
			t.Fatalf("expected cached first load, got %d %v", val, err)
		}
	}
	mock.Add(20 * time.Millisecond)
	val, err := c.Get(context.Background(), "alpha", loader)
	if err != nil || val != 2 {
		t.Fatalf("expected reload after expiry, got %d %v", val, err)
	}
	if hits != 2 || misses != 2 {
		t.Fatalf("expected 2 hits and 2 misses, got %d/%d", hits, misses)
	}
}

func TestCacheErrorsAreNotCachedByDefault(t *testing.T) {
	c := New[int](Options{TTL: time.Minute, Clock: clock.NewMock()}, MetricsHooks{})
	boom := errors.New("boom")

	calls := 0
	loader := func(context.Context, string) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := c.Get(context.Background(), "k", loader); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if val, err := c.Get(context.Background(), "k", loader); err != nil || val != 7 {
		t.Fatalf("expected fresh load after error, got %d %v", val, err)
	}
}

func TestCacheNegativeTTL(t *testing.T) {
	mock := clock.NewMock()
	c := New[int](Options{TTL: time.Minute, NegativeTTL: time.Second, Clock: mock}, MetricsHooks{})
	boom := errors.New("boom")

	calls := 0
	loader := func(context.Context, string) (int, error) {
		calls++
		return 0, boom
	}

	_, _ = c.Get(context.Background(), "k", loader)
	if _, err := c.Get(context.Background(), "k", loader); !errors.Is(err, boom) {
		t.Fatalf("expected cached error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}

	mock.Add(time.Second)
	_, _ = c.Get(context.Background(), "k", loader)
	if calls != 2 {
		t.Fatalf("expected reload after negative ttl, got %d", calls)
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := New[string](Options{TTL: time.Minute, MaxEntries: 2, Clock: clock.NewMock()}, MetricsHooks{})

	loads := map[string]int{}
	loader := func(_ context.Context, key string) (string, error) {
		loads[key]++
		return key, nil
	}
	for _, key := range []string{"a", "b", "c", "c", "b"} {
		if _, err := c.Get(context.Background(), key, loader); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if loads["b"] != 1 || loads["c"] != 1 {
		t.Fatalf("expected newer entries to stay cached, got %v", loads)
	}

	_, _ = c.Get(context.Background(), "a", loader)
	if loads["a"] != 2 {
		t.Fatalf("expected oldest entry to be evicted and reloaded, got %d loads", loads["a"])
	}
}

func TestCacheDeduplicatesConcurrentLoads(t *testing.T) {
	c := New[int](Options{TTL: time.Minute}, MetricsHooks{})

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context, string) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if val, err := c.Get(context.Background(), "k", loader); err != nil || val != 42 {
				t.Errorf("unexpected %d %v", val, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single load, got %d", got)
	}
}
