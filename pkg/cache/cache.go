// Package cache is a small in-process TTL cache with per-key load
// deduplication.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"
)

type Options struct {
	TTL time.Duration
	// NegativeTTL caches loader errors. Zero means errors are not cached.
	NegativeTTL time.Duration
	// MaxEntries bounds the cache; the oldest key is evicted first.
	MaxEntries int
	Clock      clock.Clock
}

type MetricsHooks struct {
	OnHit   func(labels map[string]string)
	OnMiss  func(labels map[string]string)
	OnStore func(labels map[string]string)
	OnError func(labels map[string]string)
}

type entry[V any] struct {
	value     V
	err       error
	expiresAt time.Time
}

// Loader produces the value for key on a miss.
type Loader[V any] func(ctx context.Context, key string) (V, error)

type Cache[V any] struct {
	clock   clock.Clock
	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group

	mu    sync.Mutex
	items map[string]*entry[V]
	order []string
}

func New[V any](opts Options, hooks MetricsHooks) *Cache[V] {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Cache[V]{
		clock:   clk,
		opts:    opts,
		metrics: hooks,
		items:   make(map[string]*entry[V]),
	}
}

// Get returns the cached value for key, loading it on a miss. Concurrent
// misses for one key share a single load.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, error) {
	if e, ok := c.lookup(key); ok {
		fire(c.metrics.OnHit, key)
		return e.value, e.err
	}

	fire(c.metrics.OnMiss, key)
	v, err, _ := c.sf.Do(key, func() (any, error) {
		val, err := loader(ctx, key)
		c.store(key, val, err)
		return val, err
	})
	val, _ := v.(V)
	return val, err
}

func (c *Cache[V]) lookup(key string) (*entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.deleteLocked(key)
		return nil, false
	}
	return e, true
}

func (c *Cache[V]) store(key string, val V, err error) {
	ttl := c.opts.TTL
	if err != nil {
		fire(c.metrics.OnError, key)
		if c.opts.NegativeTTL <= 0 {
			return
		}
		ttl = c.opts.NegativeTTL
		var zero V
		val = zero
	}
	if ttl <= 0 {
		return
	}
	c.put(key, &entry[V]{value: val, err: err, expiresAt: c.clock.Now().Add(ttl)})
	fire(c.metrics.OnStore, key)
}

func (c *Cache[V]) put(key string, e *entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = e
	for c.opts.MaxEntries > 0 && len(c.items) > c.opts.MaxEntries && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
	}
}

func (c *Cache[V]) deleteLocked(key string) {
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func fire(hook func(map[string]string), key string) {
	if hook != nil {
		hook(map[string]string{"key": key})
	}
}
