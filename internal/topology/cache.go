package topology

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/kneutral-org/inventory-dashboard/internal/metrics"
)

// DefaultCacheTTL is how long a snapshot is served before it is rebuilt.
const DefaultCacheTTL = 30 * time.Second

var (
	// ErrNoLoader is returned when a cache is used without a loader.
	ErrNoLoader = errors.New("topology cache has no loader")
)

// Loader fetches raw inventory and builds a fresh snapshot.
type Loader func(ctx context.Context) (*Topology, error)

// CacheConfig holds configuration for the topology cache.
type CacheConfig struct {
	TTL            time.Duration // Freshness window of a snapshot
	RefreshTimeout time.Duration // Upper bound for one rebuild (0 = none)
	Logger         zerolog.Logger
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:            DefaultCacheTTL,
		RefreshTimeout: time.Minute,
		Logger:         zerolog.Nop(),
	}
}

// Cache serves the current snapshot and rebuilds it when it is older than the
// TTL. Concurrent callers that find the snapshot stale share one rebuild.
type Cache struct {
	mu       sync.RWMutex
	current  *Topology
	loadedAt time.Time

	group  singleflight.Group
	loader Loader
	config CacheConfig
	logger zerolog.Logger
	now    func() time.Time

	// OnRefresh, when set, is called after every rebuild attempt.
	OnRefresh func(t *Topology, err error)
}

// NewCache creates a cache around loader.
func NewCache(loader Loader, config CacheConfig) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}
	return &Cache{
		loader: loader,
		config: config,
		logger: config.Logger.With().Str("component", "topology_cache").Logger(),
		now:    time.Now,
	}
}

const refreshKey = "topology"

// Get returns a fresh snapshot, rebuilding it if needed. A caller whose
// context ends stops waiting, but the rebuild it joined keeps running for
// the other waiters.
func (c *Cache) Get(ctx context.Context) (*Topology, error) {
	if t := c.fresh(); t != nil {
		metrics.RecordCacheOperation("topology", "hit")
		return t, nil
	}
	metrics.RecordCacheOperation("topology", "miss")

	if c.loader == nil {
		return nil, ErrNoLoader
	}

	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Topology), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh runs inside the single flight. Only a fully built snapshot is
// published; on failure the slot is emptied so the next call retries.
func (c *Cache) refresh(ctx context.Context) (*Topology, error) {
	// A rebuild may have landed between the freshness check and joining the flight.
	if t := c.fresh(); t != nil {
		return t, nil
	}

	if c.config.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RefreshTimeout)
		defer cancel()
	}

	c.logger.Info().Msg("fetching topology")
	start := c.now()
	t, err := c.loader(ctx)
	elapsed := c.now().Sub(start)
	metrics.RecordTopologyRefresh(err, elapsed.Seconds())

	if err != nil {
		c.mu.Lock()
		c.current = nil
		c.loadedAt = time.Time{}
		c.mu.Unlock()

		c.logger.Error().Err(err).Dur("duration", elapsed).Msg("topology refresh failed")
		c.notify(nil, err)
		return nil, err
	}

	c.mu.Lock()
	c.current = t
	c.loadedAt = c.now()
	c.mu.Unlock()

	s := t.Summary()
	metrics.SetTopologySize(s.Devices, s.Ports, s.Links, s.Sites, s.Locations)
	c.logger.Info().
		Int("devices", s.Devices).
		Int("links", s.Links).
		Int("sites", s.Sites).
		Int("locations", s.Locations).
		Dur("duration", elapsed).
		Msg("topology refreshed")
	c.notify(t, nil)
	return t, nil
}

func (c *Cache) notify(t *Topology, err error) {
	if c.OnRefresh != nil {
		c.OnRefresh(t, err)
	}
}

// fresh returns the cached snapshot if it is still within the TTL.
func (c *Cache) fresh() *Topology {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || c.now().Sub(c.loadedAt) >= c.config.TTL {
		return nil
	}
	return c.current
}

// Peek returns the cached snapshot and its load time without triggering a
// rebuild, even if it is stale.
func (c *Cache) Peek() (*Topology, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current, c.loadedAt, c.current != nil
}

// Invalidate drops the cached snapshot so the next Get rebuilds it. A rebuild
// already in flight still publishes its result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.loadedAt = time.Time{}
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.config.TTL
}
