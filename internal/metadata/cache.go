package metadata

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/utils"
)

type cacheEntry struct {
	value   string
	expires time.Time
}

// CacheStats is a point-in-time view of a KVCache
type CacheStats struct {
	Entries int     `json:"entries"`
	Expired int     `json:"expired"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	TTL     float64 `json:"ttl_seconds"`
}

// KVCache is a TTL cache of string values. Expired entries read as misses
// and are swept on a CacheCleanupInterval ticker.
type KVCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
	hits    uint64
	misses  uint64
	// gen changes on every Set, Delete and Clear; a Load only stores its
	// result when gen is unchanged since the miss
	gen uint64

	stopCh chan struct{}
	once   sync.Once
}

// NewKVCache creates a new key-value cache. Expiry is measured on clock.
func NewKVCache(ttl time.Duration, clock clockwork.Clock) *KVCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &KVCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		clock:   clock,
		stopCh:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Get returns the live value for key
func (c *KVCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok, _ := c.lookupLocked(key)
	return v, ok
}

func (c *KVCache) lookupLocked(key string) (string, bool, uint64) {
	e, ok := c.entries[key]
	if !ok || c.clock.Now().After(e.expires) {
		c.misses++
		return "", false, c.gen
	}
	c.hits++
	return e.value, true, c.gen
}

// Set stores value under key for one ttl
func (c *KVCache) Set(key, value string) {
	c.mu.Lock()
	c.gen++
	c.entries[key] = cacheEntry{value: value, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Load returns the cached value for key, calling load on a miss. The result
// is cached only if no Set, Delete or Clear happened while load ran, so an
// invalidation during a load is never undone by it. Load errors are not
// cached.
func (c *KVCache) Load(ctx context.Context, key string, load func(context.Context) (string, error)) (string, error) {
	c.mu.Lock()
	v, ok, gen := c.lookupLocked(key)
	c.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.entries[key] = cacheEntry{value: v, expires: c.clock.Now().Add(c.ttl)}
	}
	c.mu.Unlock()
	return v, nil
}

// Delete drops key
func (c *KVCache) Delete(key string) {
	c.mu.Lock()
	c.gen++
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry
func (c *KVCache) Clear() {
	c.mu.Lock()
	c.gen++
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Stop ends the sweeper. It is safe to call more than once.
func (c *KVCache) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}

// Stats reports entry counts and hit ratio inputs
func (c *KVCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	st := CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		TTL:     c.ttl.Seconds(),
	}
	for _, e := range c.entries {
		if now.After(e.expires) {
			st.Expired++
		}
	}
	return st
}

func (c *KVCache) run() {
	ticker := c.clock.NewTicker(utils.CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

// sweep removes expired entries
func (c *KVCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for key, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, key)
		}
	}
}
