// Package cache is the in-process TTL cache in front of the aggregation
// services. Entries are bounded by count; on overflow the oldest-inserted
// entry is evicted.
package cache

import (
	"container/list"
	"path"
	"sync"
	"time"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 1000
)

type Options struct {
	TTL           time.Duration
	MaxEntries    int
	SweepInterval time.Duration
}

type entry struct {
	key        string
	value      any
	insertedAt time.Time
	expiresAt  time.Time
	elem       *list.Element
}

type Stats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
	Expired    uint64 `json:"expired"`
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	items      map[string]*entry
	order      *list.List
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits, misses, evictions, expired uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a cache. A positive SweepInterval starts a janitor goroutine
// that removes expired entries until Close is called.
func New(opts Options) *Cache {
	c := &Cache{
		items:      make(map[string]*entry),
		order:      list.New(),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if opts.SweepInterval > 0 {
		go c.janitor(opts.SweepInterval)
	}
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.expiredLocked(e) {
		c.removeLocked(e)
		c.expired++
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key. A ttl <= 0 uses the cache default. Re-setting a
// key counts as a fresh insert for eviction order.
func (c *Cache) Set(key string, value any, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items[key]; ok {
		c.removeLocked(old)
	}
	now := c.now()
	e := &entry{key: key, value: value, insertedAt: now, expiresAt: now.Add(ttl)}
	e.elem = c.order.PushBack(e)
	c.items[key] = e

	for len(c.items) > c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry))
		c.evictions++
	}
	return true
}

func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(e)
	return true
}

func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	if c.expiredLocked(e) {
		c.removeLocked(e)
		c.expired++
		return false
	}
	return true
}

// DeletePattern removes every key matching the shell glob pattern (see
// path.Match) and reports how many were removed. A malformed pattern
// removes nothing.
func (c *Cache) DeletePattern(pattern string) int {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			c.removeLocked(e)
			removed++
		}
	}
	return removed
}

// GetOrSet returns the cached value for key or computes, stores and returns
// it. Concurrent misses for one key each run compute and the last write
// wins. A compute error is returned and nothing is stored.
func (c *Cache) GetOrSet(key string, compute func() (any, error), ttl time.Duration) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:    len(c.items),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		Expired:    c.expired,
	}
}

// Prune drops all expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, e := range c.items {
		if c.expiredLocked(e) {
			c.removeLocked(e)
			removed++
		}
	}
	c.expired += uint64(removed)
	return removed
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry)
	c.order.Init()
}

// Close stops the janitor. The cache remains usable afterwards.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

func (c *Cache) expiredLocked(e *entry) bool {
	return !c.now().Before(e.expiresAt)
}

func (c *Cache) removeLocked(e *entry) {
	c.order.Remove(e.elem)
	delete(c.items, e.key)
}
