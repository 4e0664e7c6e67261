package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores encoded values for a fixed TTL. Misses and backend errors
// look the same to callers: recompute and move on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry struct {
	val []byte
	exp time.Time
}

// Memory is a process-local TTL cache. A janitor goroutine drops expired
// entries every ttl; call Close to stop it.
type Memory struct {
	mu       sync.RWMutex
	m        map[string]entry
	ttl      time.Duration
	obs      Observer
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// minSweepInterval bounds the janitor for very short TTLs
const minSweepInterval = time.Second

func NewMemory(ttl time.Duration, obs Observer) *Memory {
	c := &Memory{
		m:    make(map[string]entry),
		ttl:  ttl,
		obs:  obs,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Close stops the janitor goroutine
func (c *Memory) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Memory) janitor() {
	interval := c.ttl
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		c.DeleteExpired()
	}
}

// DeleteExpired removes every entry whose TTL has passed and returns how
// many were dropped.
func (c *Memory) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired or not
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.exp) {
		if ok {
			c.mu.Lock()
			// a Set may have replaced the entry since the read lock was dropped
			if cur, still := c.m[key]; still && c.now().After(cur.exp) {
				delete(c.m, key)
			}
			c.mu.Unlock()
		}
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return nil, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return e.val, true
}

func (c *Memory) Set(_ context.Context, key string, v []byte) {
	c.mu.Lock()
	c.m[key] = entry{val: v, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Noop never stores anything; used when caching is disabled
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
