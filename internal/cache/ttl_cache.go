package cache

import (
	"sync"
	"time"

	"github.com/c-johnson06/optionSentinel/pkg/util"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is the process-wide expiring cache that shields the upstream
// provider from redundant calls. An entry whose deadline has passed is
// logically absent even before the sweeper removes it.
type TTLCache struct {
	mu    sync.RWMutex
	m     map[string]entry
	clock util.Clock
}

func NewTTLCache(clock util.Clock) *TTLCache {
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &TTLCache{m: make(map[string]entry), clock: clock}
}

// Get returns the cached payload, removing it lazily if expired.
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(e.exp) {
		c.mu.Lock()
		// a Set may have refreshed the key between the two locks; only
		// remove the entry we actually saw expire
		if cur, ok := c.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

// Set stores v under key for the given ttl.
func (c *TTLCache) Set(key string, v []byte, ttl time.Duration) {
	exp := c.clock.Now().Add(ttl)
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: exp}
	c.mu.Unlock()
}

// Sweep removes every expired entry. Run on a fixed interval so memory stays
// bounded even for keys that are never re-requested.
func (c *TTLCache) Sweep() int {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live (unexpired) entries.
func (c *TTLCache) Len() int {
	now := c.clock.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.m {
		if !now.After(e.exp) {
			n++
		}
	}
	return n
}

// EntryStat describes one live cache entry for diagnostics.
type EntryStat struct {
	Key          string  `json:"key"`
	TTLRemaining float64 `json:"ttl_remaining_seconds"`
}

// Stats reports cache size and the remaining TTL per key.
type Stats struct {
	Size    int         `json:"size"`
	Entries []EntryStat `json:"entries"`
}

func (c *TTLCache) Stats() Stats {
	now := c.clock.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Entries: make([]EntryStat, 0, len(c.m))}
	for k, e := range c.m {
		if now.After(e.exp) {
			continue
		}
		s.Entries = append(s.Entries, EntryStat{
			Key:          k,
			TTLRemaining: e.exp.Sub(now).Seconds(),
		})
	}
	s.Size = len(s.Entries)
	return s
}
