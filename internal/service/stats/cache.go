package stats

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

type cacheEntry struct {
	payload []byte
	expires time.Time
}

// weightedCache is an LRU bounded by the total byte size of its payloads,
// with a fixed time-to-live per entry.
type weightedCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[uuid.UUID, cacheEntry]
	weight   int64
	maxBytes int64
	ttl      time.Duration
	clock    clock.Clock
}

func newWeightedCache(maxBytes int64, ttl time.Duration, clk clock.Clock) *weightedCache {
	c := &weightedCache{maxBytes: maxBytes, ttl: ttl, clock: clk}
	// entry count is unbounded; weight is the only limit
	lru, err := simplelru.NewLRU[uuid.UUID, cacheEntry](math.MaxInt32, func(_ uuid.UUID, e cacheEntry) {
		c.weight -= int64(len(e.payload))
	})
	if err != nil {
		panic(err) // only for a non-positive size
	}
	c.lru = lru
	return c
}

// Get returns the live payload for key. Expired entries are dropped.
func (c *weightedCache) Get(key uuid.UUID) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expires) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.payload, true
}

// Add stores payload under key and evicts least recently used entries until
// the total weight fits. A payload heavier than the whole budget is not kept.
func (c *weightedCache) Add(key uuid.UUID, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	if int64(len(payload)) > c.maxBytes {
		return
	}
	c.lru.Add(key, cacheEntry{payload: payload, expires: c.clock.Now().Add(c.ttl)})
	c.weight += int64(len(payload))

	for c.weight > c.maxBytes {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Weight is the total size of resident payloads.
func (c *weightedCache) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *weightedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
