package waiting

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/model"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Fetcher is the source adapter the cache falls back to on a miss.
type Fetcher interface {
	Fetch(ctx context.Context, dateKey string) ([]model.WaitingData, error)
}

// Result carries one cache lookup: the day's records and whether they came
// from a live cache entry.
type Result struct {
	Data   []model.WaitingData
	Cached bool
}

type entry struct {
	data       []model.WaitingData
	insertedAt time.Time
	expiresAt  time.Time
}

// Cache keeps per-day waiting data for a short TTL with a bounded number of
// entries. Adapter failures are never cached, so a transient outage does
// not suppress the next attempt. Racing misses for the same day may each
// hit the adapter; the last writer wins, which is harmless because entries
// are replaced wholesale.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	fetcher  Fetcher
	ttl      time.Duration
	capacity int

	TimeNow func() time.Time
}

func NewCache(fetcher Fetcher, ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = constant.WaitingCacheTTL
	}
	if capacity <= 0 {
		capacity = constant.WaitingCacheCapacity
	}

	return &Cache{
		entries:  make(map[string]*entry),
		fetcher:  fetcher,
		ttl:      ttl,
		capacity: capacity,
		TimeNow:  time.Now,
	}
}

func (c *Cache) Get(ctx context.Context, dateKey string) (Result, error) {
	now := c.TimeNow()

	c.mu.Lock()
	if e, ok := c.entries[dateKey]; ok {
		if now.Before(e.expiresAt) {
			data := copyRecords(e.data)
			c.mu.Unlock()
			return Result{Data: data, Cached: true}, nil
		}

		// Stale entries are purged lazily, on the lookup that finds them.
		delete(c.entries, dateKey)
	}
	c.mu.Unlock()

	data, err := c.fetcher.Fetch(ctx, dateKey)
	if err != nil {
		return Result{}, err
	}

	now = c.TimeNow()

	c.mu.Lock()
	if len(c.entries) >= c.capacity {
		c.evictOldest(ctx)
	}

	c.entries[dateKey] = &entry{
		data:       data,
		insertedAt: now,
		expiresAt:  now.Add(c.ttl),
	}
	c.mu.Unlock()

	return Result{Data: copyRecords(data), Cached: false}, nil
}

// Len reports the current entry count, stale entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// evictOldest drops the entry with the smallest insertedAt. Insertion-order
// eviction, not LRU: reads never refresh an entry's position.
func (c *Cache) evictOldest(ctx context.Context) {
	var oldestKey string
	var oldestAt time.Time

	for key, e := range c.entries {
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.insertedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		slog.DebugContext(ctx, "evicted waiting data entry", slog.String("date_key", oldestKey))
	}
}

func copyRecords(records []model.WaitingData) []model.WaitingData {
	out := make([]model.WaitingData, len(records))
	copy(out, records)
	return out
}
