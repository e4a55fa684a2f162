package tabulate

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// Cache stores rendered artifacts. Get reports a miss with ok false and a
// nil error; an error means the store itself failed.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process [Cache]. A ttl of zero or less never expires.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements [Cache]. Expired entries are evicted on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set implements [Cache].
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

const cacheKeyPrefix = "tabulate"

// derivedCacheKey fingerprints the parts of a report that change its output
// identity: title, column names, meta values, limit and group columns.
func derivedCacheKey(title string, columns []Column, meta []KeyValue, limit int, groupBy []string, f Format) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	values := make([]string, len(meta))
	for i, kv := range meta {
		values[i] = kv.Value
	}
	lim := ""
	if limit > 0 {
		lim = strconv.Itoa(limit)
	}
	h := xxh3.New()
	for _, part := range []string{title, strings.Join(names, ","), strings.Join(values, ","), lim, strings.Join(groupBy, ",")} {
		_, _ = h.WriteString(part)
		// Separator keeps ("ab","c") and ("a","bc") apart.
		_, _ = h.Write([]byte{0})
	}
	sum := h.Sum128().Bytes()
	return cacheKeyPrefix + ":" + hex.EncodeToString(sum[:]) + ":" + string(f)
}
