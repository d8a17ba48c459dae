package render

import (
	"strconv"

	"logview/internal/model"
)

const DefaultCacheSize = 100

// Fingerprint identifies an entry's rendered content; entries with equal
// fingerprints may share a materialized fragment.
func Fingerprint(e model.LogEntry) string {
	return strconv.FormatInt(e.Timestamp.UnixNano(), 10) + "|" + e.Message
}

// FragmentCache is a bounded cache of opaque renderer-produced handles
// keyed by content fingerprint. Eviction is least-recently-inserted:
// pure insertion order, lookups do not refresh an entry.
type FragmentCache struct {
	cap   int
	order []string
	items map[string]any
}

func NewFragmentCache(capacity int) *FragmentCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &FragmentCache{cap: capacity, items: make(map[string]any, capacity)}
}

func (c *FragmentCache) Get(key string) (any, bool) {
	h, ok := c.items[key]
	return h, ok
}

func (c *FragmentCache) Put(key string, handle any) {
	if _, ok := c.items[key]; ok {
		c.items[key] = handle
		return
	}
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.order = append(c.order, key)
	c.items[key] = handle
}

func (c *FragmentCache) Len() int { return len(c.items) }
func (c *FragmentCache) Cap() int { return c.cap }
