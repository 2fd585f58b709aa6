package didresolver

import (
	"container/list"
	"sync"
	"time"
)

// lruCache is a capacity-bounded, TTL-expiring cache of resolved DID
// documents. Capacity is an absolute ceiling; eviction is LRU (spec.md
// §4.2). No suitable LRU library is present in the dependency corpus
// this module draws from, so this is a small hand-rolled
// container/list + map cache rather than bare unbounded map growth.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	did       string
	doc       *Document
	expiresAt time.Time
}

func newLRUCache(capacity int, ttl time.Duration) *lruCache {
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// get returns the cached document for did if present and unexpired.
func (c *lruCache) get(did string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[did]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.items, did)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.doc, true
}

// put inserts or refreshes the cached document for did, evicting the
// least-recently-used entry if the cache is at capacity.
func (c *lruCache) put(did string, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[did]; ok {
		el.Value.(*cacheEntry).doc = doc
		el.Value.(*cacheEntry).expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	if c.capacity > 0 && len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).did)
		}
	}

	entry := &cacheEntry{did: did, doc: doc, expiresAt: time.Now().Add(c.ttl)}
	el := c.order.PushFront(entry)
	c.items[did] = el
}
