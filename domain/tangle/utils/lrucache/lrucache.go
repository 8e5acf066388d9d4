package lrucache

import (
	"sync"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// LRUCache is a cache of values indexed by block id. When full, an
// arbitrary entry is evicted. It is safe for concurrent use.
type LRUCache struct {
	mutex    sync.RWMutex
	cache    map[externalapi.BlockID]interface{}
	capacity int
}

// New creates a new LRUCache
func New(capacity int, preallocate bool) *LRUCache {
	var cache map[externalapi.BlockID]interface{}
	if preallocate {
		cache = make(map[externalapi.BlockID]interface{}, capacity+1)
	} else {
		cache = make(map[externalapi.BlockID]interface{})
	}
	return &LRUCache{
		cache:    cache,
		capacity: capacity,
	}
}

// Add adds an entry to the LRUCache
func (c *LRUCache) Add(key *externalapi.BlockID, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[*key] = value

	if len(c.cache) > c.capacity {
		c.evictRandom()
	}
}

// Get returns the entry for the given key, or (nil, false) otherwise
func (c *LRUCache) Get(key *externalapi.BlockID) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	value, ok := c.cache[*key]
	if !ok {
		return nil, false
	}
	return value, true
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache) Has(key *externalapi.BlockID) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, ok := c.cache[*key]
	return ok
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache) Remove(key *externalapi.BlockID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.cache, *key)
}

// Len returns the number of cached entries
func (c *LRUCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

func (c *LRUCache) evictRandom() {
	var keyToEvict externalapi.BlockID
	for key := range c.cache {
		keyToEvict = key
		break
	}
	delete(c.cache, keyToEvict)
}
