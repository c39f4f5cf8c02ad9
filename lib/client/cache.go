// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bureau-foundation/objstore/lib/objectid"
)

// CacheStats reports local metadata cache activity. Hits and misses
// count lookups made by GetMetaData with syncRemote false; forced
// refreshes are neither.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// metaCache maps object ids to the last metadata fetched for them.
// With a positive capacity it is a bounded LRU; otherwise unbounded.
// Not safe for concurrent use.
type metaCache struct {
	bounded   *lru.Cache[objectid.ObjectID, *ObjectMeta]
	unbounded map[objectid.ObjectID]*ObjectMeta

	hits      uint64
	misses    uint64
	evictions uint64
}

func newMetaCache(capacity int) *metaCache {
	if capacity > 0 {
		// New only fails for a non-positive size.
		bounded, _ := lru.New[objectid.ObjectID, *ObjectMeta](capacity)
		return &metaCache{bounded: bounded}
	}
	return &metaCache{unbounded: make(map[objectid.ObjectID]*ObjectMeta)}
}

func (c *metaCache) get(id objectid.ObjectID) (*ObjectMeta, bool) {
	var meta *ObjectMeta
	var found bool
	if c.bounded != nil {
		meta, found = c.bounded.Get(id)
	} else {
		meta, found = c.unbounded[id]
	}
	if found {
		c.hits++
	} else {
		c.misses++
	}
	return meta, found
}

func (c *metaCache) put(id objectid.ObjectID, meta *ObjectMeta) {
	if c.bounded != nil {
		if evicted := c.bounded.Add(id, meta); evicted {
			c.evictions++
		}
		return
	}
	c.unbounded[id] = meta
}

// reset drops every entry. Counters are kept across sessions.
func (c *metaCache) reset() {
	if c.bounded != nil {
		c.bounded.Purge()
		return
	}
	clear(c.unbounded)
}

func (c *metaCache) len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.unbounded)
}

func (c *metaCache) stats() CacheStats {
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.len(),
	}
}
