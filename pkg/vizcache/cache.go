// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package vizcache provides a bounded LRU cache with per-entry TTL.
//
// The stream client uses it to deduplicate visualization descriptors:
// the same chart can be detected through two paths, and only the first
// sighting of an id should reach the consumer. The cache is owned and
// injected by the calling layer, never process-wide state.
package vizcache

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultMaxEntries = 128
	defaultTTL        = 30 * time.Minute
)

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// Cache is a bounded, TTL-expiring LRU keyed by string.
// Safe for concurrent use.
type Cache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List
	index      map[string]*list.Element
	now        func() time.Time
}

// New creates a cache. Non-positive maxEntries or ttl fall back to the
// defaults (128 entries, 30 minutes).
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		index:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Add inserts value under key and reports whether the key was absent
// (or expired). A false return means the key is already live, which is
// the dedup signal: the caller forwards the value only on true.
func (c *Cache[V]) Add(key string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		ent := el.Value.(*entry[V])
		if c.now().Before(ent.expires) {
			c.order.MoveToFront(el)
			return false
		}
		c.removeLocked(el)
	}

	el := c.order.PushFront(&entry[V]{
		key:     key,
		value:   value,
		expires: c.now().Add(c.ttl),
	})
	c.index[key] = el

	for c.order.Len() > c.maxEntries {
		c.removeLocked(c.order.Back())
	}
	return true
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.index[key]
	if !ok {
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if !c.now().Before(ent.expires) {
		c.removeLocked(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return ent.value, true
}

// Len returns the number of entries, including any not yet evicted
// expired ones.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	ent := el.Value.(*entry[V])
	delete(c.index, ent.key)
	c.order.Remove(el)
}
