// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package vizcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_AddReportsFirstSighting(t *testing.T) {
	c := New[string](4, time.Minute)

	assert.True(t, c.Add("a", "first"))
	assert.False(t, c.Add("a", "second"), "duplicate id must report already-present")

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", got, "duplicate Add must not overwrite")
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Add("c", 3)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New[int](4, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.True(t, c.Add("a", 1))

	now = now.Add(30 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok, "entry must be live before the TTL")

	now = now.Add(31 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry must expire after the TTL")

	assert.True(t, c.Add("a", 2), "an expired id counts as a first sighting again")
}

func TestCache_DefaultsApplied(t *testing.T) {
	c := New[int](0, 0)
	assert.Equal(t, defaultMaxEntries, c.maxEntries)
	assert.Equal(t, defaultTTL, c.ttl)
}
