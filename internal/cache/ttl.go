// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package cache

import (
	"sync"
	"time"
)

// Clock returns current time.
type Clock func() time.Time

// entry holds cached value with the moment it was stored.
type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTL is a concurrent safe key-value cache which entries expire after ttl.
// Expired entries are dropped lazily on access.
type TTL[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[K]entry[V]
}

// NewTTL is a constructor for TTL cache, uses time.Now when clock is nil.
func NewTTL[K comparable, V any](ttl time.Duration, clock Clock) *TTL[K, V] {
	if clock == nil {
		clock = time.Now
	}

	return &TTL[K, V]{
		ttl:     ttl,
		now:     clock,
		entries: make(map[K]entry[V]),
	}
}

// Get returns not expired value by key.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.get(key)
}

// Set stores value by key.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
}

// GetOrLoad returns cached value or loads, stores and returns a fresh one.
// Failed loads are not cached. Lock is not held during load.
func (c *TTL[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	c.Set(key, value)

	return value, nil
}

// Len returns amount of stored entries including not yet dropped expired ones.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *TTL[K, V]) get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)

		var zero V
		return zero, false
	}

	return e.value, true
}
