/*
 * Copyright 2024 The FlowGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/flowgo/flowgo/api/types"
)

var _ types.Cache = (*MemoryCache)(nil)

// DefaultCache is the process-wide cache instance, used among others by the
// sequence streamer for preloaded assets.
var DefaultCache = NewMemoryCache(time.Minute * 5)

// MemoryCache is an in-memory types.Cache implementation storing key-value
// pairs with optional expiration.
type MemoryCache struct {
	items      map[string]item
	mu         sync.RWMutex
	stopGc     chan struct{}
	ticker     *time.Ticker
	gcInterval time.Duration
}

// item holds a cached value and its expiration as a Unix nano timestamp.
// Expiration 0 means the item never expires.
type item struct {
	value      interface{}
	expiration int64
}

// NewMemoryCache creates a MemoryCache. Garbage collection starts lazily
// when the first expirable item is added.
func NewMemoryCache(gcInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:      make(map[string]item),
		stopGc:     make(chan struct{}),
		gcInterval: time.Minute * 5,
	}
	if gcInterval > 0 {
		c.gcInterval = gcInterval
	}
	return c
}

// Set stores a value. ttl is a duration string such as "10m"; empty means no
// expiration. Returns an error if ttl cannot be parsed.
func (c *MemoryCache) Set(key string, value interface{}, ttl string) error {
	var expiration int64
	var dur time.Duration
	var err error
	if ttl != "" {
		dur, err = time.ParseDuration(ttl)
		if err != nil {
			return err
		}
	}
	if dur > 0 {
		expiration = time.Now().Add(dur).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = item{
		value:      value,
		expiration: expiration,
	}
	shouldStartGC := expiration > 0 && c.ticker == nil
	c.mu.Unlock()

	if shouldStartGC {
		c.StartGC()
	}
	return nil
}

// Get returns the value for key, or nil if absent or expired.
func (c *MemoryCache) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, found := c.items[key]
	if !found {
		return nil
	}
	if it.expiration > 0 && time.Now().UnixNano() > it.expiration {
		// expired, the GC will collect it
		return nil
	}
	return it.value
}

// Has reports whether key exists and has not expired.
func (c *MemoryCache) Has(key string) bool {
	return c.Get(key) != nil
}

// Delete removes an item.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// DeleteByPrefix removes every item whose key has the given prefix.
func (c *MemoryCache) DeleteByPrefix(prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

// StartGC starts the background sweep of expired items. Safe to call more
// than once.
func (c *MemoryCache) StartGC() {
	c.mu.Lock()
	if c.ticker != nil {
		c.mu.Unlock()
		return
	}
	c.ticker = time.NewTicker(c.gcInterval)
	ticker := c.ticker
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				c.gc()
			case <-c.stopGc:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopGC stops the background sweep.
func (c *MemoryCache) StopGC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		close(c.stopGc)
		c.ticker = nil
		c.stopGc = make(chan struct{})
	}
}

func (c *MemoryCache) gc() {
	now := time.Now().UnixNano()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, it := range c.items {
		if it.expiration > 0 && now > it.expiration {
			delete(c.items, k)
		}
	}
}
