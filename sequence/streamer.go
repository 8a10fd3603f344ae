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

package sequence

import (
	"github.com/flowgo/flowgo/api/types"
)

// streamCachePrefix namespaces streamed assets inside the shared cache.
const streamCachePrefix = "sequence:asset:"

// defaultStreamTtl keeps preloaded assets warm long enough for a graph
// activation to pick them up.
const defaultStreamTtl = "10m"

// Streamer preloads sequence assets into a cache ahead of playback and
// releases them on teardown. Both operations are hints: playback resolves
// through the catalog regardless, so a missed preload costs latency, never
// correctness.
type Streamer struct {
	catalog *Catalog
	cache   types.Cache
}

// NewStreamer creates a Streamer over the given catalog and cache.
func NewStreamer(catalog *Catalog, cache types.Cache) *Streamer {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	return &Streamer{
		catalog: catalog,
		cache:   cache,
	}
}

// RequestAsyncLoad starts a fire-and-forget preload of ref. No completion
// callback, no error reporting.
func (s *Streamer) RequestAsyncLoad(ref Ref) {
	if ref.IsNull() || s.cache == nil {
		return
	}
	go func() {
		if seq := s.catalog.LoadSync(ref); seq != nil {
			_ = s.cache.Set(streamCachePrefix+ref.Path, seq, defaultStreamTtl)
		}
	}()
}

// Unload drops a preloaded asset from the cache. Best effort.
func (s *Streamer) Unload(ref Ref) {
	if ref.IsNull() || s.cache == nil {
		return
	}
	_ = s.cache.Delete(streamCachePrefix + ref.Path)
}

// IsLoaded reports whether ref is currently resident in the cache.
func (s *Streamer) IsLoaded(ref Ref) bool {
	if ref.IsNull() || s.cache == nil {
		return false
	}
	return s.cache.Has(streamCachePrefix + ref.Path)
}
