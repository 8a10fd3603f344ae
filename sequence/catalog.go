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
	"strings"
	"sync"
)

// DefaultCatalog is the process-wide asset catalog. Playback nodes use it
// unless the graph configuration injects another one.
var DefaultCatalog = NewCatalog()

// Ref is a soft reference to a sequence asset by catalog path. A zero Ref
// is the null reference.
type Ref struct {
	Path string
}

// IsNull reports whether the reference points at nothing.
func (r Ref) IsNull() bool {
	return r.Path == ""
}

// AssetName returns the display name of the referenced asset, the last
// path segment without extension. Empty for the null reference.
func (r Ref) AssetName() string {
	if r.IsNull() {
		return ""
	}
	name := r.Path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// Catalog resolves soft references to loaded sequence assets.
type Catalog struct {
	mu     sync.RWMutex
	assets map[string]*Sequence
}

func NewCatalog() *Catalog {
	return &Catalog{
		assets: make(map[string]*Sequence),
	}
}

// Register adds or replaces an asset under its path.
func (c *Catalog) Register(seq *Sequence) {
	if seq == nil {
		return
	}
	c.mu.Lock()
	c.assets[seq.Path] = seq
	c.mu.Unlock()
}

// Unregister removes the asset at path.
func (c *Catalog) Unregister(path string) {
	c.mu.Lock()
	delete(c.assets, path)
	c.mu.Unlock()
}

// LoadSync resolves ref immediately. Returns nil for the null reference
// or an unknown path; callers treat nil as "no asset" without error.
func (c *Catalog) LoadSync(ref Ref) *Sequence {
	if ref.IsNull() {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assets[ref.Path]
}
