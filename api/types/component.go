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

package types

import (
	"sync"
)

// Configuration keys reserved for injecting runtime collaborators into a
// node. Values under these keys are passed as live objects, never
// serialized into the graph DSL.
const (
	// NodeConfigurationKeyCatalog injects a sequence catalog instance.
	NodeConfigurationKeyCatalog = "$catalog"
)

// CategoryGetter is optional; components implement it to report the editor
// category they belong to, e.g. "World".
type CategoryGetter interface {
	Category() string
}

// DescGetter is optional; components implement it to provide a component
// description for tooling.
type DescGetter interface {
	Desc() string
}

// NodeDescriptionProvider is optional; nodes implement it to expose the
// description string shown on the graph node and matched by the search
// tool, e.g. the referenced sequence asset name.
type NodeDescriptionProvider interface {
	NodeDescription() string
}

// StatusProvider is optional; nodes implement it to expose a live status
// string, e.g. playback progress "elapsed / total".
type StatusProvider interface {
	StatusString() string
}

// ContextOutputsProvider is optional; nodes implement it when their output
// pin set depends on referenced asset content. The returned names extend
// the node's declared outputs and must stay consistent with the names the
// node triggers at runtime.
type ContextOutputsProvider interface {
	ContextOutputs() []string
}

// ContentPreloader is optional; nodes implement it to warm caches for
// content they will need. PreloadContent runs when the node's graph is
// instantiated, FlushContent when it is destroyed. Both are best-effort
// hints, never correctness-critical.
type ContentPreloader interface {
	PreloadContent()
	FlushContent()
}

// AssetProvider is optional; nodes implement it to expose the asset an
// editor should open when the node is double-clicked.
type AssetProvider interface {
	AssetToOpen() interface{}
}

// DebugSnapshotProvider is optional; nodes implement it to contribute
// key-value state to debug captures.
type DebugSnapshotProvider interface {
	DebugSnapshot() map[string]string
}

// SafeComponentSlice is a thread-safe component list. Component packages
// expose one as their package-level Registry.
type SafeComponentSlice struct {
	components []Node
	sync.Mutex
}

// Add appends components.
func (p *SafeComponentSlice) Add(nodes ...Node) {
	p.Lock()
	defer p.Unlock()
	for _, node := range nodes {
		p.components = append(p.components, node)
	}
}

// Components returns the component list.
func (p *SafeComponentSlice) Components() []Node {
	p.Lock()
	defer p.Unlock()
	return p.components
}
