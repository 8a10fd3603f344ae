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

package engine

import (
	"errors"
	"fmt"
	"plugin"
	"sync"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/components/action"
	"github.com/flowgo/flowgo/components/external"
	"github.com/flowgo/flowgo/components/filter"
	"github.com/flowgo/flowgo/components/flow"
	"github.com/flowgo/flowgo/components/world"
)

// PluginsSymbol is the variable a component plugin must export.
const PluginsSymbol = "Plugins"

// Registry is the default component registry.
var Registry = new(ComponentRegistry)

// register the built-in component packages
func init() {
	var components []types.Node
	components = append(components, action.Registry.Components()...)
	components = append(components, external.Registry.Components()...)
	components = append(components, filter.Registry.Components()...)
	components = append(components, flow.Registry.Components()...)
	components = append(components, world.Registry.Components()...)

	for _, node := range components {
		_ = Registry.Register(node)
	}
}

// ComponentRegistry holds the node components available to graphs.
type ComponentRegistry struct {
	components map[string]types.Node
	plugins    map[string][]types.Node
	sync.RWMutex
}

// Register adds a component. The component type must be unique.
func (r *ComponentRegistry) Register(node types.Node) error {
	r.Lock()
	defer r.Unlock()
	if r.components == nil {
		r.components = make(map[string]types.Node)
	}
	if _, ok := r.components[node.Type()]; ok {
		return errors.New("the component already exists. nodeType=" + node.Type())
	}
	r.components[node.Type()] = node
	return nil
}

// RegisterPlugin loads components from a Go plugin file and registers them
// under the plugin name.
func (r *ComponentRegistry) RegisterPlugin(name string, file string) error {
	builder := &pluginComponentRegistry{name: name, file: file}
	if err := builder.Init(); err != nil {
		return err
	}
	components := builder.Components()
	for _, node := range components {
		if _, ok := r.components[node.Type()]; ok {
			return errors.New("the component already exists. nodeType=" + node.Type())
		}
	}
	for _, node := range components {
		if err := r.Register(node); err != nil {
			return err
		}
	}

	r.Lock()
	defer r.Unlock()
	if r.plugins == nil {
		r.plugins = make(map[string][]types.Node)
	}
	r.plugins[name] = components
	return nil
}

// Unregister removes a component type or a whole plugin by name.
func (r *ComponentRegistry) Unregister(componentType string) error {
	r.Lock()
	defer r.Unlock()
	var removed = false
	if nodes, ok := r.plugins[componentType]; ok {
		for _, node := range nodes {
			delete(r.components, node.Type())
		}
		delete(r.plugins, componentType)
		removed = true
	}
	if _, ok := r.components[componentType]; ok {
		delete(r.components, componentType)
		removed = true
	}
	if !removed {
		return fmt.Errorf("component not found.componentType=%s", componentType)
	}
	return nil
}

// NewNode creates a fresh instance of the component registered under
// nodeType.
func (r *ComponentRegistry) NewNode(nodeType string) (types.Node, error) {
	r.RLock()
	defer r.RUnlock()
	node, ok := r.components[nodeType]
	if !ok {
		return nil, fmt.Errorf("component not found.componentType=%s", nodeType)
	}
	return node.New(), nil
}

// GetComponents returns a copy of the registered component map.
func (r *ComponentRegistry) GetComponents() map[string]types.Node {
	r.RLock()
	defer r.RUnlock()
	var components = map[string]types.Node{}
	for k, v := range r.components {
		components[k] = v
	}
	return components
}

// pluginComponentRegistry initializes components from a Go plugin file.
type pluginComponentRegistry struct {
	name     string
	file     string
	registry types.PluginRegistry
}

func (p *pluginComponentRegistry) Init() error {
	pluginRegistry, err := loadPlugin(p.file)
	if err != nil {
		return err
	}
	p.registry = pluginRegistry
	return nil
}

func (p *pluginComponentRegistry) Components() []types.Node {
	if p.registry != nil {
		return p.registry.Components()
	}
	return nil
}

// loadPlugin opens a plugin file and looks up the exported Plugins symbol.
func loadPlugin(file string) (types.PluginRegistry, error) {
	p, err := plugin.Open(file)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(PluginsSymbol)
	if err != nil {
		return nil, err
	}
	pluginRegistry, ok := sym.(types.PluginRegistry)
	if !ok {
		return nil, errors.New("invalid plugin")
	}
	return pluginRegistry, nil
}
