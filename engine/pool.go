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
	"strings"
	"sync"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/fs"
)

// DefaultGraphPool is the default engine pool. Sub graph nodes and TellFlow
// resolve graph ids against it unless another pool is injected.
var DefaultGraphPool = &GraphPool{}

// GraphPool holds engine instances by graph id.
type GraphPool struct {
	engines sync.Map
}

// Load reads every *.json graph definition under folderPath (recursively)
// into the pool. Graph ids come from the definitions.
func (g *GraphPool) Load(folderPath string, opts ...EngineOption) error {
	if !strings.HasSuffix(folderPath, "*.json") && !strings.HasSuffix(folderPath, "*.JSON") {
		if strings.HasSuffix(folderPath, "/") || strings.HasSuffix(folderPath, "\\") {
			folderPath = folderPath + "*.json"
		} else if folderPath == "" {
			folderPath = "./*.json"
		} else {
			folderPath = folderPath + "/*.json"
		}
	}
	paths, err := fs.GetFilePaths(folderPath)
	if err != nil {
		return err
	}
	for _, path := range paths {
		b := fs.LoadFile(path)
		if b != nil {
			if _, err = g.New("", b, opts...); err != nil {
				return err
			}
		}
	}
	return nil
}

// New creates an engine for the definition and stores it in the pool. With
// id == "" the graph id from the definition is used. An existing engine
// with the same id is returned as is.
func (g *GraphPool) New(id string, def []byte, opts ...EngineOption) (*Engine, error) {
	if v, ok := g.engines.Load(id); ok {
		return v.(*Engine), nil
	}
	engine, err := newEngine(id, def, opts...)
	if err != nil {
		return nil, err
	}
	if engine.Id != "" {
		g.engines.Store(engine.Id, engine)
	}
	engine.GraphPool = g
	if engine.rootGraphCtx != nil {
		engine.rootGraphCtx.SetGraphPool(g)
	}
	return engine, nil
}

// Get returns the engine for a graph id.
func (g *GraphPool) Get(id string) (*Engine, bool) {
	v, ok := g.engines.Load(id)
	if ok {
		return v.(*Engine), ok
	}
	return nil, false
}

// Del stops and removes the engine for a graph id.
func (g *GraphPool) Del(id string) {
	v, ok := g.engines.Load(id)
	if ok {
		v.(*Engine).Stop()
		g.engines.Delete(id)
	}
}

// Stop releases every engine in the pool.
func (g *GraphPool) Stop() {
	g.engines.Range(func(key, value any) bool {
		if item, ok := value.(*Engine); ok {
			item.Stop()
		}
		g.engines.Delete(key)
		return true
	})
}

// OnMsg offers the message to every engine in the pool.
func (g *GraphPool) OnMsg(msg types.FlowMsg) {
	g.engines.Range(func(key, value any) bool {
		if item, ok := value.(*Engine); ok {
			item.OnMsg(msg)
		}
		return true
	})
}

// Range iterates over the pooled engines.
func (g *GraphPool) Range(f func(key, value any) bool) {
	g.engines.Range(f)
}
