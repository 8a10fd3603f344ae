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

// Package flowgo provides an embeddable, component-based flow graph engine
// for game scripting and LiveOps orchestration.
//
// # Usage
//
// Behavior is described by a graph definition: nodes are components, and
// connections route messages between them by named relation. Graph
// definition format:
//
//	{
//	  "graph": {
//	    "id": "graph01"
//	  },
//	  "metadata": {
//	    "nodes": [
//	    ],
//	    "connections": [
//	    ]
//	  }
//	}
//
// nodes: configure components. Built-in and third-party extension
// components work without writing any code.
//
// connections: configure the relation type between components. Relations
// are the output pins of a node and determine the data flow.
//
// Example:
//
//	var graphFile = `
//	{
//	  "graph": {
//	    "id": "graph02",
//	    "name": "intro cinematic",
//	    "root": true
//	  },
//	  "metadata": {
//	    "nodes": [
//	      {
//	        "id": "s1",
//	        "type": "world/playSequence",
//	        "name": "play intro",
//	        "debugMode": true,
//	        "configuration": {
//	          "sequence": "/Game/Cinematics/Intro.Intro"
//	        }
//	      },
//	      {
//	        "id": "s2",
//	        "type": "action/log",
//	        "name": "log event",
//	        "configuration": {
//	          "template": "sequence event: ${metadata.eventName}"
//	        }
//	      }
//	    ],
//	    "connections": [
//	      {
//	        "fromId": "s1",
//	        "toId": "s2",
//	        "type": "OnDialogueStart"
//	      }
//	    ]
//	  }
//	}
//	`
//
// Create an engine instance
//
//	engine, err := flowgo.New("graph01", []byte(graphFile))
//
// Define message metadata
//
//	metaData := types.NewMetadata()
//	metaData.PutValue("playerId", "p01")
//
// Define message payload and type
//
//	msg := types.NewMsg(0, "ACTIVATE", types.JSON, metaData, "{}")
//
// Process the message
//
//	engine.OnMsg(msg)
//
// Update the graph
//
//	err := engine.ReloadSelf([]byte(graphFile))
//
// Load all graphs from a folder
//
//	err := flowgo.Load("./graphs")
//
// Get an engine instance
//
//	engine, ok := flowgo.Get("graph01")
package flowgo

import (
	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/engine"
)

// NewConfig creates an engine configuration with defaults applied.
var NewConfig = engine.NewConfig

// WithConfig sets the engine configuration.
var WithConfig = engine.WithConfig

// WithGraphPool sets the pool nested graphs resolve through.
var WithGraphPool = engine.WithGraphPool

// Load reads every graph definition file under folderPath into the default
// pool.
func Load(folderPath string, opts ...engine.EngineOption) error {
	return engine.DefaultGraphPool.Load(folderPath, opts...)
}

// New creates an engine in the default pool. With id == "" the graph id
// from the definition is used.
func New(id string, def []byte, opts ...engine.EngineOption) (*engine.Engine, error) {
	return engine.DefaultGraphPool.New(id, def, opts...)
}

// Get returns the engine for a graph id.
func Get(id string) (*engine.Engine, bool) {
	return engine.DefaultGraphPool.Get(id)
}

// Del stops and removes the engine for a graph id.
func Del(id string) {
	engine.DefaultGraphPool.Del(id)
}

// Stop releases every engine in the default pool.
func Stop() {
	engine.DefaultGraphPool.Stop()
}

// OnMsg offers the message to every engine in the default pool.
func OnMsg(msg types.FlowMsg) {
	engine.DefaultGraphPool.OnMsg(msg)
}

// Range iterates over the engines in the default pool.
func Range(f func(key, value any) bool) {
	engine.DefaultGraphPool.Range(f)
}
