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
	"time"
)

// Config is the engine configuration shared by every graph and node.
type Config struct {
	// OnDebug is called for messages entering (IN) and leaving (OUT) nodes
	// that have debugMode enabled.
	// - graphId: the id of the graph the node belongs to.
	// - flowType: IN or OUT.
	// - relationType: for OUT, the output pin the message left through; for
	//   IN, the pin it arrived over from the previous node.
	OnDebug func(graphId string, flowType string, nodeId string, msg FlowMsg, relationType string, err error)
	// OnEnd is called whenever a graph branch finishes. With multiple end
	// points it runs multiple times per message.
	OnEnd func(msg FlowMsg, err error)
	// ScriptMaxExecutionTime bounds script node execution,
	// default 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// Pool runs node activations. If nil, plain goroutines are used.
	Pool Pool
	// ComponentsRegistry supplies node components, default engine.Registry.
	ComponentsRegistry ComponentRegistry
	// Parser decodes graph definitions, default the JSON parser.
	Parser Parser
	// Logger receives engine and node log lines, default DefaultLogger().
	Logger Logger
	// Properties are global key-value properties. Node configurations may
	// reference them with ${global.key} templates.
	Properties Metadata
	// Udf registers custom Golang functions callable from script nodes.
	Udf map[string]interface{}
	// Cache stores runtime shared data, e.g. streamed sequence assets.
	Cache Cache
	// World is the game world graphs run against. Playback nodes skip
	// starting when it is nil but still advance the graph.
	World World
}

// RegisterUdf registers a custom function for script nodes.
func (c *Config) RegisterUdf(name string, value interface{}) {
	if c.Udf == nil {
		c.Udf = make(map[string]interface{})
	}
	c.Udf[name] = value
}

// NewConfig creates a Config with defaults and applies the options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             NewMetadata(),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
