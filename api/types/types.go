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
	"context"
)

// Relation types. A relation name is the output pin a message leaves a node
// through. Besides the generic relations below, nodes may declare custom
// relations, such as the sequence node's PreStart/Started/Completed pins or
// the authored event names discovered from a sequence asset.
const (
	Success = "Success"
	Failure = "Failure"
	True    = "True"
	False   = "False"
)

// Flow direction of a message relative to a node, used by debug callbacks.
const (
	In  = "IN"
	Out = "OUT"
)

// OnEndFunc is called when a branch of the flow graph finishes.
type OnEndFunc = func(ctx FlowContext, msg FlowMsg, err error, relationType string)

// Configuration holds the raw configuration map of a node definition.
type Configuration map[string]interface{}

// ComponentType distinguishes plain nodes from nested flow graphs.
type ComponentType int

const (
	NODE ComponentType = iota
	GRAPH
)

// PluginRegistry is the entry point a Go plugin exposes to contribute node
// components. The plugin file must export a variable named `Plugins`
// implementing this interface.
type PluginRegistry interface {
	Init() error
	Components() []Node
}

// ComponentRegistry manages the set of node components available to flow
// graphs.
type ComponentRegistry interface {
	// Register adds a component. Returns an error if node.Type() already exists.
	Register(node Node) error
	// RegisterPlugin loads components from a Go plugin file.
	RegisterPlugin(name string, file string) error
	// Unregister removes a component type or a whole plugin by name.
	Unregister(componentType string) error
	// NewNode creates a new component instance by node type.
	NewNode(nodeType string) (Node, error)
	// GetComponents returns all registered components.
	GetComponents() map[string]Node
}

// Node is the component contract. A component encapsulates one unit of graph
// behavior; every node definition in a graph gets its own instance.
type Node interface {
	// New creates a new, independent instance of the component.
	New() Node
	// Type is the unique component type. Use `/` to namespace,
	// e.g. world/playSequence.
	Type() string
	// Init is called once when the node is instantiated into a graph.
	Init(config Config, configuration Configuration) error
	// OnMsg handles an incoming message. The implementation must call one of
	// ctx.TellSuccess/TellFailure/TellNext to route the message onward,
	// otherwise the branch never completes. Latent nodes may keep routing
	// messages from callbacks long after OnMsg returned.
	OnMsg(ctx FlowContext, msg FlowMsg)
	// Destroy releases the node's resources. It must be idempotent and safe
	// to call on a partially initialized node.
	Destroy()
}

// NodeCtx is a node instantiated into a graph.
type NodeCtx interface {
	Node
	Config() Config
	IsDebugMode() bool
	GetNodeId() FlowNodeId
	// ReloadSelf re-initializes the node from a new definition.
	ReloadSelf(def []byte) error
	// GetNodeById resolves a child node. Only meaningful for graph contexts.
	GetNodeById(nodeId FlowNodeId) (NodeCtx, bool)
	// DSL returns the node definition.
	DSL() []byte
}

// GraphCtx is an instantiated flow graph.
type GraphCtx interface {
	NodeCtx
	Definition() *FlowGraph
}

// FlowContext carries a message through the graph. It routes the message to
// the next node(s) over the chosen relation and drives end/debug callbacks.
type FlowContext interface {
	// TellSuccess routes the message over the Success relation.
	TellSuccess(msg FlowMsg)
	// TellFailure routes the message over the Failure relation.
	TellFailure(msg FlowMsg, err error)
	// TellNext routes the message over the given relations (output pins).
	TellNext(msg FlowMsg, relationTypes ...string)
	// TellSelf redelivers the message to the current node after delayMs.
	TellSelf(msg FlowMsg, delayMs int64)
	// TellFlow executes a nested flow graph by id. onEnd runs once per branch
	// end, onAllNodeCompleted once after every node finished.
	TellFlow(msg FlowMsg, graphId string, onEnd OnEndFunc, onAllNodeCompleted func())
	// NewMsg creates a message with a fresh id.
	NewMsg(msgType string, metadata Metadata, data string) FlowMsg
	// GetSelfId returns the current node id.
	GetSelfId() string
	// Config returns the engine configuration.
	Config() Config
	// SubmitTask runs a task on the configured pool, or a goroutine.
	SubmitTask(task func())
	// GetEnv builds the template/script environment for the message.
	GetEnv(msg FlowMsg, useMetadata bool) map[string]interface{}
	SetEndFunc(f OnEndFunc) FlowContext
	GetEndFunc() OnEndFunc
	SetContext(c context.Context) FlowContext
	GetContext() context.Context
	SetOnAllNodeCompleted(onAllNodeCompleted func())
}

// FlowContextOption modifies a FlowContext before a message enters a graph.
type FlowContextOption func(FlowContext)

// WithOnEnd sets the branch-end callback. If the graph has multiple end
// points the callback runs multiple times.
func WithOnEnd(endFunc OnEndFunc) FlowContextOption {
	return func(fc FlowContext) {
		fc.SetEndFunc(endFunc)
	}
}

// WithContext sets the shared context.Context, used for cancellation and for
// sharing data between component instances.
func WithContext(c context.Context) FlowContextOption {
	return func(fc FlowContext) {
		fc.SetContext(c)
	}
}

// WithOnAllNodeCompleted sets the callback fired after every node finished.
func WithOnAllNodeCompleted(onAllNodeCompleted func()) FlowContextOption {
	return func(fc FlowContext) {
		fc.SetOnAllNodeCompleted(onAllNodeCompleted)
	}
}

// Parser decodes and encodes flow graph definitions. The default
// implementation is JSON based.
type Parser interface {
	DecodeGraph(config Config, dsl []byte) (Node, error)
	DecodeNode(config Config, dsl []byte) (Node, error)
	EncodeGraph(def interface{}) ([]byte, error)
	EncodeNode(def interface{}) ([]byte, error)
}

// Pool is a goroutine pool. If not configured, plain goroutines are used.
type Pool interface {
	Submit(task func()) error
	Release()
}

// World is the game world a graph runs against. Playback nodes refuse to
// start without one; a missing world never halts graph execution.
type World interface {
	// Name identifies the world, e.g. a level or map name.
	Name() string
	// TimeDilation is the current global time scale. 1.0 is realtime.
	TimeDilation() float64
}

// EmptyFlowNodeId is the zero node id.
var EmptyFlowNodeId = FlowNodeId{}

// FlowNodeId identifies a node or a nested graph.
type FlowNodeId struct {
	Id   string
	Type ComponentType
}

// FlowNodeRelation is one routing edge between two nodes.
type FlowNodeRelation struct {
	InId         FlowNodeId
	OutId        FlowNodeId
	RelationType string
}
