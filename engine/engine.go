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

	"github.com/flowgo/flowgo/api/types"
)

// Engine runs one root flow graph. An engine without a loaded graph cannot
// process messages.
type Engine struct {
	// Id of the engine instance, defaults to the graph id.
	Id string
	// Config is the engine configuration.
	Config types.Config
	// GraphPool resolves nested graph executions.
	GraphPool *GraphPool

	rootGraphCtx *FlowGraphCtx
}

// EngineOption modifies an Engine before its graph loads.
type EngineOption func(*Engine) error

// WithConfig sets the engine configuration.
func WithConfig(config types.Config) EngineOption {
	return func(e *Engine) error {
		e.Config = config
		return nil
	}
}

// WithGraphPool sets the pool nested graphs resolve through.
func WithGraphPool(graphPool *GraphPool) EngineOption {
	return func(e *Engine) error {
		e.GraphPool = graphPool
		return nil
	}
}

func newEngine(id string, def []byte, opts ...EngineOption) (*Engine, error) {
	if len(def) == 0 {
		return nil, errors.New("def can not be nil")
	}
	engine := &Engine{
		Id:        id,
		Config:    NewConfig(),
		GraphPool: DefaultGraphPool,
	}
	err := engine.ReloadSelf(def, opts...)
	if err == nil && engine.rootGraphCtx != nil {
		if id != "" {
			engine.rootGraphCtx.Id = types.FlowNodeId{Id: id, Type: types.GRAPH}
		} else {
			// fall back to the graph id from the definition
			engine.Id = engine.rootGraphCtx.Id.Id
		}
	}
	return engine, err
}

// ReloadSelf replaces the root graph from a new definition, destroying the
// old one.
func (e *Engine) ReloadSelf(def []byte, opts ...EngineOption) error {
	for _, opt := range opts {
		_ = opt(e)
	}
	ctx, err := e.Config.Parser.DecodeGraph(e.Config, def)
	if err != nil {
		return err
	}
	if e.Initialized() {
		e.Stop()
	}
	graphCtx := ctx.(*FlowGraphCtx)
	if e.rootGraphCtx != nil {
		graphCtx.Id = e.rootGraphCtx.Id
	}
	e.rootGraphCtx = graphCtx
	e.rootGraphCtx.SetGraphPool(e.GraphPool)
	return nil
}

// ReloadChild updates the root graph when nodeId is empty, otherwise the
// named node only.
func (e *Engine) ReloadChild(nodeId string, dsl []byte) error {
	if len(dsl) == 0 {
		return errors.New("dsl can not be empty")
	} else if e.rootGraphCtx == nil {
		return errors.New("ReloadChild error. Engine not initialized")
	} else if nodeId == "" {
		return e.ReloadSelf(dsl)
	}
	return e.rootGraphCtx.ReloadChild(types.FlowNodeId{Id: nodeId}, dsl)
}

// DSL returns the root graph definition.
func (e *Engine) DSL() []byte {
	if e.rootGraphCtx != nil {
		return e.rootGraphCtx.DSL()
	}
	return nil
}

// NodeDSL returns the definition of one node of the root graph.
func (e *Engine) NodeDSL(nodeId types.FlowNodeId) []byte {
	if e.rootGraphCtx != nil {
		if node, ok := e.rootGraphCtx.GetNodeById(nodeId); ok {
			return node.DSL()
		}
	}
	return nil
}

func (e *Engine) Initialized() bool {
	return e.rootGraphCtx != nil
}

// RootGraphCtx returns the root graph context.
func (e *Engine) RootGraphCtx() *FlowGraphCtx {
	return e.rootGraphCtx
}

// Stop destroys the root graph and releases its nodes.
func (e *Engine) Stop() {
	if e.rootGraphCtx != nil {
		e.rootGraphCtx.Destroy()
		e.rootGraphCtx = nil
	}
}

// OnMsg hands the message to the graph, asynchronously.
func (e *Engine) OnMsg(msg types.FlowMsg) {
	e.OnMsgWithOptions(msg)
}

// OnMsgWithOptions hands the message to the graph with context options,
// asynchronously.
func (e *Engine) OnMsgWithOptions(msg types.FlowMsg, opts ...types.FlowContextOption) {
	e.onMsgAndWait(msg, false, opts...)
}

// OnMsgAndWait hands the message to the graph and blocks until every node
// finished. Latent nodes may still fire outputs afterwards.
func (e *Engine) OnMsgAndWait(msg types.FlowMsg, opts ...types.FlowContextOption) {
	e.onMsgAndWait(msg, true, opts...)
}

func (e *Engine) onMsgAndWait(msg types.FlowMsg, wait bool, opts ...types.FlowContextOption) {
	if e.rootGraphCtx == nil {
		e.Config.Logger.Printf("OnMsg error. Engine not initialized")
		return
	}
	rootCtx, ok := e.rootGraphCtx.rootFlowContext.(*DefaultFlowContext)
	if !ok || rootCtx == nil {
		e.Config.Logger.Printf("OnMsg error. Graph id=%s has no first node", e.Id)
		return
	}
	rootCtxCopy := NewFlowContext(rootCtx.GetContext(), rootCtx.config, rootCtx.graphCtx, rootCtx.from, rootCtx.self, rootCtx.pool, rootCtx.onEnd, e.GraphPool)
	rootCtxCopy.isFirst = rootCtx.isFirst
	for _, opt := range opts {
		opt(rootCtxCopy)
	}

	if !wait {
		rootCtxCopy.TellNext(msg)
		return
	}

	// the callback must be in place before the first node runs, the graph
	// may settle on another goroutine right away
	customFunc := rootCtxCopy.onAllNodeCompleted
	c := make(chan struct{})
	rootCtxCopy.onAllNodeCompleted = func() {
		close(c)
		if customFunc != nil {
			customFunc()
		}
	}
	rootCtxCopy.TellNext(msg)
	<-c
}

// NewConfig creates a Config with the engine defaults applied.
func NewConfig(opts ...types.Option) types.Config {
	c := types.NewConfig(opts...)
	if c.Parser == nil {
		c.Parser = &JsonParser{}
	}
	if c.ComponentsRegistry == nil {
		c.ComponentsRegistry = Registry
	}
	return c
}
