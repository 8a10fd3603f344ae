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
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/json"
)

var _ types.FlowContext = (*DefaultFlowContext)(nil)

// DefaultFlowContext carries one message through a graph. Every node
// activation gets its own context; child contexts track completion so the
// onAllNodeCompleted callback fires after the whole graph settled.
type DefaultFlowContext struct {
	// context shares data and cancellation between component instances.
	context  context.Context
	config   types.Config
	graphCtx *FlowGraphCtx
	// from is the previous node context, nil for the first node.
	from types.NodeCtx
	// self is the current node context.
	self    types.NodeCtx
	isFirst bool
	pool    types.Pool
	onEnd   types.OnEndFunc
	// waitingCount is the number of children still running.
	waitingCount int32
	// completed flips once when the subtree settled. Latent nodes end more
	// than one branch per activation and re-enter after settlement, so
	// childDone can run past zero.
	completed          int32
	parentFlowCtx      *DefaultFlowContext
	onAllNodeCompleted func()
	graphPool          *GraphPool
	// interceptor observes the relations a node tells, used by tooling.
	interceptor func(msg types.FlowMsg, err error, relationTypes ...string)
}

// NewFlowContext creates a message processing context.
func NewFlowContext(context context.Context, config types.Config, graphCtx *FlowGraphCtx, from types.NodeCtx, self types.NodeCtx, pool types.Pool, onEnd types.OnEndFunc, graphPool *GraphPool) *DefaultFlowContext {
	return &DefaultFlowContext{
		context:   context,
		config:    config,
		graphCtx:  graphCtx,
		from:      from,
		self:      self,
		isFirst:   from == nil,
		pool:      pool,
		onEnd:     onEnd,
		graphPool: graphPool,
	}
}

// NewNextNodeContext creates the context the next node runs under.
func (ctx *DefaultFlowContext) NewNextNodeContext(nextNode types.NodeCtx) *DefaultFlowContext {
	return &DefaultFlowContext{
		config:        ctx.config,
		graphCtx:      ctx.graphCtx,
		from:          ctx.self,
		self:          nextNode,
		pool:          ctx.pool,
		onEnd:         ctx.onEnd,
		context:       ctx.GetContext(),
		parentFlowCtx: ctx,
		graphPool:     ctx.graphPool,
		interceptor:   ctx.interceptor,
	}
}

func (ctx *DefaultFlowContext) TellSuccess(msg types.FlowMsg) {
	ctx.tell(msg, nil, types.Success)
}

func (ctx *DefaultFlowContext) TellFailure(msg types.FlowMsg, err error) {
	ctx.tell(msg, err, types.Failure)
}

func (ctx *DefaultFlowContext) TellNext(msg types.FlowMsg, relationTypes ...string) {
	ctx.tell(msg, nil, relationTypes...)
}

func (ctx *DefaultFlowContext) TellSelf(msg types.FlowMsg, delayMs int64) {
	time.AfterFunc(time.Millisecond*time.Duration(delayMs), func() {
		if ctx.self != nil {
			ctx.self.OnMsg(ctx, msg)
		}
	})
}

// TellFlow executes another graph by id. onEnd runs once per branch end,
// onAllNodeCompleted once after every node of that graph finished. An
// unknown id routes the message over the Failure relation.
func (ctx *DefaultFlowContext) TellFlow(msg types.FlowMsg, graphId string, onEnd types.OnEndFunc, onAllNodeCompleted func()) {
	if e, ok := ctx.getGraphPool().Get(graphId); ok {
		e.OnMsgWithOptions(msg, types.WithOnEnd(onEnd), types.WithOnAllNodeCompleted(onAllNodeCompleted))
	} else {
		ctx.TellFailure(msg, fmt.Errorf("graph id=%s not found", graphId))
	}
}

func (ctx *DefaultFlowContext) NewMsg(msgType string, metadata types.Metadata, data string) types.FlowMsg {
	return types.NewMsg(0, msgType, types.JSON, metadata, data)
}

func (ctx *DefaultFlowContext) GetSelfId() string {
	if ctx.self == nil {
		return ""
	}
	return ctx.self.GetNodeId().Id
}

func (ctx *DefaultFlowContext) Config() types.Config {
	return ctx.config
}

func (ctx *DefaultFlowContext) SetEndFunc(f types.OnEndFunc) types.FlowContext {
	ctx.onEnd = f
	return ctx
}

func (ctx *DefaultFlowContext) GetEndFunc() types.OnEndFunc {
	return ctx.onEnd
}

func (ctx *DefaultFlowContext) SetContext(c context.Context) types.FlowContext {
	ctx.context = c
	return ctx
}

func (ctx *DefaultFlowContext) GetContext() context.Context {
	return ctx.context
}

func (ctx *DefaultFlowContext) SetOnAllNodeCompleted(onAllNodeCompleted func()) {
	ctx.onAllNodeCompleted = onAllNodeCompleted
}

// SubmitTask runs the task on the configured pool, falling back to a plain
// goroutine.
func (ctx *DefaultFlowContext) SubmitTask(task func()) {
	if ctx.pool != nil {
		if err := ctx.pool.Submit(task); err != nil {
			ctx.config.Logger.Printf("SubmitTask error:%s", err)
		}
	} else {
		go task()
	}
}

// GetEnv builds the template and script environment for a message. With
// useMetadata, metadata values are merged in as top-level keys.
func (ctx *DefaultFlowContext) GetEnv(msg types.FlowMsg, useMetadata bool) map[string]interface{} {
	env := make(map[string]interface{})
	env["id"] = msg.Id
	env["ts"] = msg.Ts
	env["data"] = msg.Data
	env["dataType"] = string(msg.DataType)
	env[types.MsgTypeKey] = msg.Type

	var data interface{} = msg.Data
	if msg.DataType == types.JSON {
		var dataMap interface{}
		if err := json.Unmarshal([]byte(msg.Data), &dataMap); err == nil {
			data = dataMap
		}
	}
	env[types.MsgKey] = data

	metadata := make(map[string]interface{})
	for k, v := range msg.Metadata.Values() {
		metadata[k] = v
		if useMetadata {
			env[k] = v
		}
	}
	env[types.MetadataKey] = metadata
	return env
}

func (ctx *DefaultFlowContext) getGraphPool() *GraphPool {
	if ctx.graphPool == nil {
		return DefaultGraphPool
	}
	return ctx.graphPool
}

// childReady accounts one child activation about to run.
func (ctx *DefaultFlowContext) childReady() {
	atomic.AddInt32(&ctx.waitingCount, 1)
}

// childDone accounts one finished child. When the last child of the whole
// tree finishes, onAllNodeCompleted fires exactly once.
func (ctx *DefaultFlowContext) childDone() {
	if atomic.AddInt32(&ctx.waitingCount, -1) <= 0 {
		if atomic.CompareAndSwapInt32(&ctx.completed, 0, 1) {
			if ctx.parentFlowCtx != nil {
				ctx.parentFlowCtx.childDone()
			}
			if ctx.onAllNodeCompleted != nil {
				ctx.onAllNodeCompleted()
			}
		}
	}
}

func (ctx *DefaultFlowContext) getNextNodes(relationType string) ([]types.NodeCtx, bool) {
	if ctx.graphCtx == nil || ctx.self == nil {
		return nil, false
	}
	return ctx.graphCtx.GetNextNodes(ctx.self.GetNodeId(), relationType)
}

func (ctx *DefaultFlowContext) onDebug(flowType string, nodeId string, msg types.FlowMsg, relationType string, err error) {
	if ctx.config.OnDebug != nil {
		var graphId = ""
		if ctx.graphCtx != nil {
			graphId = ctx.graphCtx.Id.Id
		}
		ctx.config.OnDebug(graphId, flowType, nodeId, msg.Copy(), relationType, err)
	}
}

func (ctx *DefaultFlowContext) tell(msg types.FlowMsg, err error, relationTypes ...string) {
	msgCopy := msg.Copy()
	if ctx.isFirst {
		ctx.SubmitTask(func() {
			if ctx.self != nil {
				ctx.tellNext(msgCopy, ctx.self, "")
			} else {
				ctx.doOnEnd(msgCopy, err, "")
			}
		})
		return
	}
	if ctx.interceptor != nil {
		ctx.interceptor(msgCopy, err, relationTypes...)
	}
	for _, relationType := range relationTypes {
		if ctx.self != nil && ctx.self.IsDebugMode() {
			relation := relationType
			ctx.SubmitTask(func() {
				ctx.onDebug(types.Out, ctx.GetSelfId(), msgCopy, relation, err)
			})
		}
		if nodes, ok := ctx.getNextNodes(relationType); ok {
			for _, item := range nodes {
				tmp := item
				relation := relationType
				ctx.SubmitTask(func() {
					ctx.tellNext(msg.Copy(), tmp, relation)
				})
			}
		} else {
			ctx.doOnEnd(msgCopy, err, relationType)
		}
	}
}

func (ctx *DefaultFlowContext) tellNext(msg types.FlowMsg, nextNode types.NodeCtx, relationType string) {
	nextCtx := ctx.NewNextNodeContext(nextNode)
	ctx.childReady()
	defer func() {
		if e := recover(); e != nil {
			if nextCtx.self != nil && nextCtx.self.IsDebugMode() {
				ctx.onDebug(types.In, nextCtx.GetSelfId(), msg, relationType, fmt.Errorf("%v", e))
			}
			ctx.config.Logger.Printf("tellNext panic.node type:%s error:%v", nextNode.Type(), e)
			ctx.childDone()
		}
	}()
	if nextCtx.self != nil && nextCtx.self.IsDebugMode() {
		ctx.onDebug(types.In, nextCtx.GetSelfId(), msg, relationType, nil)
	}
	nextNode.OnMsg(nextCtx, msg)
}

// doOnEnd runs the branch-end callbacks when a message leaves the graph.
func (ctx *DefaultFlowContext) doOnEnd(msg types.FlowMsg, err error, relationType string) {
	if ctx.config.OnEnd != nil {
		ctx.SubmitTask(func() {
			ctx.config.OnEnd(msg, err)
		})
	}
	if ctx.onEnd != nil {
		ctx.SubmitTask(func() {
			ctx.onEnd(ctx, msg, err, relationType)
			ctx.childDone()
		})
	} else {
		ctx.childDone()
	}
}
