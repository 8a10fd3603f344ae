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

package test

import (
	"context"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/json"
)

// NodeTestFlowContext is a throwaway context for exercising a single node.
// It cannot link nodes into a graph; every tell lands in the callback.
type NodeTestFlowContext struct {
	context  context.Context
	config   types.Config
	callback func(msg types.FlowMsg, relationType string, err error)
	self     types.Node
	// TellFlowFunc handles TellFlow calls when set.
	TellFlowFunc func(msg types.FlowMsg, graphId string, onEnd types.OnEndFunc, onAllNodeCompleted func())

	onAllNodeCompleted func()
}

// NewFlowContext creates a single-node test context.
func NewFlowContext(config types.Config, callback func(msg types.FlowMsg, relationType string, err error)) *NodeTestFlowContext {
	return &NodeTestFlowContext{
		context:  context.TODO(),
		config:   config,
		callback: callback,
	}
}

// NewFlowContextFull additionally wires self, so TellSelf redelivers.
func NewFlowContextFull(config types.Config, self types.Node, callback func(msg types.FlowMsg, relationType string, err error)) *NodeTestFlowContext {
	return &NodeTestFlowContext{
		context:  context.TODO(),
		config:   config,
		self:     self,
		callback: callback,
	}
}

func (ctx *NodeTestFlowContext) TellSuccess(msg types.FlowMsg) {
	ctx.callback(msg, types.Success, nil)
}

func (ctx *NodeTestFlowContext) TellFailure(msg types.FlowMsg, err error) {
	ctx.callback(msg, types.Failure, err)
}

func (ctx *NodeTestFlowContext) TellNext(msg types.FlowMsg, relationTypes ...string) {
	for _, relationType := range relationTypes {
		ctx.callback(msg, relationType, nil)
	}
}

func (ctx *NodeTestFlowContext) TellSelf(msg types.FlowMsg, delayMs int64) {
	time.AfterFunc(time.Millisecond*time.Duration(delayMs), func() {
		if ctx.self != nil {
			ctx.self.OnMsg(ctx, msg)
		}
	})
}

func (ctx *NodeTestFlowContext) TellFlow(msg types.FlowMsg, graphId string, onEnd types.OnEndFunc, onAllNodeCompleted func()) {
	if ctx.TellFlowFunc != nil {
		ctx.TellFlowFunc(msg, graphId, onEnd, onAllNodeCompleted)
	}
}

func (ctx *NodeTestFlowContext) NewMsg(msgType string, metadata types.Metadata, data string) types.FlowMsg {
	return types.NewMsg(0, msgType, types.JSON, metadata, data)
}

func (ctx *NodeTestFlowContext) GetSelfId() string {
	return ""
}

func (ctx *NodeTestFlowContext) Config() types.Config {
	return ctx.config
}

func (ctx *NodeTestFlowContext) SubmitTask(task func()) {
	go task()
}

func (ctx *NodeTestFlowContext) GetEnv(msg types.FlowMsg, useMetadata bool) map[string]interface{} {
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
	if msg.Metadata != nil {
		for k, v := range msg.Metadata.Values() {
			metadata[k] = v
			if useMetadata {
				env[k] = v
			}
		}
	}
	env[types.MetadataKey] = metadata
	return env
}

func (ctx *NodeTestFlowContext) SetEndFunc(_ types.OnEndFunc) types.FlowContext {
	return ctx
}

func (ctx *NodeTestFlowContext) GetEndFunc() types.OnEndFunc {
	return nil
}

func (ctx *NodeTestFlowContext) SetContext(c context.Context) types.FlowContext {
	ctx.context = c
	return ctx
}

func (ctx *NodeTestFlowContext) GetContext() context.Context {
	return ctx.context
}

func (ctx *NodeTestFlowContext) SetOnAllNodeCompleted(onAllNodeCompleted func()) {
	ctx.onAllNodeCompleted = onAllNodeCompleted
}
