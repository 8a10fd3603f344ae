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

package flow

//sub graph node, example:
//{
//        "id": "s1",
//        "type": "flow/subGraph",
//        "name": "sub graph",
//        "configuration": {
//			"targetId": "sub_graph_01",
//        }
//  }
import (
	"sync"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/maps"
	"github.com/flowgo/flowgo/utils/str"
)

// register the node
func init() {
	Registry.Add(&SubGraphNode{})
}

// SubGraphNodeConfiguration is the node configuration.
type SubGraphNodeConfiguration struct {
	// TargetId is the id of the graph to run.
	TargetId string
	// Extend true: every output and relation of the sub graph feeds the
	// next node directly. false: all branches run to the end and the
	// merged results go out over the Success relation as []WrapperMsg.
	Extend bool
}

// SubGraphNode runs another flow graph. An unknown target id routes the
// message over the Failure relation.
type SubGraphNode struct {
	// Config is the node configuration.
	Config SubGraphNodeConfiguration
}

// Type of the component.
func (x *SubGraphNode) Type() string {
	return "flow/subGraph"
}

func (x *SubGraphNode) New() types.Node {
	return &SubGraphNode{}
}

// Init loads the configuration.
func (x *SubGraphNode) Init(_ types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, &x.Config)
}

// TargetGraphId returns the id of the graph this node descends into, used
// by the search tool.
func (x *SubGraphNode) TargetGraphId() string {
	return x.Config.TargetId
}

// OnMsg hands the message to the target graph.
func (x *SubGraphNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	if x.Config.Extend {
		x.tellFlowAndNoMerge(ctx, msg)
	} else {
		x.tellFlowAndMerge(ctx, msg)
	}
}

// tellFlowAndNoMerge forwards every branch result as it arrives.
func (x *SubGraphNode) tellFlowAndNoMerge(ctx types.FlowContext, msg types.FlowMsg) {
	ctx.TellFlow(msg, x.Config.TargetId, func(onEndCtx types.FlowContext, onEndMsg types.FlowMsg, err error, relationType string) {
		if err != nil {
			ctx.TellFailure(onEndMsg, err)
		} else {
			ctx.TellNext(onEndMsg, relationType)
		}
	}, nil)
}

// tellFlowAndMerge collects every branch result and sends the merged list
// once the sub graph settled.
func (x *SubGraphNode) tellFlowAndMerge(ctx types.FlowContext, msg types.FlowMsg) {
	var wrapperMsg = msg.Copy()
	var msgs []types.WrapperMsg
	var targetRelationType = types.Success
	var targetErr error
	// guards msgs and metadata merging across branch callbacks
	var mu sync.Mutex
	ctx.TellFlow(msg, x.Config.TargetId, func(onEndCtx types.FlowContext, onEndMsg types.FlowMsg, err error, relationType string) {
		mu.Lock()
		defer mu.Unlock()
		errStr := ""
		if err == nil {
			for k, v := range onEndMsg.Metadata.Values() {
				wrapperMsg.Metadata.PutValue(k, v)
			}
		} else {
			errStr = err.Error()
		}
		if relationType == types.Failure {
			targetRelationType = relationType
			targetErr = err
		}
		if onEndMsg.Metadata != nil {
			onEndMsg.Metadata.Clear()
		}
		msgs = append(msgs, types.WrapperMsg{
			Msg:    onEndMsg,
			Err:    errStr,
			NodeId: onEndCtx.GetSelfId(),
		})
	}, func() {
		mu.Lock()
		defer mu.Unlock()
		wrapperMsg.DataType = types.JSON
		wrapperMsg.Data = str.ToString(msgs)
		if targetRelationType == types.Failure {
			ctx.TellFailure(wrapperMsg, targetErr)
		} else {
			ctx.TellSuccess(wrapperMsg)
		}
	})
}

// Destroy releases resources.
func (x *SubGraphNode) Destroy() {
}
