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

import (
	"errors"
	"testing"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/test"
	"github.com/flowgo/flowgo/test/assert"
)

func TestSubGraphNode(t *testing.T) {
	var targetNodeType = "flow/subGraph"

	t.Run("InitNode", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"targetId": "sub01",
		}, Registry)
		assert.Nil(t, err)
		assert.Equal(t, "sub01", node.(*SubGraphNode).TargetGraphId())
	})

	t.Run("ExtendForwardsRelations", func(t *testing.T) {
		node, _ := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"targetId": "sub01",
			"extend":   true,
		}, Registry)

		var relations []string
		ctx := test.NewFlowContext(types.NewConfig(), func(msg types.FlowMsg, relationType string, err error) {
			relations = append(relations, relationType)
		})
		// fake sub graph with two branch ends
		ctx.TellFlowFunc = func(msg types.FlowMsg, graphId string, onEnd types.OnEndFunc, onAllNodeCompleted func()) {
			assert.Equal(t, "sub01", graphId)
			onEnd(ctx, msg, nil, "OnDialogueStart")
			onEnd(ctx, msg, errors.New("boom"), types.Failure)
			if onAllNodeCompleted != nil {
				onAllNodeCompleted()
			}
		}

		msg := ctx.NewMsg("ACTIVATE", types.NewMetadata(), "{}")
		node.OnMsg(ctx, msg)
		assert.Equal(t, []string{"OnDialogueStart", types.Failure}, relations)
	})

	t.Run("MergeCollectsBranches", func(t *testing.T) {
		node, _ := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"targetId": "sub01",
		}, Registry)

		var gotRelation string
		var gotMsg types.FlowMsg
		ctx := test.NewFlowContext(types.NewConfig(), func(msg types.FlowMsg, relationType string, err error) {
			gotRelation = relationType
			gotMsg = msg
		})
		ctx.TellFlowFunc = func(msg types.FlowMsg, graphId string, onEnd types.OnEndFunc, onAllNodeCompleted func()) {
			first := msg.Copy()
			first.Metadata.PutValue("fromBranch", "a")
			onEnd(ctx, first, nil, types.Success)
			second := msg.Copy()
			onEnd(ctx, second, nil, types.Success)
			onAllNodeCompleted()
		}

		msg := ctx.NewMsg("ACTIVATE", types.NewMetadata(), "{}")
		node.OnMsg(ctx, msg)
		assert.Equal(t, types.Success, gotRelation)
		// branch metadata merged into the wrapper message
		assert.Equal(t, "a", gotMsg.Metadata.GetValue("fromBranch"))
		assert.Equal(t, types.JSON, gotMsg.DataType)
	})

	t.Run("MergeFailure", func(t *testing.T) {
		node, _ := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"targetId": "sub01",
		}, Registry)

		var gotRelation string
		var gotErr error
		ctx := test.NewFlowContext(types.NewConfig(), func(msg types.FlowMsg, relationType string, err error) {
			gotRelation = relationType
			gotErr = err
		})
		ctx.TellFlowFunc = func(msg types.FlowMsg, graphId string, onEnd types.OnEndFunc, onAllNodeCompleted func()) {
			onEnd(ctx, msg.Copy(), errors.New("sub graph failed"), types.Failure)
			onAllNodeCompleted()
		}

		msg := ctx.NewMsg("ACTIVATE", types.NewMetadata(), "{}")
		node.OnMsg(ctx, msg)
		assert.Equal(t, types.Failure, gotRelation)
		assert.Equal(t, "sub graph failed", gotErr.Error())
	})
}
