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

package filter

import (
	"testing"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/test"
	"github.com/flowgo/flowgo/test/assert"
)

func TestExprFilterNode(t *testing.T) {
	var targetNodeType = "filter/expr"

	t.Run("InitNode", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msg.health > 50",
		}, Registry)
		assert.Nil(t, err)
		assert.Equal(t, targetNodeType, node.Type())

		_, err = test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msg.health >",
		}, Registry)
		assert.NotNil(t, err)
	})

	t.Run("OnMsg", func(t *testing.T) {
		node1, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msg.health > 50",
		}, Registry)
		assert.Nil(t, err)
		node2, _ := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "metadata.eventName == 'BossDoorOpen'",
		}, Registry)
		node3, _ := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msgType == 'ACTIVATE'",
		}, Registry)

		metaData := types.BuildMetadata(make(map[string]string))
		metaData.PutValue("eventName", "BossDoorOpen")

		msg1 := test.Msg{
			MetaData:   metaData,
			MsgType:    "ACTIVATE",
			Data:       `{"health":80}`,
			AfterSleep: time.Millisecond * 200,
		}
		msg2 := test.Msg{
			MetaData:   metaData,
			MsgType:    "TELEMETRY",
			Data:       `{"health":20}`,
			AfterSleep: time.Millisecond * 200,
		}
		var nodeList = []test.NodeAndCallback{
			{
				Node:    node1,
				MsgList: []test.Msg{msg1},
				Callback: func(msg types.FlowMsg, relationType string, err error) {
					assert.Equal(t, types.True, relationType)
				},
			},
			{
				Node:    node1,
				MsgList: []test.Msg{msg2},
				Callback: func(msg types.FlowMsg, relationType string, err error) {
					assert.Equal(t, types.False, relationType)
				},
			},
			{
				Node:    node2,
				MsgList: []test.Msg{msg1},
				Callback: func(msg types.FlowMsg, relationType string, err error) {
					assert.Equal(t, types.True, relationType)
				},
			},
			{
				Node:    node3,
				MsgList: []test.Msg{msg2},
				Callback: func(msg types.FlowMsg, relationType string, err error) {
					assert.Equal(t, types.False, relationType)
				},
			},
		}
		for _, item := range nodeList {
			test.NodeOnMsg(t, item.Node, item.MsgList, item.Callback)
		}
	})
}
