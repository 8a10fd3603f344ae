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

package action

import (
	"testing"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/test"
	"github.com/flowgo/flowgo/test/assert"
)

func TestScriptNode(t *testing.T) {
	var targetNodeType = "action/script"

	t.Run("DefaultScriptPassesThrough", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{}, Registry)
		assert.Nil(t, err)
		metaData := types.BuildMetadata(make(map[string]string))
		test.NodeOnMsg(t, node, []test.Msg{{
			MetaData:   metaData,
			MsgType:    "ACTIVATE",
			Data:       `{"health":80}`,
			AfterSleep: time.Millisecond * 200,
		}}, func(msg types.FlowMsg, relationType string, err error) {
			assert.Equal(t, types.Success, relationType)
			assert.Equal(t, `{"health":80}`, msg.Data)
		})
	})

	t.Run("TransformsMsg", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"jsScript": "metadata['handled']='true'; msg['level']=msg.level*2; return {'msg':msg,'metadata':metadata,'msgType':'UPGRADED'};",
		}, Registry)
		assert.Nil(t, err)
		defer node.Destroy()
		metaData := types.BuildMetadata(make(map[string]string))
		test.NodeOnMsg(t, node, []test.Msg{{
			MetaData:   metaData,
			MsgType:    "ACTIVATE",
			Data:       `{"level":3}`,
			AfterSleep: time.Millisecond * 200,
		}}, func(msg types.FlowMsg, relationType string, err error) {
			assert.Equal(t, types.Success, relationType)
			assert.Equal(t, "UPGRADED", msg.Type)
			assert.Equal(t, "true", msg.Metadata.GetValue("handled"))
		})
	})

	t.Run("BadReturnValue", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"jsScript": "return 1;",
		}, Registry)
		assert.Nil(t, err)
		defer node.Destroy()
		test.NodeOnMsg(t, node, []test.Msg{{
			MetaData:   types.BuildMetadata(make(map[string]string)),
			MsgType:    "ACTIVATE",
			Data:       "{}",
			AfterSleep: time.Millisecond * 200,
		}}, func(msg types.FlowMsg, relationType string, err error) {
			assert.Equal(t, types.Failure, relationType)
			assert.Equal(t, ErrScriptReturnFormat, err)
		})
	})

	t.Run("BadScript", func(t *testing.T) {
		_, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"jsScript": "function { not valid",
		}, Registry)
		assert.NotNil(t, err)
	})
}
