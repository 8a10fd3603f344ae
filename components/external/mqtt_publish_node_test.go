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

package external

import (
	"testing"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/test"
	"github.com/flowgo/flowgo/test/assert"
)

func TestMqttPublishNodeInit(t *testing.T) {
	var targetNodeType = "external/mqttPublish"

	t.Run("InitNode", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"topic":  "/flow/events/${metadata.eventName}",
			"server": "tcp://127.0.0.1:1883",
		}, Registry)
		assert.Nil(t, err)
		assert.True(t, node.(*MqttPublishNode).topicTpl)
		// Destroy before any connection is a no-op
		node.Destroy()
	})

	t.Run("Defaults", func(t *testing.T) {
		node := (&MqttPublishNode{}).New().(*MqttPublishNode)
		assert.Equal(t, "/flow/events", node.Config.Topic)
		err := node.Init(types.NewConfig(), types.Configuration{})
		assert.Nil(t, err)
		assert.False(t, node.topicTpl)
	})

	t.Run("EmptyTopic", func(t *testing.T) {
		node := (&MqttPublishNode{}).New().(*MqttPublishNode)
		err := node.Init(types.NewConfig(), types.Configuration{"topic": ""})
		assert.Equal(t, "topic can not be empty", err.Error())
	})
}
