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

func TestAnalyticsDbNodeInit(t *testing.T) {
	var targetNodeType = "external/analyticsDb"

	t.Run("InitNode", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"sql": "insert into flow_events (graph_id, event_name) values (?,?)",
		}, Registry)
		assert.Nil(t, err)
		assert.Equal(t, "mysql", node.(*AnalyticsDbNode).Config.DriverName)
		assert.Equal(t, sqlInsert, node.(*AnalyticsDbNode).opType)
	})

	t.Run("EmptySql", func(t *testing.T) {
		_, err := test.CreateAndInitNode(targetNodeType, types.Configuration{}, Registry)
		assert.Equal(t, "sql can not be empty", err.Error())
	})

	t.Run("UnsupportedStatement", func(t *testing.T) {
		_, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"sql": "drop table flow_events",
		}, Registry)
		assert.NotNil(t, err)
	})

	t.Run("TemplatedSqlDefersCheck", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"sql": "${metadata.sql}",
		}, Registry)
		assert.Nil(t, err)
		assert.Equal(t, "", node.(*AnalyticsDbNode).opType)
		assert.True(t, node.(*AnalyticsDbNode).sqlHasVar)
	})

	t.Run("TemplatedParams", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"sql":    "select * from flow_events where event_name = ?",
			"params": []interface{}{"${metadata.eventName}"},
		}, Registry)
		assert.Nil(t, err)
		assert.True(t, node.(*AnalyticsDbNode).paramsHasVar)
		node.Destroy()
	})
}

func TestGetOpType(t *testing.T) {
	assert.Equal(t, sqlSelect, getOpType("select * from t"))
	assert.Equal(t, sqlUpdate, getOpType("UPDATE t set a=1"))
	assert.Equal(t, "", getOpType(""))
	assert.Nil(t, checkOpType(sqlDelete, "delete from t"))
	assert.NotNil(t, checkOpType("TRUNCATE", "truncate t"))
}
