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
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/test"
	"github.com/flowgo/flowgo/test/assert"
)

// captureLogger records log lines for assertions.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
	l.mu.Unlock()
}

func (l *captureLogger) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return ""
	}
	return l.lines[len(l.lines)-1]
}

func TestLogNode(t *testing.T) {
	logger := &captureLogger{}
	node := (&LogNode{}).New()
	err := node.Init(types.NewConfig(types.WithLogger(logger)), types.Configuration{
		"template": "event ${metadata.eventName} fired",
	})
	assert.Nil(t, err)

	metaData := types.BuildMetadata(make(map[string]string))
	metaData.PutValue("eventName", "OnDialogueStart")
	test.NodeOnMsg(t, node, []test.Msg{{
		MetaData:   metaData,
		MsgType:    "ACTIVATE",
		Data:       "{}",
		AfterSleep: time.Millisecond * 200,
	}}, func(msg types.FlowMsg, relationType string, err error) {
		assert.Equal(t, types.Success, relationType)
	})

	assert.True(t, strings.Contains(logger.last(), "OnDialogueStart"))

	t.Run("StaticTemplate", func(t *testing.T) {
		node, err := test.CreateAndInitNode("action/log", types.Configuration{
			"template": "plain line",
		}, Registry)
		assert.Nil(t, err)
		test.NodeOnMsg(t, node, []test.Msg{{
			MetaData:   types.BuildMetadata(make(map[string]string)),
			MsgType:    "ACTIVATE",
			Data:       "{}",
			AfterSleep: time.Millisecond * 200,
		}}, func(msg types.FlowMsg, relationType string, err error) {
			assert.Equal(t, types.Success, relationType)
		})
	})
}
