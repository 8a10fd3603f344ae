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

package str

import (
	"testing"

	"github.com/flowgo/flowgo/test/assert"
)

func TestExecuteTemplate(t *testing.T) {
	dict := map[string]interface{}{
		"data": `{"health":80}`,
		"metadata": map[string]interface{}{
			"eventName": "OnDialogueStart",
		},
	}
	assert.Equal(t, "event OnDialogueStart fired",
		ExecuteTemplate("event ${metadata.eventName} fired", dict))
	assert.Equal(t, `payload {"health":80}`,
		ExecuteTemplate("payload ${data}", dict))
	// unmatched placeholders stay as-is
	assert.Equal(t, "keep ${missing.key}",
		ExecuteTemplate("keep ${missing.key}", dict))
	assert.Equal(t, "no vars", ExecuteTemplate("no vars", dict))
}

func TestSprintfDict(t *testing.T) {
	dict := map[string]string{"global.name": "flowgo"}
	assert.Equal(t, "hello flowgo", SprintfDict("hello ${global.name}", dict))
	assert.Equal(t, "hello ${other}", SprintfDict("hello ${other}", dict))
}

func TestCheckHasVar(t *testing.T) {
	assert.True(t, CheckHasVar("${metadata.eventName}"))
	assert.False(t, CheckHasVar("plain"))
	assert.False(t, CheckHasVar("half ${open"))
}

func TestRandomStr(t *testing.T) {
	assert.Equal(t, 8, len(RandomStr(8)))
	assert.Equal(t, 0, len(RandomStr(0)))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "12", ToString(12))
	assert.Equal(t, "12.5", ToString(12.5))
	assert.Equal(t, "abc", ToString([]byte("abc")))
	assert.Equal(t, `{"a":1}`, ToString(map[string]interface{}{"a": 1}))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains(nil, "a"))
}
