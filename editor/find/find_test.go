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

package find

import (
	"testing"

	"github.com/flowgo/flowgo/engine"
	"github.com/flowgo/flowgo/test/assert"
)

var subGraphFile = `
{
  "graph": {
    "id": "sub01",
    "name": "dialogue beat"
  },
  "metadata": {
    "nodes": [
      {
        "id": "d1",
        "type": "action/log",
        "name": "log dialogue line",
        "additionalInfo": {"comment": "spoken by the questgiver"},
        "configuration": {"template": "line: ${data}"}
      }
    ],
    "connections": []
  }
}
`

var mainGraphFile = `
{
  "graph": {
    "id": "main01",
    "name": "intro quest",
    "root": true
  },
  "metadata": {
    "nodes": [
      {
        "id": "s1",
        "type": "world/playSequence",
        "name": "play intro cinematic",
        "additionalInfo": {"comment": "runs once per save"},
        "configuration": {"sequence": "/Game/Cinematics/Intro.Intro"}
      },
      {
        "id": "s2",
        "type": "flow/subGraph",
        "name": "dialogue",
        "configuration": {"targetId": "sub01"}
      }
    ],
    "connections": [
      {"fromId": "s1", "toId": "s2", "type": "Completed"}
    ]
  }
}
`

func newTestPool(t *testing.T) *engine.GraphPool {
	pool := &engine.GraphPool{}
	config := engine.NewConfig()
	if _, err := pool.New("", []byte(subGraphFile), engine.WithConfig(config)); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.New("", []byte(mainGraphFile), engine.WithConfig(config)); err != nil {
		t.Fatal(err)
	}
	return pool
}

func TestFind(t *testing.T) {
	pool := newTestPool(t)
	defer pool.Stop()
	finder := NewFinder(pool)

	t.Run("ByTitle", func(t *testing.T) {
		results := finder.Find("main01", "cinematic", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, "play intro cinematic", results[0].Value)
		assert.Equal(t, "playSequence", results[0].NodeTypeText)
		assert.Equal(t, "s1", results[0].NodeId)
		assert.Equal(t, "main01", results[0].GraphId)
	})

	t.Run("ByComment", func(t *testing.T) {
		results := finder.Find("main01", "once per save", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, "s1", results[0].NodeId)
	})

	t.Run("ByType", func(t *testing.T) {
		results := finder.Find("main01", "playsequence", Options{})
		assert.Equal(t, 1, len(results))
	})

	t.Run("ByDescription", func(t *testing.T) {
		// the sequence node describes itself by asset name, appended after
		// the comment in the search string
		results := finder.Find("main01", "persaveintro", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, "s1", results[0].NodeId)
	})

	t.Run("AllTokensMustMatch", func(t *testing.T) {
		results := finder.Find("main01", "cinematic dialogue", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, NoResultsFound, results[0].Value)
	})

	t.Run("SpacesIgnored", func(t *testing.T) {
		// "playintrocinematic" matches the space-stripped title
		results := finder.Find("main01", "introcinematic", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, "s1", results[0].NodeId)
	})

	t.Run("NoResults", func(t *testing.T) {
		results := finder.Find("main01", "boss battle", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, NoResultsFound, results[0].Value)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		results := finder.Find("main01", "   ", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, NoResultsFound, results[0].Value)
	})

	t.Run("UnknownGraph", func(t *testing.T) {
		results := finder.Find("missing", "cinematic", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, NoResultsFound, results[0].Value)
	})

	t.Run("SubGraphDescent", func(t *testing.T) {
		results := finder.Find("main01", "questgiver", Options{IncludeSubGraphs: true})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, "s2", results[0].NodeId)
		assert.Equal(t, 1, len(results[0].Children))
		assert.Equal(t, "d1", results[0].Children[0].NodeId)
		assert.Equal(t, "sub01", results[0].Children[0].GraphId)
	})

	t.Run("NoDescentByDefault", func(t *testing.T) {
		results := finder.Find("main01", "questgiver", Options{})
		assert.Equal(t, 1, len(results))
		assert.Equal(t, NoResultsFound, results[0].Value)
	})
}
