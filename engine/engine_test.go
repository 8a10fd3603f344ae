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

package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/sequence"
	"github.com/flowgo/flowgo/test/assert"
)

var filterGraphFile = `
{
  "graph": {
    "id": "filter01",
    "name": "hot or not",
    "root": true
  },
  "metadata": {
    "nodes": [
      {
        "id": "s1",
        "type": "filter/expr",
        "name": "hot",
        "configuration": {"expr": "msg.temperature > 50"}
      }
    ],
    "connections": []
  }
}
`

type testWorld struct {
	dilation float64
}

func (w *testWorld) Name() string          { return "TestLevel" }
func (w *testWorld) TimeDilation() float64 { return w.dilation }

func TestEngine(t *testing.T) {
	pool := &GraphPool{}
	defer pool.Stop()

	e, err := pool.New("", []byte(filterGraphFile))
	assert.Nil(t, err)
	// id falls back to the graph id from the definition
	assert.Equal(t, "filter01", e.Id)
	assert.True(t, e.Initialized())

	got, ok := pool.Get("filter01")
	assert.True(t, ok)
	assert.True(t, got == e)

	t.Run("OnMsgAndWait", func(t *testing.T) {
		var mu sync.Mutex
		var relation string
		endFunc := types.WithOnEnd(func(ctx types.FlowContext, msg types.FlowMsg, err error, relationType string) {
			mu.Lock()
			relation = relationType
			mu.Unlock()
		})

		msg := types.NewMsg(0, "TELEMETRY", types.JSON, types.NewMetadata(), `{"temperature":60}`)
		e.OnMsgAndWait(msg, endFunc)
		mu.Lock()
		assert.Equal(t, types.True, relation)
		mu.Unlock()

		msg = types.NewMsg(0, "TELEMETRY", types.JSON, types.NewMetadata(), `{"temperature":40}`)
		e.OnMsgAndWait(msg, endFunc)
		mu.Lock()
		assert.Equal(t, types.False, relation)
		mu.Unlock()
	})

	t.Run("ReloadSelf", func(t *testing.T) {
		err := e.ReloadSelf([]byte(filterGraphFile))
		assert.Nil(t, err)
		assert.Equal(t, "filter01", e.Id)
		assert.True(t, e.Initialized())
	})

	t.Run("NodeDSL", func(t *testing.T) {
		dsl := e.NodeDSL(types.FlowNodeId{Id: "s1"})
		assert.NotNil(t, dsl)
		assert.Nil(t, e.NodeDSL(types.FlowNodeId{Id: "missing"}))
	})

	t.Run("Del", func(t *testing.T) {
		pool.Del("filter01")
		_, ok := pool.Get("filter01")
		assert.False(t, ok)
	})
}

func TestEngineBadDefinition(t *testing.T) {
	pool := &GraphPool{}
	_, err := pool.New("bad", []byte("not json"), WithConfig(NewConfig()))
	assert.NotNil(t, err)

	_, err = pool.New("empty", nil)
	assert.NotNil(t, err)
}

var sequenceGraphFile = `
{
  "graph": {
    "id": "seq01",
    "name": "intro",
    "debugMode": true,
    "root": true
  },
  "metadata": {
    "nodes": [
      {
        "id": "s1",
        "type": "world/playSequence",
        "name": "play intro",
        "debugMode": true,
        "configuration": {"sequence": "/Game/Cinematics/EngineTest.EngineTest"}
      },
      {
        "id": "s2",
        "type": "action/log",
        "name": "log event",
        "debugMode": true,
        "configuration": {"template": "event: ${metadata.eventName}"}
      }
    ],
    "connections": [
      {"fromId": "s1", "toId": "s2", "type": "OnBeat"}
    ]
  }
}
`

// TestSequenceGraphRouting drives a playback node inside a real graph and
// watches the authored event pin route into the next node.
func TestSequenceGraphRouting(t *testing.T) {
	seq := &sequence.Sequence{
		Path:     "/Game/Cinematics/EngineTest.EngineTest",
		Name:     "EngineTest",
		Duration: time.Millisecond * 200,
		Tracks: []*sequence.Track{{
			Kind: sequence.TrackKindFlowEvents,
			Sections: []*sequence.EventSection{{Events: []sequence.Event{
				{Name: "OnBeat", At: time.Millisecond * 50},
			}}},
		}},
	}
	sequence.DefaultCatalog.Register(seq)
	defer sequence.DefaultCatalog.Unregister(seq.Path)

	var mu sync.Mutex
	var inRelations []string
	config := NewConfig(
		types.WithWorld(&testWorld{dilation: 1.0}),
		types.WithOnDebug(func(graphId string, flowType string, nodeId string, msg types.FlowMsg, relationType string, err error) {
			if flowType == types.In && nodeId == "s2" {
				mu.Lock()
				inRelations = append(inRelations, relationType)
				mu.Unlock()
			}
		}),
	)

	pool := &GraphPool{}
	defer pool.Stop()
	e, err := pool.New("", []byte(sequenceGraphFile), WithConfig(config))
	assert.Nil(t, err)

	msg := types.NewMsg(0, "ACTIVATE", types.JSON, types.NewMetadata(), "{}")
	e.OnMsg(msg)
	time.Sleep(time.Millisecond * 500)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"OnBeat"}, inRelations)
}

var latentGraphFile = `
{
  "graph": {
    "id": "latent01",
    "name": "fire and forget",
    "root": true
  },
  "metadata": {
    "nodes": [
      {
        "id": "s1",
        "type": "world/playSequence",
        "name": "play stinger",
        "configuration": {"sequence": "/Game/Cinematics/Stinger.Stinger"}
      }
    ],
    "connections": []
  }
}
`

// TestOnMsgAndWaitLatentNode waits on a playback node whose pins are all
// unconnected. Activation ends several branches and the event and
// Completed pins end more after the wait already returned, so the
// completion callback must fire exactly once per call.
func TestOnMsgAndWaitLatentNode(t *testing.T) {
	seq := &sequence.Sequence{
		Path:     "/Game/Cinematics/Stinger.Stinger",
		Name:     "Stinger",
		Duration: time.Millisecond * 100,
		Tracks: []*sequence.Track{{
			Kind: sequence.TrackKindFlowEvents,
			Sections: []*sequence.EventSection{{Events: []sequence.Event{
				{Name: "OnHit", At: time.Millisecond * 30},
			}}},
		}},
	}
	sequence.DefaultCatalog.Register(seq)
	defer sequence.DefaultCatalog.Unregister(seq.Path)

	config := NewConfig(types.WithWorld(&testWorld{dilation: 1.0}))
	pool := &GraphPool{}
	defer pool.Stop()
	e, err := pool.New("", []byte(latentGraphFile), WithConfig(config))
	assert.Nil(t, err)

	var completed int32
	onCompleted := types.WithOnAllNodeCompleted(func() {
		atomic.AddInt32(&completed, 1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := types.NewMsg(0, "ACTIVATE", types.JSON, types.NewMetadata(), "{}")
			e.OnMsgAndWait(msg, onCompleted)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(5), atomic.LoadInt32(&completed))

	// let the event and Completed pins fire after settlement
	time.Sleep(time.Millisecond * 300)
	assert.Equal(t, int32(5), atomic.LoadInt32(&completed))
}
