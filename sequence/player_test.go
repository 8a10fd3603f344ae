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

package sequence

import (
	"sync"
	"testing"
	"time"

	"github.com/flowgo/flowgo/test/assert"
)

// eventRecorder collects section callback invocations.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) record(_ interface{}, eventName string) {
	r.mu.Lock()
	r.events = append(r.events, eventName)
	r.mu.Unlock()
}

func (r *eventRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestPlayerEvents(t *testing.T) {
	seq := &Sequence{
		Name:     "test",
		Duration: time.Millisecond * 200,
		Tracks: []*Track{{
			Kind: TrackKindFlowEvents,
			Sections: []*EventSection{{Events: []Event{
				{Name: "First", At: time.Millisecond * 50},
				{Name: "Second", At: time.Millisecond * 120},
			}}},
		}},
	}
	recorder := &eventRecorder{}
	for _, section := range seq.EventSections() {
		section.BindStatic(recorder.record)
	}

	var finishedCount int32
	var finishedMu sync.Mutex
	player := NewPlayer(seq, recorder, PlaybackSettings{})
	player.OnFinished(func() {
		finishedMu.Lock()
		finishedCount++
		finishedMu.Unlock()
	})
	player.Play()
	// Play twice is a no-op
	player.Play()

	time.Sleep(time.Millisecond * 500)

	assert.Equal(t, []string{"First", "Second"}, recorder.snapshot())
	assert.False(t, player.IsPlaying())
	assert.Equal(t, seq.Duration, player.CurrentTime())
	finishedMu.Lock()
	assert.Equal(t, int32(1), finishedCount)
	finishedMu.Unlock()

	// Stop after natural completion stays a no-op
	player.Stop()
}

func TestPlayerStop(t *testing.T) {
	seq := &Sequence{
		Name:     "test",
		Duration: time.Second,
		Tracks: []*Track{{
			Kind: TrackKindFlowEvents,
			Sections: []*EventSection{{Events: []Event{
				{Name: "Late", At: time.Millisecond * 800},
			}}},
		}},
	}
	recorder := &eventRecorder{}
	for _, section := range seq.EventSections() {
		section.BindStatic(recorder.record)
	}

	finished := false
	player := NewPlayer(seq, recorder, PlaybackSettings{})
	player.OnFinished(func() { finished = true })
	player.Play()
	time.Sleep(time.Millisecond * 100)

	player.Stop()
	player.Stop()
	time.Sleep(time.Millisecond * 100)

	assert.False(t, player.IsPlaying())
	assert.False(t, finished)
	assert.Equal(t, 0, len(recorder.snapshot()))

	// Play after Stop stays stopped
	player.Play()
	assert.False(t, player.IsPlaying())
}

func TestPlayerStopBeforePlay(t *testing.T) {
	seq := &Sequence{Name: "test", Duration: time.Second}
	player := NewPlayer(seq, nil, PlaybackSettings{})
	player.Stop()
	player.Play()
	assert.False(t, player.IsPlaying())
}

func TestPlayerStartOffset(t *testing.T) {
	seq := &Sequence{
		Name:     "test",
		Duration: time.Millisecond * 300,
		Tracks: []*Track{{
			Kind: TrackKindFlowEvents,
			Sections: []*EventSection{{Events: []Event{
				{Name: "Skipped", At: time.Millisecond * 50},
				{Name: "Kept", At: time.Millisecond * 200},
			}}},
		}},
	}
	recorder := &eventRecorder{}
	for _, section := range seq.EventSections() {
		section.BindStatic(recorder.record)
	}

	player := NewPlayer(seq, recorder, PlaybackSettings{StartOffset: time.Millisecond * 100})
	player.Play()
	time.Sleep(time.Millisecond * 500)

	assert.Equal(t, []string{"Kept"}, recorder.snapshot())
}

func TestPlayerPlayRate(t *testing.T) {
	seq := &Sequence{Name: "test", Duration: time.Second * 10}
	player := NewPlayer(seq, nil, PlaybackSettings{PlayRate: 2.0})
	assert.Equal(t, 2.0, player.PlayRate())

	player.SetPlayRate(0)
	assert.Equal(t, 2.0, player.PlayRate())
	player.SetPlayRate(-1)
	assert.Equal(t, 2.0, player.PlayRate())

	player.SetPlayRate(0.5)
	assert.Equal(t, 0.5, player.PlayRate())

	t.Run("DefaultRate", func(t *testing.T) {
		p := NewPlayer(seq, nil, PlaybackSettings{})
		assert.Equal(t, 1.0, p.PlayRate())
	})

	t.Run("FastRateFinishesEarly", func(t *testing.T) {
		short := &Sequence{Name: "short", Duration: time.Second * 2}
		p := NewPlayer(short, nil, PlaybackSettings{PlayRate: 100})
		done := make(chan struct{})
		p.OnFinished(func() { close(done) })
		p.Play()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("player did not finish in time")
		}
	})
}
