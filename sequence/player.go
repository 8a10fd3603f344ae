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
	"sort"
	"sync"
	"time"
)

// tickInterval is the playback clock resolution.
const tickInterval = time.Millisecond * 10

// PlaybackSettings configures a playback session.
type PlaybackSettings struct {
	// PlayRate scales playback speed, default 1.0. Time dilation maps
	// onto this value.
	PlayRate float64
	// StartOffset starts playback from this point on the timeline.
	// Events authored before the offset are skipped.
	StartOffset time.Duration
}

// scheduledEvent pairs an authored event with its owning section so the
// playback loop can invoke the section callback when the event is due.
type scheduledEvent struct {
	section *EventSection
	event   Event
}

// Player drives one playback session of a sequence. Events fire through
// the section callbacks from the player goroutine, one at a time, with the
// receiver passed at creation. OnFinished fires exactly once at natural
// completion; Stop never fires it.
type Player struct {
	seq      *Sequence
	receiver interface{}

	mu       sync.Mutex
	playRate float64
	elapsed  time.Duration
	playing  bool
	stopped  bool
	stopCh   chan struct{}
	cursor   int
	schedule []scheduledEvent

	onFinished func()
	finishOnce sync.Once
}

// NewPlayer creates a playback session for seq. receiver is handed to
// every section callback invocation.
func NewPlayer(seq *Sequence, receiver interface{}, settings PlaybackSettings) *Player {
	playRate := settings.PlayRate
	if playRate <= 0 {
		playRate = 1.0
	}
	p := &Player{
		seq:      seq,
		receiver: receiver,
		playRate: playRate,
		elapsed:  settings.StartOffset,
		stopCh:   make(chan struct{}),
	}
	for _, section := range seq.EventSections() {
		for _, event := range section.Events {
			p.schedule = append(p.schedule, scheduledEvent{section: section, event: event})
		}
	}
	sort.SliceStable(p.schedule, func(i, j int) bool {
		return p.schedule[i].event.At < p.schedule[j].event.At
	})
	for p.cursor < len(p.schedule) && p.schedule[p.cursor].event.At < settings.StartOffset {
		p.cursor++
	}
	return p
}

// OnFinished registers the natural-completion callback. Must be set
// before Play.
func (p *Player) OnFinished(fn func()) {
	p.mu.Lock()
	p.onFinished = fn
	p.mu.Unlock()
}

// Play starts playback. Calling Play on a running or stopped player is a
// no-op.
func (p *Player) Play() {
	p.mu.Lock()
	if p.playing || p.stopped {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.mu.Unlock()

	go p.run()
}

func (p *Player) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if p.advance(tickInterval) {
				p.finish()
				return
			}
		}
	}
}

// advance moves the playback clock and fires due events. Returns true when
// the timeline end is reached.
func (p *Player) advance(tick time.Duration) bool {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return false
	}
	p.elapsed += time.Duration(float64(tick) * p.playRate)
	if p.elapsed > p.seq.Duration {
		p.elapsed = p.seq.Duration
	}
	var due []scheduledEvent
	for p.cursor < len(p.schedule) && p.schedule[p.cursor].event.At <= p.elapsed {
		due = append(due, p.schedule[p.cursor])
		p.cursor++
	}
	done := p.elapsed >= p.seq.Duration
	p.mu.Unlock()

	for _, item := range due {
		item.section.invoke(p.receiver, item.event.Name)
	}
	return done
}

// finish marks playback complete and fires OnFinished once.
func (p *Player) finish() {
	p.mu.Lock()
	p.playing = false
	p.stopped = true
	onFinished := p.onFinished
	p.mu.Unlock()

	p.finishOnce.Do(func() {
		if onFinished != nil {
			onFinished()
		}
	})
}

// Stop halts playback without firing OnFinished. Idempotent, safe before
// or without Play.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.playing = false
	p.stopped = true
	close(p.stopCh)
	p.mu.Unlock()
}

// IsPlaying reports whether the player is currently running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// CurrentTime returns the playback clock position.
func (p *Player) CurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsed
}

// Duration returns the timeline length.
func (p *Player) Duration() time.Duration {
	return p.seq.Duration
}

// SetPlayRate updates playback speed mid-flight. Rates <= 0 are ignored.
func (p *Player) SetPlayRate(rate float64) {
	if rate <= 0 {
		return
	}
	p.mu.Lock()
	p.playRate = rate
	p.mu.Unlock()
}

// PlayRate returns the current playback speed.
func (p *Player) PlayRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playRate
}
