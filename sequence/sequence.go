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

// Package sequence models playable timeline assets and their runtime
// playback. A Sequence carries event tracks whose sections author named,
// timestamped entry points. Playback nodes bind a shared callback to the
// sections and receive (receiver, event name) when playback crosses an
// event; the receiver argument carries the activation identity, sections
// never hold per-instance pointers.
package sequence

import (
	"sync"
	"time"
)

// TrackKindFlowEvents marks tracks whose sections feed flow graph outputs.
const TrackKindFlowEvents = "flowEvents"

// EventCallback is the shared section callback. It is bound once at the
// type level; the receiver identifies the playback owner on invocation.
type EventCallback func(receiver interface{}, eventName string)

// Event is a named entry point authored at a timestamp on a section.
type Event struct {
	Name string
	At   time.Duration
}

// EventSection groups authored events on a track and holds the single
// OnEventExecuted binding slot.
type EventSection struct {
	Events []Event

	mu       sync.RWMutex
	callback EventCallback
}

// BindStatic sets the section callback, replacing any previous binding.
func (s *EventSection) BindStatic(callback EventCallback) {
	s.mu.Lock()
	s.callback = callback
	s.mu.Unlock()
}

// Unbind clears the section callback. Safe when nothing is bound.
func (s *EventSection) Unbind() {
	s.mu.Lock()
	s.callback = nil
	s.mu.Unlock()
}

// invoke fires the bound callback, if any.
func (s *EventSection) invoke(receiver interface{}, eventName string) {
	s.mu.RLock()
	callback := s.callback
	s.mu.RUnlock()
	if callback != nil {
		callback(receiver, eventName)
	}
}

// Track is a named lane of sections inside a sequence.
type Track struct {
	Name     string
	Kind     string
	Sections []*EventSection
}

// Sequence is a playable timeline asset.
type Sequence struct {
	// Path is the catalog soft-reference path of the asset.
	Path string
	// Name is the display name, usually the last path segment.
	Name     string
	Duration time.Duration
	Tracks   []*Track
}

// EventSections returns the sections of every flow event track.
func (s *Sequence) EventSections() []*EventSection {
	var sections []*EventSection
	for _, track := range s.Tracks {
		if track.Kind != TrackKindFlowEvents {
			continue
		}
		sections = append(sections, track.Sections...)
	}
	return sections
}

// EntryPoints returns the distinct non-empty event names across all flow
// event tracks, in authoring order.
func (s *Sequence) EntryPoints() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, section := range s.EventSections() {
		for _, event := range section.Events {
			if event.Name == "" {
				continue
			}
			if _, ok := seen[event.Name]; ok {
				continue
			}
			seen[event.Name] = struct{}{}
			names = append(names, event.Name)
		}
	}
	return names
}
