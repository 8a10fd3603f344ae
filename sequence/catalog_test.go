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
	"testing"
	"time"

	"github.com/flowgo/flowgo/test/assert"
	"github.com/flowgo/flowgo/utils/cache"
)

func TestRef(t *testing.T) {
	assert.True(t, Ref{}.IsNull())
	assert.Equal(t, "", Ref{}.AssetName())

	ref := Ref{Path: "/Game/Cinematics/Intro.Intro"}
	assert.False(t, ref.IsNull())
	assert.Equal(t, "Intro", ref.AssetName())

	assert.Equal(t, "Intro", Ref{Path: "Intro"}.AssetName())
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog()
	seq := newTestSequence()
	catalog.Register(seq)
	catalog.Register(nil)

	assert.Nil(t, catalog.LoadSync(Ref{}))
	assert.Nil(t, catalog.LoadSync(Ref{Path: "/Game/Unknown.Unknown"}))
	assert.True(t, catalog.LoadSync(Ref{Path: seq.Path}) == seq)

	catalog.Unregister(seq.Path)
	assert.Nil(t, catalog.LoadSync(Ref{Path: seq.Path}))
}

func TestStreamer(t *testing.T) {
	catalog := NewCatalog()
	seq := newTestSequence()
	catalog.Register(seq)
	ref := Ref{Path: seq.Path}

	c := cache.NewMemoryCache(time.Minute)
	streamer := NewStreamer(catalog, c)

	assert.False(t, streamer.IsLoaded(ref))
	streamer.RequestAsyncLoad(ref)
	time.Sleep(time.Millisecond * 100)
	assert.True(t, streamer.IsLoaded(ref))

	streamer.Unload(ref)
	assert.False(t, streamer.IsLoaded(ref))

	t.Run("NullRef", func(t *testing.T) {
		streamer.RequestAsyncLoad(Ref{})
		streamer.Unload(Ref{})
		assert.False(t, streamer.IsLoaded(Ref{}))
	})

	t.Run("UnknownAssetNotCached", func(t *testing.T) {
		unknown := Ref{Path: "/Game/Unknown.Unknown"}
		streamer.RequestAsyncLoad(unknown)
		time.Sleep(time.Millisecond * 100)
		assert.False(t, streamer.IsLoaded(unknown))
	})

	t.Run("NilCache", func(t *testing.T) {
		s := NewStreamer(catalog, nil)
		s.RequestAsyncLoad(ref)
		s.Unload(ref)
		assert.False(t, s.IsLoaded(ref))
	})
}
